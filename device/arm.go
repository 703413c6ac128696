// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/qardio-dev/qardio/ble"
	"github.com/qardio-dev/qardio/bp"
	"github.com/qardio-dev/qardio/config"
	"github.com/qardio-dev/qardio/session"
)

// arm is the QardioArm blood pressure cuff.
type arm struct {
	cfg config.Device
	log *logrus.Entry
}

func newArm(cfg config.Device) (*arm, error) {
	if cfg.Address == "" {
		return nil, errors.New("device: arm requires an address")
	}
	return &arm{cfg: cfg, log: logrus.WithField("device", "arm")}, nil
}

func (a *arm) connect(ctx context.Context) (bluetooth.Device, error) {
	return ble.Connect(ctx, a.cfg.Address)
}

func (a *arm) Measure(ctx context.Context, progress func(session.Event)) (*session.Result, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return nil, &session.ConnectionError{Op: "connect", Err: err}
	}
	defer dev.Disconnect()

	t, err := ble.NewTransport(&dev)
	if err != nil {
		return nil, &session.ConnectionError{Op: "characteristic discovery", Err: err}
	}
	s := session.New(t,
		session.WithTimeout(a.cfg.Timeout()),
		session.WithProgress(progress),
		session.WithLogger(a.log),
	)
	res, err := s.Run(ctx)
	if errors.Is(err, session.ErrBatteryRead) {
		// The measurement itself succeeded; report it without a
		// battery level.
		a.log.WithError(err).Warn("measurement completed without battery level")
		return res, nil
	}
	return res, err
}

func (a *arm) Battery(ctx context.Context) (int, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer dev.Disconnect()
	return ble.BatteryLevel(&dev)
}

func (a *arm) Info(ctx context.Context) (ble.DeviceInformation, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return ble.DeviceInformation{}, err
	}
	defer dev.Disconnect()
	return ble.ReadDeviceInformation(&dev)
}

func (a *arm) Features(ctx context.Context) (bp.Feature, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer dev.Disconnect()
	return ble.Feature(&dev)
}

func (a *arm) Read(ctx context.Context, uuid string) ([]byte, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Disconnect()
	return ble.ReadByUUID(&dev, uuid)
}

func (a *arm) Discover(ctx context.Context) ([]ble.ServiceInfo, error) {
	dev, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Disconnect()
	return ble.Discover(&dev)
}
