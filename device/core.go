// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"errors"

	"github.com/qardio-dev/qardio/ble"
	"github.com/qardio-dev/qardio/bp"
	"github.com/qardio-dev/qardio/config"
	"github.com/qardio-dev/qardio/session"
)

var errCoreUnsupported = errors.New("device: core support is not implemented")

// core is a placeholder for the QardioCore chest strap.
type core struct {
	cfg config.Device
}

func newCore(cfg config.Device) (*core, error) {
	return &core{cfg: cfg}, nil
}

func (c *core) Measure(ctx context.Context, progress func(session.Event)) (*session.Result, error) {
	return nil, errCoreUnsupported
}

func (c *core) Battery(ctx context.Context) (int, error) {
	return 0, errCoreUnsupported
}

func (c *core) Info(ctx context.Context) (ble.DeviceInformation, error) {
	return ble.DeviceInformation{}, errCoreUnsupported
}

func (c *core) Features(ctx context.Context) (bp.Feature, error) {
	return 0, errCoreUnsupported
}

func (c *core) Read(ctx context.Context, uuid string) ([]byte, error) {
	return nil, errCoreUnsupported
}

func (c *core) Discover(ctx context.Context) ([]ble.ServiceInfo, error) {
	return nil, errCoreUnsupported
}
