// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ble implements the session transport and characteristic reads
// for Qardio devices over Bluetooth Low Energy.
package ble

import (
	"fmt"

	"tinygo.org/x/bluetooth"

	"github.com/qardio-dev/qardio/bp"
	"github.com/qardio-dev/qardio/internal/gatt"
	"github.com/qardio-dev/qardio/session"
)

// Service and characteristic identifiers.
const (
	// VendorControlID is the Qardio control characteristic, found under
	// the standard blood pressure service.
	VendorControlID = "583cb5b3-875d-40ed-9098-c39eb0c1983d"

	BatteryServiceID = "180f"
	BatteryLevelID   = "2a19"

	DeviceInformationServiceID = "180a"
)

var (
	bpService     = must(bluetooth.ParseUUID(bp.ServiceID))
	bpMeasurement = must(bluetooth.ParseUUID(bp.MeasurementID))
	bpFeature     = must(bluetooth.ParseUUID(bp.FeatureID))
	vendorControl = must(bluetooth.ParseUUID(VendorControlID))

	batteryService = must(bluetooth.ParseUUID(BatteryServiceID))
	batteryLevel   = must(bluetooth.ParseUUID(BatteryLevelID))

	deviceInformation = must(bluetooth.ParseUUID(DeviceInformationServiceID))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Transport maps session channels onto the GATT characteristics of a
// connected Qardio device.
type Transport struct {
	dev *bluetooth.Device

	meas, ctrl, batt bluetooth.DeviceCharacteristic
}

var _ session.Transport = (*Transport)(nil)

// NewTransport discovers the measurement, vendor control and battery
// characteristics of dev.
func NewTransport(dev *bluetooth.Device) (*Transport, error) {
	meas, err := gatt.Characteristic(dev, bpService, bpMeasurement)
	if err != nil {
		return nil, fmt.Errorf("failed to get measurement characteristic: %w", err)
	}
	ctrl, err := gatt.Characteristic(dev, bpService, vendorControl)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor control characteristic: %w", err)
	}
	batt, err := gatt.Characteristic(dev, batteryService, batteryLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to get battery characteristic: %w", err)
	}
	return &Transport{dev: dev, meas: meas, ctrl: ctrl, batt: batt}, nil
}

func (t *Transport) characteristic(ch session.Channel) (bluetooth.DeviceCharacteristic, error) {
	switch ch {
	case session.MeasurementChannel:
		return t.meas, nil
	case session.ControlChannel:
		return t.ctrl, nil
	case session.BatteryChannel:
		return t.batt, nil
	default:
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("ble: unknown channel %v", ch)
	}
}

// Subscribe enables notifications on ch, delivering each notification
// payload to h. A nil handler disables notifications.
func (t *Transport) Subscribe(ch session.Channel, h func([]byte)) error {
	c, err := t.characteristic(ch)
	if err != nil {
		return err
	}
	return c.EnableNotifications(h)
}

// Write sends data to ch. The bluetooth stack only issues
// unacknowledged writes; confirm is accepted for transports that
// support acknowledgement.
func (t *Transport) Write(ch session.Channel, data []byte, confirm bool) error {
	c, err := t.characteristic(ch)
	if err != nil {
		return err
	}
	_, err = c.WriteWithoutResponse(data)
	return err
}

// Read performs a single read from ch.
func (t *Transport) Read(ch session.Channel) ([]byte, error) {
	c, err := t.characteristic(ch)
	if err != nil {
		return nil, err
	}
	return gatt.Read(c)
}

// BatteryLevel returns the battery level percent for dev.
func BatteryLevel(dev *bluetooth.Device) (int, error) {
	// https://www.bluetooth.com/specifications/specs/battery-service/
	c, err := gatt.Characteristic(dev, batteryService, batteryLevel)
	if err != nil {
		return 0, fmt.Errorf("failed to get battery characteristic: %w", err)
	}
	resp, err := gatt.Read(c)
	if err != nil {
		return 0, fmt.Errorf("failed to read battery characteristic: %w", err)
	}
	if len(resp) == 0 {
		return 0, fmt.Errorf("empty battery response")
	}
	return int(resp[0]), nil
}

// Feature returns the blood pressure feature set advertised by dev.
func Feature(dev *bluetooth.Device) (bp.Feature, error) {
	c, err := gatt.Characteristic(dev, bpService, bpFeature)
	if err != nil {
		return 0, fmt.Errorf("failed to get feature characteristic: %w", err)
	}
	resp, err := gatt.Read(c)
	if err != nil {
		return 0, fmt.Errorf("failed to read feature characteristic: %w", err)
	}
	return bp.ParseFeature(resp)
}
