// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device provides access to the supported Qardio device
// variants. The variant set is closed; new devices are added by
// extending it, not by dynamic loading.
package device

import (
	"context"
	"fmt"

	"github.com/qardio-dev/qardio/ble"
	"github.com/qardio-dev/qardio/bp"
	"github.com/qardio-dev/qardio/config"
	"github.com/qardio-dev/qardio/session"
)

// Plugin is a device variant. Each operation opens its own connection
// to the device and closes it before returning.
type Plugin interface {
	// Measure performs one blood pressure measurement, forwarding
	// progress events to the given sink.
	Measure(ctx context.Context, progress func(session.Event)) (*session.Result, error)

	// Battery returns the battery level percent.
	Battery(ctx context.Context) (int, error)

	// Info reads the device information service.
	Info(ctx context.Context) (ble.DeviceInformation, error)

	// Features reads the blood pressure feature set.
	Features(ctx context.Context) (bp.Feature, error)

	// Read reads a raw characteristic value by UUID.
	Read(ctx context.Context, uuid string) ([]byte, error)

	// Discover enumerates the device's services and characteristics.
	Discover(ctx context.Context) ([]ble.ServiceInfo, error)
}

// New returns the plugin for the named device variant.
func New(name string, cfg config.Device) (Plugin, error) {
	switch name {
	case "arm":
		return newArm(cfg)
	case "core":
		return newCore(cfg)
	default:
		return nil, fmt.Errorf("device: unknown device %q", name)
	}
}
