// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ble

import (
	"context"
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Connect scans for the device with the given address and connects to
// it. The scan runs until the device is found or ctx is done. The
// default adapter must be enabled before calling Connect.
func Connect(ctx context.Context, addr string) (bluetooth.Device, error) {
	var target bluetooth.Address
	err := target.UnmarshalText([]byte(addr))
	if err != nil {
		return bluetooth.Device{}, fmt.Errorf("ble: invalid address %q: %w", addr, err)
	}

	adapter := bluetooth.DefaultAdapter
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			adapter.StopScan()
		case <-done:
		}
	}()

	var (
		dev     bluetooth.Device
		connErr error
		found   bool
	)
	err = adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
		if res.Address != target {
			return
		}
		found = true
		dev, connErr = a.Connect(res.Address, bluetooth.ConnectionParams{})
		a.StopScan()
	})
	if err != nil {
		return bluetooth.Device{}, fmt.Errorf("ble: scan failed: %w", err)
	}
	if !found {
		if ctx.Err() != nil {
			return bluetooth.Device{}, fmt.Errorf("ble: device %s not found: %w", addr, ctx.Err())
		}
		return bluetooth.Device{}, fmt.Errorf("ble: device %s not found", addr)
	}
	if connErr != nil {
		return bluetooth.Device{}, fmt.Errorf("ble: failed to connect to %s: %w", addr, connErr)
	}
	return dev, nil
}

// Find scans until the device with the given address is seen, without
// connecting to it.
func Find(ctx context.Context, addr string) error {
	var target bluetooth.Address
	err := target.UnmarshalText([]byte(addr))
	if err != nil {
		return fmt.Errorf("ble: invalid address %q: %w", addr, err)
	}

	adapter := bluetooth.DefaultAdapter
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			adapter.StopScan()
		case <-done:
		}
	}()

	var found bool
	err = adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
		if res.Address != target {
			return
		}
		found = true
		a.StopScan()
	})
	if err != nil {
		return fmt.Errorf("ble: scan failed: %w", err)
	}
	if !found {
		return fmt.Errorf("ble: device %s not found", addr)
	}
	return nil
}
