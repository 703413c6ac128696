// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gatt contains helpers over the bluetooth GATT client API used
// by the device packages.
package gatt

import (
	"fmt"
	"io"

	"tinygo.org/x/bluetooth"
)

// defaultMTU is the ATT default used to size read buffers when the
// stack cannot report the negotiated value.
const defaultMTU = 23

// Characteristic returns the charID characteristic of the srvID service
// on dev.
func Characteristic(dev *bluetooth.Device, srvID, charID bluetooth.UUID) (bluetooth.DeviceCharacteristic, error) {
	var none bluetooth.DeviceCharacteristic
	srvs, err := dev.DiscoverServices([]bluetooth.UUID{srvID})
	if err != nil {
		return none, fmt.Errorf("gatt: discover service %s: %w", srvID, err)
	}
	if len(srvs) == 0 {
		return none, fmt.Errorf("gatt: service %s not found", srvID)
	}
	chars, err := srvs[0].DiscoverCharacteristics([]bluetooth.UUID{charID})
	if err != nil {
		return none, fmt.Errorf("gatt: discover characteristic %s: %w", charID, err)
	}
	if len(chars) == 0 {
		return none, fmt.Errorf("gatt: characteristic %s not found in service %s", charID, srvID)
	}
	return chars[0], nil
}

// Characteristics returns all characteristics of the srvID service on
// dev.
func Characteristics(dev *bluetooth.Device, srvID bluetooth.UUID) ([]bluetooth.DeviceCharacteristic, error) {
	srvs, err := dev.DiscoverServices([]bluetooth.UUID{srvID})
	if err != nil {
		return nil, fmt.Errorf("gatt: discover service %s: %w", srvID, err)
	}
	var chars []bluetooth.DeviceCharacteristic
	for _, s := range srvs {
		c, err := s.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("gatt: discover characteristics of %s: %w", srvID, err)
		}
		chars = append(chars, c...)
	}
	return chars, nil
}

// Read reads the current value of char into a buffer sized to the
// connection MTU, falling back to the ATT default when the MTU is not
// available.
func Read(char bluetooth.DeviceCharacteristic) ([]byte, error) {
	size, err := char.GetMTU()
	if err != nil {
		size = defaultMTU
	}
	buf := make([]byte, size)
	n, err := char.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("gatt: read %s: %w", char.UUID(), err)
	}
	return buf[:n], nil
}
