// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ble

import (
	"fmt"

	"tinygo.org/x/bluetooth"

	"github.com/qardio-dev/qardio/internal/gatt"
)

// ServiceInfo describes one GATT service exposed by a device.
type ServiceInfo struct {
	UUID            string
	Characteristics []string
}

// Discover enumerates the services and characteristics of dev. UUIDs of
// standard services and characteristics are reported in their 16-bit
// form.
func Discover(dev *bluetooth.Device) ([]ServiceInfo, error) {
	srvs, err := dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}
	infos := make([]ServiceInfo, 0, len(srvs))
	for _, s := range srvs {
		info := ServiceInfo{UUID: shortUUID(s.UUID())}
		chars, err := s.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to discover characteristics of %s: %w", info.UUID, err)
		}
		for _, c := range chars {
			info.Characteristics = append(info.Characteristics, shortUUID(c.UUID()))
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ReadByUUID reads the value of the first characteristic on dev with
// the given UUID, searching all services.
func ReadByUUID(dev *bluetooth.Device, uuid string) ([]byte, error) {
	id, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("ble: invalid uuid %q: %w", uuid, err)
	}
	srvs, err := dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}
	for _, s := range srvs {
		chars, err := s.DiscoverCharacteristics([]bluetooth.UUID{id})
		if err != nil || len(chars) == 0 {
			continue
		}
		return gatt.Read(chars[0])
	}
	return nil, fmt.Errorf("ble: characteristic %s not found", uuid)
}
