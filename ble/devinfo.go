// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ble

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"tinygo.org/x/bluetooth"

	"github.com/qardio-dev/qardio/internal/gatt"
)

// Device information service characteristic identifiers.
const (
	manufacturerID = "2a29"
	modelNumberID  = "2a24"
	serialNumberID = "2a25"
	firmwareRevID  = "2a26"
	hardwareRevID  = "2a27"
	softwareRevID  = "2a28"
	systemID       = "2a23"
	pnpID          = "2a50"
)

// DeviceInformation holds the standard 180a device information service
// values. String values are reported verbatim; binary values are hex
// encoded.
type DeviceInformation struct {
	Manufacturer     string
	ModelNumber      string
	SerialNumber     string
	FirmwareRevision string
	HardwareRevision string
	SoftwareRevision string
	SystemID         string
	PnPID            string
}

// ReadDeviceInformation reads the device information service of dev.
// Characteristics the device does not expose are left empty.
func ReadDeviceInformation(dev *bluetooth.Device) (DeviceInformation, error) {
	// https://www.bluetooth.com/specifications/specs/device-information-service-1-1/
	chars, err := gatt.Characteristics(dev, deviceInformation)
	if err != nil {
		return DeviceInformation{}, fmt.Errorf("failed to get device information service: %w", err)
	}

	var info DeviceInformation
	fields := map[string]*string{
		manufacturerID: &info.Manufacturer,
		modelNumberID:  &info.ModelNumber,
		serialNumberID: &info.SerialNumber,
		firmwareRevID:  &info.FirmwareRevision,
		hardwareRevID:  &info.HardwareRevision,
		softwareRevID:  &info.SoftwareRevision,
		systemID:       &info.SystemID,
		pnpID:          &info.PnPID,
	}
	for _, c := range chars {
		dst, ok := fields[shortUUID(c.UUID())]
		if !ok {
			continue
		}
		raw, err := gatt.Read(c)
		if err != nil {
			continue
		}
		*dst = displayValue(raw)
	}
	return info, nil
}

// shortUUID returns the 16-bit form of standard UUIDs, and the full
// string form otherwise.
func shortUUID(u bluetooth.UUID) string {
	s := strings.ToLower(u.String())
	const base = "-0000-1000-8000-00805f9b34fb"
	if strings.HasSuffix(s, base) && strings.HasPrefix(s, "0000") && len(s) == 36 {
		return s[4:8]
	}
	return s
}

// displayValue renders a characteristic value as a trimmed string when
// printable, falling back to hex.
func displayValue(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	for _, r := range s {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return hex.EncodeToString(raw)
		}
	}
	return s
}
