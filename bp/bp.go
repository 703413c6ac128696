// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bp implements decoding of the standard 1810 Bluetooth blood
// pressure service payloads.
package bp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	ServiceID     = "1810"
	MeasurementID = "2a35"
	FeatureID     = "2a49"
)

// Measurement flags field bits.
const (
	flagKPA       = 1 << 0
	flagPulseRate = 1 << 2
	flagStatus    = 1 << 4
)

// Unit is a pressure unit.
type Unit uint8

const (
	MMHG Unit = iota
	KPA
)

func (u Unit) String() string {
	switch u {
	case MMHG:
		return "mmHg"
	case KPA:
		return "kPa"
	default:
		return fmt.Sprintf("Unit(%d)", uint8(u))
	}
}

// ErrMalformed is returned by Measurement.UnmarshalBinary when a frame
// is shorter than its flags field requires.
var ErrMalformed = errors.New("bp: malformed measurement frame")

// Measurement is a blood pressure measurement notification.
type Measurement struct {
	Flags        byte
	Unit         Unit
	Systolic     float64
	Diastolic    float64
	MeanArterial float64

	PulseRate        float64 // beats per minute, -1 if not reported
	PulseRatePresent bool

	Status        uint16
	StatusPresent bool
}

func (m *Measurement) UnmarshalBinary(data []byte) error {
	// https://www.bluetooth.com/specifications/specs/blood-pressure-service-1-1-1/

	// 3.1.1.1. Flags Field
	// | 0x10 | 0x8 | 0x4 | 0x2 | 0x1  |
	// | stat | usr | pls | ts  | unit |
	if len(data) < 1 {
		return fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	flags := data[0]
	need := 1 + 3*sfloatSize
	if flags&flagPulseRate != 0 {
		need += sfloatSize
	}
	if flags&flagStatus != 0 {
		need += 2
	}
	if len(data) < need {
		return fmt.Errorf("%w: %d bytes with flags %#02x, need %d", ErrMalformed, len(data), flags, need)
	}

	unit := MMHG
	if flags&flagKPA != 0 {
		unit = KPA
	}

	offset := 1
	systolic := DecodeSFloat(data[offset:])
	offset += sfloatSize
	diastolic := DecodeSFloat(data[offset:])
	offset += sfloatSize
	mean := DecodeSFloat(data[offset:])
	offset += sfloatSize

	pulse := -1.0
	pulsePresent := flags&flagPulseRate != 0
	if pulsePresent {
		pulse = DecodeSFloat(data[offset:])
		offset += sfloatSize
	}

	var status uint16
	statusPresent := flags&flagStatus != 0
	if statusPresent {
		status = binary.LittleEndian.Uint16(data[offset:])
	}

	*m = Measurement{
		Flags:            flags,
		Unit:             unit,
		Systolic:         systolic,
		Diastolic:        diastolic,
		MeanArterial:     mean,
		PulseRate:        pulse,
		PulseRatePresent: pulsePresent,
		Status:           status,
		StatusPresent:    statusPresent,
	}
	return nil
}

// Final reports whether the frame carries the measurement status field.
// The device sends the status field only on the final frame of a
// measurement.
func (m *Measurement) Final() bool { return m.StatusPresent }
