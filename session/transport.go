// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "fmt"

// Channel identifies a logical data channel on a device transport.
type Channel uint8

const (
	// MeasurementChannel carries blood pressure measurement frames.
	MeasurementChannel Channel = iota
	// ControlChannel carries vendor phase notifications and accepts
	// session commands.
	ControlChannel
	// BatteryChannel is readable and returns the battery level percent
	// in its first byte.
	BatteryChannel
)

func (c Channel) String() string {
	switch c {
	case MeasurementChannel:
		return "measurement"
	case ControlChannel:
		return "control"
	case BatteryChannel:
		return "battery"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Transport is a connection to a device. A session has exclusive use of
// its transport; the engine performs no connection management beyond the
// operations below.
type Transport interface {
	// Subscribe registers h to be called once per inbound notification
	// on ch. A nil handler disables notifications on the channel.
	Subscribe(ch Channel, h func([]byte)) error

	// Write sends data to ch, optionally requesting peripheral
	// acknowledgement.
	Write(ch Channel, data []byte, confirm bool) error

	// Read performs a single read from ch.
	Read(ch Channel) ([]byte, error)
}
