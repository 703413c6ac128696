// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned by Run when no terminating event arrives
	// within the session timeout.
	ErrTimeout = errors.New("session: measurement timed out")

	// ErrBatteryRead is returned by Run, wrapped and together with a
	// valid Result, when the measurement completed but the battery
	// level could not be read.
	ErrBatteryRead = errors.New("session: battery read failed")
)

// AbortError reports a device-signaled measurement abort. It is a
// normal unsuccessful outcome, not a transport failure.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string { return "measurement aborted: " + e.Reason }

// ProtocolError reports device behavior that violates the measurement
// protocol, including the device signaling its error phase.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConnectionError reports a transport-level failure. The session does
// not retry; reconnect policy belongs to the caller.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
