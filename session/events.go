// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "github.com/qardio-dev/qardio/bp"

// Event is a progress event emitted during a measurement session. The
// engine does not retain events; they are forwarded synchronously to the
// configured progress sink.
type Event interface {
	isEvent()
}

// Sample reports a decoded measurement frame. The frame may be partial;
// only the final frame carries the status field.
type Sample struct {
	bp.Measurement
}

// PhaseChange reports a measurement phase transition.
type PhaseChange struct {
	Phase Phase
}

func (Sample) isEvent()      {}
func (PhaseChange) isEvent() {}
