// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "fmt"

// Phase is a coarse measurement progress stage signaled on the vendor
// control channel.
type Phase uint8

const (
	PhaseInflating Phase = 0x01
	PhaseMeasuring Phase = 0x02
	PhaseDeflating Phase = 0x03
	PhaseCompleted Phase = 0x04
	PhaseAborted   Phase = 0x05
	PhaseError     Phase = 0x06
)

func (p Phase) String() string {
	switch p {
	case PhaseInflating:
		return "inflating"
	case PhaseMeasuring:
		return "measuring"
	case PhaseDeflating:
		return "deflating"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("Phase(%#02x)", uint8(p))
	}
}

// phaseMarker prefixes every phase notification on the control channel.
const phaseMarker = 0xf2

// ParsePhase decodes a control channel notification into a Phase. The
// second return value is false for payloads that are not phase
// notifications; the control channel carries unrelated traffic which
// callers are expected to ignore.
func ParsePhase(data []byte) (Phase, bool) {
	if len(data) != 2 || data[0] != phaseMarker {
		return 0, false
	}
	p := Phase(data[1])
	if p < PhaseInflating || p > PhaseError {
		return 0, false
	}
	return p, true
}
