// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session implements the vendor measurement protocol for Qardio
// blood pressure devices.
//
// A measurement session subscribes to the blood pressure measurement
// and vendor control channels of a Transport, issues a single start
// command and folds the two notification streams into one terminal
// outcome: a Result, a device-signaled abort, a protocol error, a
// transport failure or a timeout.
package session

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qardio-dev/qardio/bp"
)

// Control channel command bytes.
const (
	commandMarker = 0xf1
	commandStart  = 0x01
)

// Implicit abort signature on the measurement channel. The device
// reports arm movement as a short pseudo-frame rather than through the
// control channel phase encoding.
const (
	abortFlags  = 0x04
	abortMarker = 0xff
)

// DefaultTimeout bounds a measurement attempt when no timeout is
// configured.
const DefaultTimeout = 60 * time.Second

// Result is a completed blood pressure measurement.
type Result struct {
	Timestamp    time.Time
	Unit         bp.Unit
	Systolic     float64
	Diastolic    float64
	MeanArterial float64

	PulseRate        float64 // beats per minute, -1 if not reported
	PulseRatePresent bool

	Status     uint16
	Conditions []string

	Battery int // percent, -1 if the battery read failed
}

// packet is a notification tagged with its source channel. Both
// channels feed a single queue so that notifications are handled
// strictly in arrival order.
type packet struct {
	ch   Channel
	data []byte
}

// Session drives a single bounded measurement attempt. A Session is
// single-use: Run may be called at most once and the Session is
// discarded after it returns.
type Session struct {
	transport Transport
	timeout   time.Duration
	progress  func(Event)
	log       *logrus.Entry

	events chan packet
	done   chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the measurement timeout. The default is
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithProgress sets the sink invoked synchronously for each progress
// event. A slow sink delays protocol handling but cannot reorder it.
func WithProgress(fn func(Event)) Option {
	return func(s *Session) { s.progress = fn }
}

// WithLogger sets the session logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// New returns a Session running over t.
func New(t Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		timeout:   DefaultTimeout,
		log:       logrus.WithField("component", "session"),
		events:    make(chan packet, 16),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one measurement attempt and returns its outcome. On
// success the returned error is nil, or wraps ErrBatteryRead if only
// the post-completion battery read failed; the Result is valid in both
// cases. All other outcomes return a nil Result and one of *AbortError,
// *ProtocolError, *ConnectionError or an error wrapping ErrTimeout.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	defer close(s.done)

	err := s.transport.Subscribe(MeasurementChannel, s.notify(MeasurementChannel))
	if err != nil {
		return nil, &ConnectionError{Op: "measurement subscribe", Err: err}
	}
	defer s.transport.Subscribe(MeasurementChannel, nil)
	err = s.transport.Subscribe(ControlChannel, s.notify(ControlChannel))
	if err != nil {
		return nil, &ConnectionError{Op: "control subscribe", Err: err}
	}
	defer s.transport.Subscribe(ControlChannel, nil)

	err = s.transport.Write(ControlChannel, []byte{commandMarker, commandStart}, true)
	if err != nil {
		return nil, &ConnectionError{Op: "start command", Err: err}
	}

	timeout := time.NewTimer(s.timeout)
	defer timeout.Stop()

	for {
		select {
		case pkt := <-s.events:
			switch pkt.ch {
			case MeasurementChannel:
				final, err := s.handleMeasurement(pkt.data)
				if err != nil {
					return nil, err
				}
				if final != nil {
					return s.assemble(final)
				}
			case ControlChannel:
				err := s.handleControl(pkt.data)
				if err != nil {
					return nil, err
				}
			}
		case <-timeout.C:
			return nil, fmt.Errorf("%w after %v", ErrTimeout, s.timeout)
		case <-ctx.Done():
			return nil, &ConnectionError{Op: "wait", Err: ctx.Err()}
		}
	}
}

// notify returns a notification callback forwarding packets from ch to
// the session event queue. Payloads are cloned; the bluetooth stack
// reuses notification buffers. The send blocks when the queue is full,
// so a slow progress sink delays delivery but never loses a packet.
// Notifications arriving after the session has terminated are dropped.
func (s *Session) notify(ch Channel) func([]byte) {
	return func(buf []byte) {
		select {
		case s.events <- packet{ch: ch, data: bytes.Clone(buf)}:
		case <-s.done:
			s.log.WithField("channel", ch).Debug("dropped notification after session end")
		}
	}
}

// handleMeasurement processes one measurement channel notification,
// returning the frame if it is final.
func (s *Session) handleMeasurement(data []byte) (*bp.Measurement, error) {
	if isImplicitAbort(data) {
		status := binary.LittleEndian.Uint16(data[3:5])
		s.log.WithField("status", fmt.Sprintf("%#04x", status)).Debug("implicit abort")
		s.emit(PhaseChange{Phase: PhaseAborted})
		return nil, &AbortError{Reason: "arm movement"}
	}
	var m bp.Measurement
	err := m.UnmarshalBinary(data)
	if err != nil {
		return nil, &ProtocolError{Reason: "bad measurement frame", Err: err}
	}
	s.emit(Sample{Measurement: m})
	if m.Final() {
		return &m, nil
	}
	return nil, nil
}

// handleControl processes one control channel notification. Payloads
// that do not decode to a phase are ignored.
func (s *Session) handleControl(data []byte) error {
	p, ok := ParsePhase(data)
	if !ok {
		return nil
	}
	s.log.WithField("phase", p).Debug("phase change")
	s.emit(PhaseChange{Phase: p})
	switch p {
	case PhaseCompleted:
		// The final measurement frame terminates the session directly,
		// so a completion phase can only be seen before one arrived.
		return &ProtocolError{Reason: "completion signaled without a final measurement frame"}
	case PhaseAborted:
		return &AbortError{Reason: p.String()}
	case PhaseError:
		return &ProtocolError{Reason: "device signaled " + p.String()}
	}
	return nil
}

func (s *Session) emit(ev Event) {
	if s.progress != nil {
		s.progress(ev)
	}
}

// isImplicitAbort reports whether a measurement channel payload is the
// device abort signature rather than a measurement frame. This check
// must precede frame parsing: the abort payload is shorter than the
// frame its flags byte describes.
func isImplicitAbort(data []byte) bool {
	return len(data) >= 5 && data[0] == abortFlags && data[1] == abortMarker
}

// assemble builds the final Result from the captured frame, reading the
// battery level from the transport. A battery read failure does not
// invalidate the measurement; the Result is returned with Battery set
// to -1 alongside an error wrapping ErrBatteryRead.
func (s *Session) assemble(m *bp.Measurement) (*Result, error) {
	res := &Result{
		Timestamp:        time.Now(),
		Unit:             m.Unit,
		Systolic:         m.Systolic,
		Diastolic:        m.Diastolic,
		MeanArterial:     m.MeanArterial,
		PulseRate:        m.PulseRate,
		PulseRatePresent: m.PulseRatePresent,
		Status:           m.Status,
		Conditions:       bp.Conditions(m.Status),
		Battery:          -1,
	}
	raw, err := s.transport.Read(BatteryChannel)
	if err == nil && len(raw) == 0 {
		err = errors.New("empty battery response")
	}
	if err != nil {
		s.log.WithError(err).Warn("battery read failed")
		return res, fmt.Errorf("%w: %v", ErrBatteryRead, err)
	}
	res.Battery = int(raw[0])
	return res, nil
}
