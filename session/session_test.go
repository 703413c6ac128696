// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/qardio-dev/qardio/bp"
)

// finalFrame is a 120/80 mmHg frame with MAP 93 and a zero status
// field, marking it final.
var finalFrame = []byte{0x10, 0x78, 0x00, 0x50, 0x00, 0x5d, 0x00, 0x00, 0x00}

// partialFrame is a frame without pulse rate or status fields.
var partialFrame = []byte{0x00, 0x78, 0x00, 0x50, 0x00, 0x5d, 0x00}

type fakeTransport struct {
	mu       sync.Mutex
	handlers map[Channel]func([]byte)

	writes   [][]byte
	writeErr error
	subErr   error

	battery    []byte
	batteryErr error
	reads      int

	// onStart is run in its own goroutine after a successful write,
	// standing in for the device reacting to the start command.
	onStart func(*fakeTransport)
}

func (f *fakeTransport) Subscribe(ch Channel, h func([]byte)) error {
	if h != nil && f.subErr != nil {
		return f.subErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[Channel]func([]byte))
	}
	f.handlers[ch] = h
	return nil
}

func (f *fakeTransport) Write(ch Channel, data []byte, confirm bool) error {
	f.mu.Lock()
	f.writes = append(f.writes, append([]byte(nil), data...))
	f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.onStart != nil {
		go f.onStart(f)
	}
	return nil
}

func (f *fakeTransport) Read(ch Channel) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.batteryErr != nil {
		return nil, f.batteryErr
	}
	return f.battery, nil
}

func (f *fakeTransport) notify(ch Channel, data []byte) {
	f.mu.Lock()
	h := f.handlers[ch]
	f.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func TestRunSuccess(t *testing.T) {
	ft := &fakeTransport{
		battery: []byte{90},
		onStart: func(f *fakeTransport) {
			f.notify(ControlChannel, []byte{0xf2, 0x01})
			f.notify(ControlChannel, []byte{0xf2, 0x02})
			f.notify(MeasurementChannel, finalFrame)
			f.notify(ControlChannel, []byte{0xf2, 0x04})
		},
	}
	var events []Event
	s := New(ft, WithProgress(func(ev Event) { events = append(events, ev) }))
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Systolic != 120 || res.Diastolic != 80 || res.MeanArterial != 93 {
		t.Errorf("unexpected reading: %+v", res)
	}
	if res.Unit != bp.MMHG {
		t.Errorf("unexpected unit: got:%v want:%v", res.Unit, bp.MMHG)
	}
	if len(res.Conditions) != 0 {
		t.Errorf("unexpected conditions: %v", res.Conditions)
	}
	if res.Battery != 90 {
		t.Errorf("unexpected battery level: got:%d want:90", res.Battery)
	}
	if res.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if ft.reads != 1 {
		t.Errorf("unexpected battery read count: got:%d want:1", ft.reads)
	}
	if len(ft.writes) != 1 || !reflect.DeepEqual(ft.writes[0], []byte{0xf1, 0x01}) {
		t.Errorf("unexpected writes: %#x", ft.writes)
	}

	var phases []Phase
	samples := 0
	for _, ev := range events {
		switch ev := ev.(type) {
		case PhaseChange:
			phases = append(phases, ev.Phase)
		case Sample:
			samples++
			if !ev.Final() {
				t.Errorf("unexpected non-final sample: %+v", ev.Measurement)
			}
		}
	}
	if samples != 1 {
		t.Errorf("unexpected sample count: got:%d want:1", samples)
	}
	if !reflect.DeepEqual(phases, []Phase{PhaseInflating, PhaseMeasuring}) {
		t.Errorf("unexpected phases: %v", phases)
	}
}

func TestRunPartialThenFinal(t *testing.T) {
	ft := &fakeTransport{
		battery: []byte{77},
		onStart: func(f *fakeTransport) {
			f.notify(MeasurementChannel, partialFrame)
			f.notify(MeasurementChannel, finalFrame)
		},
	}
	samples := 0
	s := New(ft, WithProgress(func(ev Event) {
		if _, ok := ev.(Sample); ok {
			samples++
		}
	}))
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if samples != 2 {
		t.Errorf("unexpected sample count: got:%d want:2", samples)
	}
	if res.Battery != 77 {
		t.Errorf("unexpected battery level: got:%d want:77", res.Battery)
	}
}

func TestRunTimeout(t *testing.T) {
	ft := &fakeTransport{}
	s := New(ft, WithTimeout(20*time.Millisecond))
	res, err := s.Run(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("unexpected error: got:%v want:%v", err, ErrTimeout)
	}
	if res != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunSlowSinkLosesNothing(t *testing.T) {
	release := make(chan struct{})
	ft := &fakeTransport{
		battery: []byte{64},
		onStart: func(f *fakeTransport) {
			go func() {
				time.Sleep(20 * time.Millisecond)
				close(release)
			}()
			f.notify(ControlChannel, []byte{0xf2, 0x01})
			// Saturate the event queue with control chatter while the
			// sink is still blocked on the first phase event. The final
			// frame must be delivered once the session catches up.
			for i := 0; i < 32; i++ {
				f.notify(ControlChannel, []byte{0xaa, byte(i)})
			}
			f.notify(MeasurementChannel, finalFrame)
		},
	}
	var once sync.Once
	s := New(ft,
		WithTimeout(500*time.Millisecond),
		WithProgress(func(Event) {
			once.Do(func() { <-release })
		}),
	)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Systolic != 120 || res.Diastolic != 80 {
		t.Errorf("unexpected reading: %+v", res)
	}
}

func TestRunControlAbort(t *testing.T) {
	ft := &fakeTransport{
		onStart: func(f *fakeTransport) {
			f.notify(ControlChannel, []byte{0xf2, 0x05})
		},
	}
	s := New(ft)
	res, err := s.Run(context.Background())
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if abort.Reason != "aborted" {
		t.Errorf("unexpected abort reason: got:%q want:%q", abort.Reason, "aborted")
	}
	if res != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunControlErrorPhase(t *testing.T) {
	ft := &fakeTransport{
		onStart: func(f *fakeTransport) {
			f.notify(ControlChannel, []byte{0xf2, 0x06})
		},
	}
	s := New(ft)
	_, err := s.Run(context.Background())
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error type: %v", err)
	}
}

func TestRunImplicitAbort(t *testing.T) {
	ft := &fakeTransport{
		onStart: func(f *fakeTransport) {
			// Abort pseudo-frame with status 0x1234 at bytes 3-4. Queued
			// ahead of a pending completion phase, it must still win.
			f.notify(MeasurementChannel, []byte{0x04, 0xff, 0x00, 0x34, 0x12, 0x00})
			f.notify(ControlChannel, []byte{0xf2, 0x04})
		},
	}
	var phases []Phase
	s := New(ft, WithProgress(func(ev Event) {
		if pc, ok := ev.(PhaseChange); ok {
			phases = append(phases, pc.Phase)
		}
	}))
	res, err := s.Run(context.Background())
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if abort.Reason != "arm movement" {
		t.Errorf("unexpected abort reason: got:%q want:%q", abort.Reason, "arm movement")
	}
	if res != nil {
		t.Errorf("unexpected result: %+v", res)
	}
	if !reflect.DeepEqual(phases, []Phase{PhaseAborted}) {
		t.Errorf("unexpected phases: %v", phases)
	}
}

func TestRunCompletedWithoutMeasurement(t *testing.T) {
	ft := &fakeTransport{
		onStart: func(f *fakeTransport) {
			f.notify(ControlChannel, []byte{0xf2, 0x04})
		},
	}
	s := New(ft)
	res, err := s.Run(context.Background())
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if res != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunMalformedFrame(t *testing.T) {
	ft := &fakeTransport{
		onStart: func(f *fakeTransport) {
			f.notify(MeasurementChannel, []byte{0x10, 0x78})
		},
	}
	s := New(ft)
	_, err := s.Run(context.Background())
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if !errors.Is(err, bp.ErrMalformed) {
		t.Errorf("expected error to wrap %v, got %v", bp.ErrMalformed, err)
	}
}

func TestRunIgnoresControlChatter(t *testing.T) {
	ft := &fakeTransport{
		battery: []byte{55},
		onStart: func(f *fakeTransport) {
			f.notify(ControlChannel, []byte{0xaa, 0x01})
			f.notify(ControlChannel, []byte{0xf2, 0x09})
			f.notify(ControlChannel, []byte{0xf2})
			f.notify(MeasurementChannel, finalFrame)
		},
	}
	s := New(ft)
	_, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunSubscribeFailure(t *testing.T) {
	cause := errors.New("no device")
	ft := &fakeTransport{subErr: cause}
	s := New(ft)
	_, err := s.Run(context.Background())
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap %v, got %v", cause, err)
	}
}

func TestRunWriteFailure(t *testing.T) {
	cause := errors.New("write refused")
	ft := &fakeTransport{writeErr: cause}
	s := New(ft)
	_, err := s.Run(context.Background())
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap %v, got %v", cause, err)
	}
}

func TestRunBatteryReadFailure(t *testing.T) {
	ft := &fakeTransport{
		batteryErr: errors.New("battery unavailable"),
		onStart: func(f *fakeTransport) {
			f.notify(MeasurementChannel, finalFrame)
		},
	}
	s := New(ft)
	res, err := s.Run(context.Background())
	if !errors.Is(err, ErrBatteryRead) {
		t.Fatalf("unexpected error: got:%v want wrapped:%v", err, ErrBatteryRead)
	}
	if res == nil {
		t.Fatal("expected result alongside battery read failure")
	}
	if res.Battery != -1 {
		t.Errorf("unexpected battery level: got:%d want:-1", res.Battery)
	}
	if res.Systolic != 120 {
		t.Errorf("unexpected systolic: got:%v want:120", res.Systolic)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(&fakeTransport{})
	_, err := s.Run(ctx)
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap %v, got %v", context.Canceled, err)
	}
}
