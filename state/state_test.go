// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Data[Scratch] = map[string]any{
		"measurement": map[string]any{"systolic": 120.0, "diastolic": 80.0},
	}
	err = s.Bless("morning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.Save()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Data, s.Data) {
		t.Errorf("unexpected state after reload:\ngot: %+v\nwant:%+v", got.Data, s.Data)
	}

	// A blessed dataset must not alias the scratch slot.
	s.Data[Scratch].(map[string]any)["measurement"] = nil
	m := s.Data["morning"].(map[string]any)["measurement"]
	if m == nil {
		t.Error("bless aliased the scratch dataset")
	}
}

func TestStoreOperations(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Data["a"] = []any{
		map[string]any{"unit": "mmHg", "systolic": 120.0},
		map[string]any{"unit": "kPa", "systolic": 16.0},
		map[string]any{"unit": "mmHg", "systolic": 130.0},
	}

	err = s.Copy("a", "b", "unit", regexp.MustCompile("^mmHg$"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, ok := s.Data["b"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("unexpected filtered copy: %+v", s.Data["b"])
	}

	err = s.Rename("b", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Data["b"]; ok {
		t.Error("rename left the old dataset in place")
	}

	if got, want := s.List(), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected dataset list: got:%v want:%v", got, want)
	}

	err = s.Remove("c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Remove("c"); err == nil {
		t.Error("expected error removing a missing dataset")
	}
	if err := s.Rename("missing", "x"); err == nil {
		t.Error("expected error renaming a missing dataset")
	}
	if err := s.Copy("missing", "x", "", nil); err == nil {
		t.Error("expected error copying a missing dataset")
	}
	if err := s.Bless("x"); err == nil {
		t.Error("expected error blessing without a scratch dataset")
	}
}
