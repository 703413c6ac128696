// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state persists named measurement datasets between shell
// sessions as a JSON document.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Scratch is the dataset slot holding the most recent shell activity.
const Scratch = "_"

// Store is a set of named datasets backed by a JSON file. A dataset is
// any JSON value; measurement rows are stored as objects.
type Store struct {
	path string
	Data map[string]any
}

// Open loads the store at path, creating an empty one if the file does
// not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, Data: make(map[string]any)}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(raw, &s.Data)
	if err != nil {
		return nil, fmt.Errorf("state: failed to parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes the store back to its file, creating parent directories
// as needed.
func (s *Store) Save() error {
	err := os.MkdirAll(filepath.Dir(s.path), 0o755)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// List returns the dataset names in sorted order.
func (s *Store) List() []string {
	names := make([]string, 0, len(s.Data))
	for name := range s.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bless stores a deep copy of the scratch dataset under name.
func (s *Store) Bless(name string) error {
	v, ok := s.Data[Scratch]
	if !ok {
		return fmt.Errorf("state: no scratch dataset")
	}
	cp, err := deepCopy(v)
	if err != nil {
		return err
	}
	s.Data[name] = cp
	return nil
}

// Remove deletes the named dataset.
func (s *Store) Remove(name string) error {
	if _, ok := s.Data[name]; !ok {
		return fmt.Errorf("state: dataset %q not found", name)
	}
	delete(s.Data, name)
	return nil
}

// Rename moves the dataset old to new.
func (s *Store) Rename(old, new string) error {
	v, ok := s.Data[old]
	if !ok {
		return fmt.Errorf("state: dataset %q not found", old)
	}
	s.Data[new] = v
	delete(s.Data, old)
	return nil
}

// Copy stores a deep copy of src under dst. If the source is a list and
// a field filter is given, only rows whose field matches pattern are
// copied.
func (s *Store) Copy(src, dst, field string, pattern *regexp.Regexp) error {
	v, ok := s.Data[src]
	if !ok {
		return fmt.Errorf("state: dataset %q not found", src)
	}
	if rows, ok := v.([]any); ok && field != "" && pattern != nil {
		var filtered []any
		for _, row := range rows {
			obj, ok := row.(map[string]any)
			if !ok {
				continue
			}
			val, ok := obj[field]
			if !ok {
				continue
			}
			if pattern.MatchString(fmt.Sprint(val)) {
				filtered = append(filtered, row)
			}
		}
		cp, err := deepCopy(filtered)
		if err != nil {
			return err
		}
		s.Data[dst] = cp
		return nil
	}
	cp, err := deepCopy(v)
	if err != nil {
		return err
	}
	s.Data[dst] = cp
	return nil
}

// deepCopy copies a JSON value by round-tripping it.
func deepCopy(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var cp any
	err = json.Unmarshal(raw, &cp)
	if err != nil {
		return nil, err
	}
	return cp, nil
}
