// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uuidname maps standard Bluetooth SIG assigned UUIDs to their
// names. The mapping is loaded once from embedded assigned numbers data
// and is immutable.
package uuidname

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed uuids.yaml
var raw []byte

type entry struct {
	UUID string `yaml:"uuid"`
	Name string `yaml:"name"`
}

type table struct {
	UUIDs []entry `yaml:"uuids"`
}

var names = sync.OnceValue(func() map[string]string {
	var t table
	err := yaml.Unmarshal(raw, &t)
	if err != nil {
		panic("uuidname: bad embedded data: " + err.Error())
	}
	m := make(map[string]string, len(t.UUIDs))
	for _, e := range t.UUIDs {
		id := normalize(e.UUID)
		name := strings.TrimSpace(e.Name)
		if id == "" || name == "" {
			continue
		}
		m[id] = name
	}
	return m
})

// Name returns the assigned name for a standard UUID, or the empty
// string if it is not known. Both 16-bit and full base-form UUIDs are
// accepted.
func Name(uuid string) string {
	return names()[normalize(uuid)]
}

const base = "-0000-1000-8000-00805f9b34fb"

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if len(s) == 36 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, base) {
		s = s[4:8]
	}
	return s
}
