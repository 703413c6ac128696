// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/qardio-dev/qardio/cmd/internal/ring"
)

// historySize is the number of shell commands retained across sessions.
const historySize = 500

type history struct {
	path   string
	recent *ring.Buffer[string]
}

// openHistory loads the command history at path. A missing or unreadable
// file yields an empty history.
func openHistory(path string) *history {
	h := &history{path: path, recent: ring.NewBuffer[string](historySize)}
	b, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	for _, line := range strings.Split(string(b), "\n") {
		if line == "" {
			continue
		}
		h.recent.Push(line)
	}
	return h
}

func (h *history) add(line string) {
	h.recent.Push(line)
}

func (h *history) save() error {
	err := os.MkdirAll(filepath.Dir(h.path), 0o755)
	if err != nil {
		return err
	}
	lines := h.recent.All()
	if len(lines) == 0 {
		return os.WriteFile(h.path, nil, 0o644)
	}
	return os.WriteFile(h.path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
