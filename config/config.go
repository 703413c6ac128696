// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads qardio configuration files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the root of a qardio configuration file.
type File struct {
	Devices map[string]Device `yaml:"devices"`
}

// Device is the configuration for one device plugin.
type Device struct {
	Address string `yaml:"address"`
	Adapter string `yaml:"adapter"`
	// PollInterval is in seconds. It bounds a measurement attempt.
	PollInterval int `yaml:"poll_interval"`
}

// Timeout returns the measurement timeout for the device.
func (d Device) Timeout() time.Duration {
	if d.PollInterval <= 0 {
		return 60 * time.Second
	}
	return time.Duration(d.PollInterval) * time.Second
}

// Dir returns the qardio configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qardio"), nil
}

// Load returns the configuration for the named device, looking for
// ./qardio.yaml and then the user configuration directory. A missing
// file or section yields a zero Device.
func Load(name string) (Device, error) {
	paths := []string{"qardio.yaml"}
	dir, err := Dir()
	if err == nil {
		paths = append(paths, filepath.Join(dir, "config.yaml"))
	}
	for _, path := range paths {
		dev, err := LoadFile(path, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return dev, err
	}
	return Device{}, nil
}

// LoadFile returns the configuration for the named device from the
// given file. An absent section yields a zero Device.
func LoadFile(path, name string) (Device, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Device{}, err
	}
	var f File
	err = yaml.Unmarshal(raw, &f)
	if err != nil {
		return Device{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return f.Devices[name], nil
}
