// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The qardio command is an interactive shell for Qardio Bluetooth blood
// pressure devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/qardio-dev/qardio/ble"
	"github.com/qardio-dev/qardio/config"
	"github.com/qardio-dev/qardio/device"
)

func main() {
	address := flag.String("address", "", "device bluetooth address")
	adapter := flag.String("adapter", "", "bluetooth adapter name (only the system default adapter is supported)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <device>\n\nsupported devices: arm, core\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	name := flag.Arg(0)

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(name)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *adapter != "" {
		cfg.Adapter = *adapter
	}
	if cfg.Adapter != "" {
		logrus.Warnf("adapter %q configured; only the system default adapter is supported", cfg.Adapter)
	}

	err = bluetooth.DefaultAdapter.Enable()
	if err != nil {
		fmt.Printf("failed to enable bluetooth: %v\n", err)
		os.Exit(1)
	}

	dev, err := device.New(name, cfg)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		os.Exit(1)
	}

	if cfg.Address != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = ble.Find(ctx, cfg.Address)
		cancel()
		if err != nil {
			fmt.Printf("[FAIL] Device %s not reachable. Exiting.\n", cfg.Address)
			os.Exit(1)
		}
	}

	sh, err := newShell(name, cfg, dev)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		os.Exit(1)
	}
	sh.loop(os.Stdin)
}
