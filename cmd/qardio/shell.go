// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/qardio-dev/qardio/config"
	"github.com/qardio-dev/qardio/device"
	"github.com/qardio-dev/qardio/internal/uuidname"
	"github.com/qardio-dev/qardio/session"
	"github.com/qardio-dev/qardio/state"
)

const (
	intro  = "Welcome to the qardio shell. Type 'help'."
	prompt = "qardio> "

	// readTimeout bounds the scan and read for single-characteristic
	// commands. Measurements are bounded by the session timeout.
	readTimeout = 30 * time.Second
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

type shell struct {
	name string
	cfg  config.Device
	dev  device.Plugin

	st   *state.Store
	hist *history

	spinner  int
	progress []any
}

func newShell(name string, cfg config.Device, dev device.Plugin) (*shell, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	st, err := state.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		return nil, err
	}
	st.Data[state.Scratch] = map[string]any{}
	return &shell{
		name: name,
		cfg:  cfg,
		dev:  dev,
		st:   st,
		hist: openHistory(filepath.Join(dir, "history")),
	}, nil
}

func (sh *shell) loop(in io.Reader) {
	fmt.Println(intro)
	sc := bufio.NewScanner(in)
	for {
		fmt.Print(prompt)
		if !sc.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		sh.hist.add(line)
		if !sh.dispatch(line) {
			break
		}
	}
	err := sh.st.Save()
	if err != nil {
		fmt.Printf("[WARN] Failed to save state: %v\n", err)
	}
	err = sh.hist.save()
	if err != nil {
		fmt.Printf("[WARN] Failed to save history: %v\n", err)
	}
}

// dispatch runs one command line, reporting whether the loop should
// continue.
func (sh *shell) dispatch(line string) bool {
	args := strings.Fields(line)
	switch args[0] {
	case "help":
		sh.help()
	case "measure":
		sh.measure(args[1:])
	case "battery":
		sh.battery()
	case "info":
		sh.info()
	case "features":
		sh.features()
	case "read":
		sh.read(args[1:])
	case "discover":
		sh.discover()
	case "print":
		sh.print(args[1:])
	case "dataset":
		sh.dataset(args[1:])
	case "history":
		for _, line := range sh.hist.recent.All() {
			fmt.Println(line)
		}
	case "exit":
		return false
	default:
		fmt.Printf("[FAIL] Unknown command %q\n", args[0])
	}
	return true
}

func (sh *shell) help() {
	fmt.Print(`measure [<file>] : perform a measurement, optionally appending the result to <file>
battery          : read the battery level percentage
info             : read the device information characteristics
features         : read the blood pressure feature set
read <uuid>      : read the specified characteristic
discover         : list the device services and characteristics
print [<name>]   : print the dataset stored under <name> ('_' if omitted)
dataset <op>     : dataset ls|bless|rm|cp|mv [--if <field>=<regexp>]
history          : print recent commands
exit             : exit the shell
`)
}

func (sh *shell) spin() rune {
	r := spinnerFrames[sh.spinner%len(spinnerFrames)]
	sh.spinner++
	return r
}

// onProgress displays measurement progress and records it in the
// scratch dataset.
func (sh *shell) onProgress(ev session.Event) {
	switch ev := ev.(type) {
	case session.Sample:
		fmt.Printf("\r%c Measuring: %.0f/%.0f %s ", sh.spin(), ev.Systolic, ev.Diastolic, ev.Unit)
		sh.progress = append(sh.progress, map[string]any{
			"type": "bp", "systolic": ev.Systolic, "diastolic": ev.Diastolic,
		})
	case session.PhaseChange:
		fmt.Printf("\r%c %-12s", sh.spin(), phaseMessage(ev.Phase))
		sh.progress = append(sh.progress, map[string]any{
			"type": "phase", "phase": ev.Phase.String(),
		})
	}
}

func phaseMessage(p session.Phase) string {
	switch p {
	case session.PhaseInflating:
		return "Inflating..."
	case session.PhaseMeasuring:
		return "Measuring..."
	case session.PhaseDeflating:
		return "Deflating..."
	case session.PhaseCompleted:
		return "Completed"
	case session.PhaseAborted:
		return "Aborted"
	case session.PhaseError:
		return "Error"
	default:
		return p.String()
	}
}

func (sh *shell) measure(args []string) {
	var outfile string
	if len(args) > 0 {
		outfile = args[0]
	}

	sh.progress = nil
	scratch := map[string]any{"progress": []any{}}
	sh.st.Data[state.Scratch] = scratch

	res, err := sh.dev.Measure(context.Background(), sh.onProgress)
	fmt.Println()
	scratch["progress"] = sh.progress
	defer func() {
		err := sh.st.Save()
		if err != nil {
			fmt.Printf("[WARN] Failed to save state: %v\n", err)
		}
	}()
	if err != nil {
		scratch["error"] = err.Error()
		fmt.Printf("[FAIL] %v\n", err)
		return
	}

	row := resultRow(res)
	fmt.Println("Measurement result:")
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, row[k])
	}
	scratch["measurement"] = row

	if outfile != "" {
		err = appendRow(outfile, row)
		if err != nil {
			fmt.Printf("[FAIL] Failed to write to %s: %v\n", outfile, err)
			return
		}
		fmt.Println("[OK] Saved to", outfile)
	}
}

func resultRow(res *session.Result) map[string]any {
	row := map[string]any{
		"timestamp":  res.Timestamp.Format("2006-01-02 15:04:05"),
		"unit":       res.Unit.String(),
		"systolic":   res.Systolic,
		"diastolic":  res.Diastolic,
		"map":        res.MeanArterial,
		"status":     int(res.Status),
		"battery":    res.Battery,
		"conditions": strings.Join(res.Conditions, "|"),
	}
	if res.PulseRatePresent {
		row["pulse"] = res.PulseRate
	}
	return row
}

func appendRow(path string, row map[string]any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%v\n", row)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (sh *shell) battery() {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	level, err := sh.dev.Battery(ctx)
	if err != nil {
		fmt.Printf("[FAIL] Error reading battery level: %v\n", err)
		return
	}
	fmt.Printf("Battery level: %d%%\n", level)
}

func (sh *shell) info() {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	info, err := sh.dev.Info(ctx)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		return
	}
	rows := []struct{ label, val string }{
		{"Manufacturer", info.Manufacturer},
		{"Model Number", info.ModelNumber},
		{"Serial Number", info.SerialNumber},
		{"Firmware Revision", info.FirmwareRevision},
		{"Hardware Revision", info.HardwareRevision},
		{"Software Revision", info.SoftwareRevision},
		{"System ID", info.SystemID},
		{"PnP ID", info.PnPID},
	}
	for _, r := range rows {
		fmt.Printf("  %-18s %s\n", r.label, r.val)
	}
}

func (sh *shell) features() {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	f, err := sh.dev.Features(ctx)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		return
	}
	fmt.Printf("Feature bitmask: %#04x\n", uint16(f))
	for _, name := range f.Supported() {
		fmt.Println("  " + name)
	}
}

func (sh *shell) read(args []string) {
	if len(args) != 1 {
		fmt.Println("[FAIL] Usage: read <uuid>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	raw, err := sh.dev.Read(ctx, args[0])
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		return
	}
	if name := uuidname.Name(args[0]); name != "" {
		fmt.Printf("%s (%s): %#x\n", args[0], name, raw)
		return
	}
	fmt.Printf("%s: %#x\n", args[0], raw)
}

func (sh *shell) discover() {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	srvs, err := sh.dev.Discover(ctx)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		return
	}
	for _, s := range srvs {
		fmt.Printf("Service %s%s:\n", s.UUID, nameSuffix(s.UUID))
		for _, c := range s.Characteristics {
			fmt.Printf("  └─ %s%s\n", c, nameSuffix(c))
		}
	}
}

func nameSuffix(uuid string) string {
	name := uuidname.Name(uuid)
	if name == "" {
		return ""
	}
	return " (" + name + ")"
}

func (sh *shell) print(args []string) {
	name := state.Scratch
	if len(args) > 0 {
		name = args[0]
	}
	data, ok := sh.st.Data[name]
	if !ok {
		fmt.Printf("[FAIL] Dataset %q not found\n", name)
		return
	}
	switch data := data.(type) {
	case []any:
		for i, item := range data {
			fmt.Printf("%s[%d]: %v\n", name, i+1, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %v\n", k, data[k])
		}
	default:
		fmt.Printf("%s: %v\n", name, data)
	}
}

func (sh *shell) dataset(args []string) {
	field, pattern, args, err := parseFilter(args)
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		return
	}
	if len(args) == 0 {
		fmt.Println("[FAIL] Missing operation")
		return
	}
	switch op := args[0]; op {
	case "ls":
		for _, name := range sh.st.List() {
			fmt.Println(name)
		}
	case "bless":
		if len(args) != 2 {
			fmt.Println("[FAIL] Usage: dataset bless <name>")
			return
		}
		err = sh.st.Bless(args[1])
		if err != nil {
			fmt.Printf("[FAIL] %v\n", err)
			return
		}
		fmt.Printf("[OK] Blessed '_' as %q\n", args[1])
	case "rm":
		if len(args) != 2 {
			fmt.Println("[FAIL] Usage: dataset rm <name>")
			return
		}
		err = sh.st.Remove(args[1])
		if err != nil {
			fmt.Printf("[FAIL] %v\n", err)
			return
		}
		fmt.Printf("[OK] Removed dataset %q\n", args[1])
	case "cp":
		if len(args) != 3 {
			fmt.Println("[FAIL] Usage: dataset cp <src> <dest> [--if <field>=<regexp>]")
			return
		}
		err = sh.st.Copy(args[1], args[2], field, pattern)
		if err != nil {
			fmt.Printf("[FAIL] %v\n", err)
			return
		}
		fmt.Printf("[OK] Copied dataset %q to %q\n", args[1], args[2])
	case "mv":
		if len(args) != 3 {
			fmt.Println("[FAIL] Usage: dataset mv <old> <new>")
			return
		}
		err = sh.st.Rename(args[1], args[2])
		if err != nil {
			fmt.Printf("[FAIL] %v\n", err)
			return
		}
		fmt.Printf("[OK] Renamed dataset %q to %q\n", args[1], args[2])
	default:
		fmt.Printf("[FAIL] Unknown operation %q\n", op)
	}
	err = sh.st.Save()
	if err != nil {
		fmt.Printf("[WARN] Failed to save state: %v\n", err)
	}
}

// parseFilter extracts an optional "--if field=regexp" clause from
// args, returning the remaining arguments.
func parseFilter(args []string) (field string, pattern *regexp.Regexp, rest []string, err error) {
	for i, a := range args {
		if a != "--if" {
			continue
		}
		if i+1 >= len(args) {
			return "", nil, nil, fmt.Errorf("missing condition after --if")
		}
		cond := args[i+1]
		field, expr, ok := strings.Cut(cond, "=")
		if !ok {
			return "", nil, nil, fmt.Errorf("bad condition %q", cond)
		}
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return "", nil, nil, fmt.Errorf("bad condition %q: %v", cond, err)
		}
		rest = append(args[:i:i], args[i+2:]...)
		return field, pattern, rest, nil
	}
	return "", nil, args, nil
}
