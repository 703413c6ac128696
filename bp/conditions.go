// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"fmt"
	"strings"
)

// conditionNames maps measurement status bits, in ascending bit order,
// to condition names.
var conditionNames = [...]string{
	"body_movement",
	"cuff_too_loose",
	"irregular_pulse",
	"pulse_rate_out_of_range",
}

// Conditions decodes a measurement status mask into condition names in
// ascending bit order. A zero status yields no conditions.
func Conditions(status uint16) []string {
	var c []string
	for i, name := range conditionNames {
		if status&(1<<i) != 0 {
			c = append(c, name)
		}
	}
	return c
}

// Feature is the flag set of the blood pressure feature characteristic.
type Feature uint16

const (
	FeatureBodyMovement        Feature = 1 << 0
	FeatureCuffFit             Feature = 1 << 1
	FeatureIrregularPulse      Feature = 1 << 2
	FeaturePulseRateRange      Feature = 1 << 3
	FeatureMeasurementPosition Feature = 1 << 4
)

var featureNames = [...]string{
	"Body Movement Detection",
	"Cuff Fit Detection",
	"Irregular Pulse Detection",
	"Pulse Rate Range Detection",
	"Measurement Position Detection",
}

// ParseFeature decodes the blood pressure feature characteristic value.
func ParseFeature(data []byte) (Feature, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("bp: feature value too short: %#x", data)
	}
	return Feature(data[0]) | Feature(data[1])<<8, nil
}

// Supported returns the names of the detections the feature set
// advertises, in ascending bit order.
func (f Feature) Supported() []string {
	var s []string
	for i, name := range featureNames {
		if f&(1<<i) != 0 {
			s = append(s, name)
		}
	}
	return s
}

func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	var s strings.Builder
	for i, name := range featureNames {
		if f&(1<<i) != 0 {
			if s.Len() != 0 {
				s.WriteByte('|')
			}
			s.WriteString(name)
		}
	}
	if rest := f &^ (1<<len(featureNames) - 1); rest != 0 {
		if s.Len() != 0 {
			s.WriteByte('|')
		}
		fmt.Fprintf(&s, "%#04x", uint16(rest))
	}
	return s.String()
}
