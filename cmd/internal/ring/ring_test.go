// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ring

import (
	"reflect"
	"testing"
)

var bufferTests = []struct {
	name    string
	size    int
	push    []string
	want    []string
	wantLen int
}{
	{
		name: "empty",
		size: 4, push: nil,
		want: []string{}, wantLen: 0,
	},
	{
		name: "partial",
		size: 4, push: []string{"a", "b"},
		want: []string{"a", "b"}, wantLen: 2,
	},
	{
		name: "exactly_full",
		size: 4, push: []string{"a", "b", "c", "d"},
		want: []string{"a", "b", "c", "d"}, wantLen: 4,
	},
	{
		name: "wrapped",
		size: 4, push: []string{"a", "b", "c", "d", "e"},
		want: []string{"b", "c", "d", "e"}, wantLen: 4,
	},
	{
		name: "wrapped_twice",
		size: 3, push: []string{"a", "b", "c", "d", "e", "f", "g"},
		want: []string{"e", "f", "g"}, wantLen: 3,
	},
	{
		name: "size_one",
		size: 1, push: []string{"a", "b", "c"},
		want: []string{"c"}, wantLen: 1,
	},
}

func TestBuffer(t *testing.T) {
	for _, test := range bufferTests {
		t.Run(test.name, func(t *testing.T) {
			r := NewBuffer[string](test.size)
			for _, v := range test.push {
				r.Push(v)
			}
			if got := r.Len(); got != test.wantLen {
				t.Errorf("unexpected length: got:%d want:%d", got, test.wantLen)
			}
			if got := r.Size(); got != test.size {
				t.Errorf("unexpected size: got:%d want:%d", got, test.size)
			}
			if got := r.All(); !reflect.DeepEqual(got, test.want) {
				t.Errorf("unexpected contents: got:%v want:%v", got, test.want)
			}
		})
	}
}
