// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"encoding/binary"
	"math"
)

const sfloatSize = 2

// DecodeSFloat decodes an IEEE-11073 16-bit SFLOAT from the first two
// bytes of data. The value is a little-endian word holding a signed
// 12-bit mantissa in bits 0-11 and a signed 4-bit base-10 exponent in
// bits 12-15. The reserved special codes are not treated specially.
// The caller must guarantee at least two bytes.
func DecodeSFloat(data []byte) float64 {
	v := binary.LittleEndian.Uint16(data)
	mantissa := int(v & 0x0fff)
	if mantissa >= 0x0800 {
		mantissa -= 0x1000
	}
	exponent := int(v >> 12)
	if exponent >= 0x8 {
		exponent -= 0x10
	}
	return float64(mantissa) * math.Pow(10, float64(exponent))
}

// EncodeSFloat encodes a mantissa in [-2048, 2047] and a base-10
// exponent in [-8, 7] as an IEEE-11073 16-bit SFLOAT. Values outside
// those ranges are truncated to their low-order bits.
func EncodeSFloat(mantissa, exponent int) [2]byte {
	v := uint16(mantissa)&0x0fff | (uint16(exponent)&0xf)<<12
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b
}
