// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// lfsrPolyMask is the Galois LFSR feedback polynomial used to derive the
// randomized priority component of the CMP backoff.
const lfsrPolyMask uint16 = 0xb400

// defaultLFSRSeed is the non-zero seed used by ln_init in the original
// driver; any non-zero 16-bit value works equally well.
const defaultLFSRSeed uint16 = 1234

// nextLFSR advances a 16-bit Galois LFSR by one step and returns the new
// state. The low bit of the state is the shift register's output bit: if
// it is set, the feedback mask is applied after the shift. A non-zero seed
// never reaches zero and the sequence has period 65535.
func nextLFSR(state uint16) uint16 {
	if state&1 != 0 {
		return (state >> 1) ^ lfsrPolyMask
	}

	return state >> 1
}
