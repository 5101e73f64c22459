// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// byteSource is the minimal read-only view frameLength and ChecksumOK need;
// *Ring satisfies it, and so does a byte slice wrapped in a Count/Peek
// adapter (bytesSource below, or rawFrame in cmd/lnmon, which decodes a
// frame after it already left the wire).
type byteSource interface {
	Count() int
	Peek(k int) (byte, bool)
}

// bytesSource adapts a plain byte slice to byteSource.
type bytesSource []byte

func (b bytesSource) Count() int { return len(b) }

func (b bytesSource) Peek(k int) (byte, bool) {
	if k < 0 || k >= len(b) {
		return 0, false
	}

	return b[k], true
}

// FrameLength derives the total length of a LocoNet frame, in bytes, from
// its opcode (the first byte). Bits 5-6 of the opcode select a fixed 2, 4
// or 6-byte frame, or a variable-length escape in which case the caller
// must also supply the second byte of the frame.
//
//	op bits (6,5) = 00 -> 2
//	             = 01 -> 4
//	             = 10 -> 6
//	             = 11 -> variable, second byte gives the total length
//
// ok is false only when the opcode selects the variable-length escape and
// no second byte was supplied.
func FrameLength(op byte, second byte, haveSecond bool) (length int, ok bool) {
	length = int((op&0x60)>>4) + 2

	if length > 6 {
		if !haveSecond {
			return 0, false
		}

		length = int(second)
	}

	return length, true
}

// frameLength resolves FrameLength against a queued byte source, used by
// the receive pipeline and by frame staging.
func frameLength(q byteSource) (length int, ok bool) {
	op, ok := q.Peek(0)
	if !ok {
		return 0, false
	}

	second, haveSecond := q.Peek(1)

	return FrameLength(op, second, haveSecond)
}

// ChecksumOK reports whether the XOR of every byte in q equals 0xFF, the
// LocoNet frame checksum invariant.
func ChecksumOK(q byteSource) bool {
	var x byte

	for i := 0; i < q.Count(); i++ {
		b, ok := q.Peek(i)
		if !ok {
			return false
		}

		x ^= b
	}

	return x == 0xff
}

// Checksum returns the checksum byte that, appended to data, makes the XOR
// of the whole frame equal 0xFF. It is a convenience for callers assembling
// outbound frames (tests and the simwire harness use it to build valid test
// fixtures); the core driver never computes checksums itself, it only
// verifies them on receive. Frame construction is left to the application.
func Checksum(data []byte) byte {
	var x byte

	for _, b := range data {
		x ^= b
	}

	return x ^ 0xff
}
