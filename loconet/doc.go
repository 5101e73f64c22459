// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// Initialization contract (enforced by the caller, not by this package):
//
//   - Serial: asynchronous, inverted TX, 8N1, 16,666 baud. On hardware
//     with a BRG divisor formula of ((F_osc/baud)/16)-1, that is 119 at
//     F_osc=32MHz. Receiver enabled.
//   - Timer: one-shot, 1us resolution (e.g. 1:8 prescaler fed by F_osc/4
//     at F_osc=32MHz).
//   - LineSense: electrical line idle AND UART receiver idle, ANDed
//     together, as required by isLnFree in the original driver this
//     package supersedes.
//
// Wire format: a frame is 2..128 bytes. The first byte (opcode) has its
// MSB set and encodes length in bits 5-6 (see FrameLength); every
// subsequent byte has its MSB clear. The frame body is otherwise opaque to
// this package, which never interprets opcodes beyond their length bits.
// The last byte is a checksum making the XOR of the whole frame equal
// 0xFF. Linebreak is a 900us active line condition; the inter-frame gap is
// the CMP delay, 1560..2583us.
