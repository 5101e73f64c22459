// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package loconet implements a bus-access state machine and framing layer
// for LocoNet, a half-duplex multi-master serial bus used for model
// railway command and control. The package mediates between an
// application enqueuing/dequeuing whole frames and a physical bus reached
// through a UART-class serial peripheral, a comparator-driven line-idle
// signal and a one-shot timer, all driven from interrupt context.
//
// Processor and peripheral initialization (oscillator, port direction,
// comparator configuration, interrupt priority wiring) is out of scope:
// callers provide a Serial, a Timer and a LineSense already configured per
// the contract in doc.go, and route their interrupts to Controller's
// OnTimer, OnRxByte and OnRxFramingError.
package loconet

// Serial is the UART-class peripheral the bus is reached through. Tx must
// be non-blocking from interrupt context: a LocoNet driver only ever has
// one byte in flight, written once per OnRxByte/OnTimer callback, so the
// transmit holding register is always free by the time the next byte is
// written.
type Serial interface {
	// Tx writes a single byte to the transmit register.
	Tx(b byte)
}

// Timer is the one-shot timer driving the bus-access state machine. Arm
// programs the timer to fire once after the given number of microseconds,
// replacing any previously pending expiry.
type Timer interface {
	Arm(microseconds uint32)
}

// LineSense reports whether the bus is currently idle. It corresponds to
// the comparator-driven line-idle indicator and the UART's own "receiver
// idle" status, ANDed together in the original driver (isLnFree: line
// electrically idle AND no reception in progress).
type LineSense interface {
	Free() bool
}

// LinebreakDriver controls the deliberate UART-framing violation used as
// an in-band collision/abort signal. Break(true) stops the transmitter and
// drives the line active; Break(false) restores normal transmission.
type LinebreakDriver interface {
	// Break asserts (true) or releases (false) the linebreak condition.
	Break(active bool)
}

// Indicator is an optional diagnostic LED driven the way the original
// driver's "data on LN" LED is: on in CMP_BACKOFF/LINEBREAK/BRG_SYNC, off
// in IDLE. The core never requires one; a nil Indicator is a no-op.
type Indicator interface {
	Set(on bool)
}

// Interrupts bounds the foreground-side critical sections that touch
// shared queue state also touched from interrupt context (TxQueue.Enqueue,
// RxQueue.Dequeue). It generalizes arm.CPU's EnableInterrupts/
// DisableInterrupts to whatever architecture a board adapter targets.
type Interrupts interface {
	DisableInterrupts()
	EnableInterrupts()
}

type noopIndicator struct{}

func (noopIndicator) Set(bool) {}
