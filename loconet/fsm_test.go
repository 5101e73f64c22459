// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

import "testing"

// loopback is a single-controller test harness: every byte written to Tx
// is immediately fed back into the controller's own OnRxByte, modeling
// the open-collector bus looping a device's own transmission back through
// its receiver. free reports the simulated line-idle state; tests flip it
// to inject "someone else is talking" conditions.
type loopback struct {
	c        *Controller
	free     bool
	lastArm  uint32
	breaking bool
	lastTx   byte
	// echo, when true, feeds every transmitted byte straight back into
	// the controller's receiver (a real loopback bus with no other
	// traffic). Tests that need to inject a specific byte instead (a
	// collision) leave it false and call c.OnRxByte themselves.
	echo bool
}

func (w *loopback) Tx(b byte) {
	w.lastTx = b

	if w.echo {
		w.c.OnRxByte(b)
	}
}
func (w *loopback) Arm(us uint32)     { w.lastArm = us }
func (w *loopback) Free() bool        { return w.free }
func (w *loopback) Break(active bool) { w.breaking = active }

func newLoopbackController() (*Controller, *loopback) {
	c := &Controller{}
	w := &loopback{c: c, free: true, echo: true}
	c.serial = w
	c.timer = w
	c.line = w
	c.brk = w
	c.Init()

	return c, w
}

// runFrame enqueues frame and drives the controller through the three
// timer expiries that start its transmission (CMP backoff, idle, BRG
// sync); the loopback echo carries the rest of the frame. Callers check
// the resulting queue and mode state themselves.
func runFrame(t *testing.T, c *Controller, w *loopback, frame []byte) {
	t.Helper()

	for _, b := range frame {
		if !c.EnqueueTx(b) {
			t.Fatalf("EnqueueTx(%#x) failed", b)
		}
	}

	// CMP backoff -> idle
	c.OnTimer()
	if c.Mode() != ModeIdle {
		t.Fatalf("after CMP expiry with free line, mode = %v want idle", c.Mode())
	}

	// idle -> stage frame -> BRG sync
	c.OnTimer()
	if c.Mode() != ModeBRGSync {
		t.Fatalf("after idle expiry with TxQueue non-empty, mode = %v want brg-sync", c.Mode())
	}

	// BRG sync -> write first byte, which loops back and drives the
	// rest of the frame via OnRxByte until TxTempQueue drains and CMP
	// restarts.
	c.OnTimer()
}

func TestS1SendFourByteFrame(t *testing.T) {
	c, w := newLoopbackController()
	frame := []byte{0xb0, 0x15, 0x20, 0x4b}

	runFrame(t, c, w, frame)

	if !c.TxQueue.Empty() {
		t.Fatal("TxQueue should be empty after a clean send")
	}

	if !c.TxTempQueue.Empty() {
		t.Fatal("TxTempQueue should be empty after a clean send")
	}

	if !c.RxQueue.Empty() {
		t.Fatal("RxQueue should be empty: self-echo must not surface as a received frame")
	}

	if c.Mode() != ModeCMPBackoff {
		t.Fatalf("mode after a clean send = %v want cmp-backoff", c.Mode())
	}
}

func TestS2CollisionRetransmitsWholeFrame(t *testing.T) {
	c, w := newLoopbackController()
	w.echo = false
	frame := []byte{0xb0, 0x15, 0x20, 0x4b}

	for _, b := range frame {
		c.EnqueueTx(b)
	}

	c.OnTimer() // CMP -> idle
	c.OnTimer() // idle -> stage + BRG sync
	c.OnTimer() // BRG sync -> write 0xb0 (no auto-echo)

	if c.Mode() != ModeIdle {
		t.Fatalf("mode right after BRG sync expiry = %v want idle", c.Mode())
	}

	if w.lastTx != frame[0] {
		t.Fatalf("first byte written to the wire = %#x, want %#x", w.lastTx, frame[0])
	}

	// First byte's echo matches: verifier advances and writes 0x15.
	c.OnRxByte(frame[0])

	if w.lastTx != frame[1] {
		t.Fatalf("second byte written to the wire = %#x, want %#x", w.lastTx, frame[1])
	}

	// Second byte collides: inject a foreign byte instead of our own 0x15.
	c.OnRxByte(0x7f)

	if c.Mode() != ModeLinebreak {
		t.Fatalf("mode after collision = %v want linebreak", c.Mode())
	}

	if w.lastArm != linebreakSelfUS {
		t.Fatalf("linebreak armed for %dus, want %d", w.lastArm, linebreakSelfUS)
	}

	if c.TxTempQueue.Count() != len(frame) {
		t.Fatalf("TxTempQueue should retain the whole frame after collision, count = %d", c.TxTempQueue.Count())
	}

	got, _ := c.TxTempQueue.Peek(0)
	if got != frame[0] {
		t.Fatalf("TxTempQueue should restart from the first byte, peek(0) = %#x", got)
	}

	c.OnTimer() // linebreak -> cmp backoff
	if c.Mode() != ModeCMPBackoff {
		t.Fatalf("mode after linebreak expiry = %v want cmp-backoff", c.Mode())
	}
}

func TestS3ReceiveVariableLengthFrame(t *testing.T) {
	c, _ := newLoopbackController()

	data := []byte{0xe7, 0x0e, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	frame := append(append([]byte{}, data...), Checksum(data))

	if len(frame) != 14 {
		t.Fatalf("test fixture length = %d, want 14", len(frame))
	}

	for _, b := range frame {
		c.OnRxByte(b)
	}

	if !c.RxTempQueue.Empty() {
		t.Fatal("RxTempQueue should be empty once a complete valid frame commits")
	}

	if c.RxQueue.Count() != len(frame) {
		t.Fatalf("RxQueue count = %d, want %d", c.RxQueue.Count(), len(frame))
	}

	for i, want := range frame {
		got, ok := c.RxQueue.Peek(i)
		if !ok || got != want {
			t.Fatalf("RxQueue[%d] = %#x,%v want %#x,true", i, got, ok, want)
		}
	}
}

func TestS4BadChecksumDropsFrame(t *testing.T) {
	c, _ := newLoopbackController()

	for _, b := range []byte{0xb0, 0x15, 0x20, 0x4c} {
		c.OnRxByte(b)
	}

	if !c.RxQueue.Empty() {
		t.Fatal("RxQueue should remain empty when checksum fails")
	}

	if !c.RxTempQueue.Empty() {
		t.Fatal("RxTempQueue should be cleared when checksum fails")
	}
}

func TestS5ResyncOnStrayByte(t *testing.T) {
	c, _ := newLoopbackController()

	for _, b := range []byte{0x42, 0xb0, 0x15, 0x20, 0x7a} {
		c.OnRxByte(b)
	}

	if c.RxQueue.Count() != 4 {
		t.Fatalf("RxQueue count = %d, want 4 (stray leading byte must be dropped)", c.RxQueue.Count())
	}

	got, _ := c.RxQueue.Peek(0)
	if got != 0xb0 {
		t.Fatalf("RxQueue[0] = %#x, want 0xb0", got)
	}
}

func TestFramingErrorRecoversInFlightTxAndAbortsRx(t *testing.T) {
	c, w := newLoopbackController()
	w.echo = false
	frame := []byte{0xb0, 0x15, 0x20, 0x4b}

	for _, b := range frame {
		c.EnqueueTx(b)
	}

	c.OnTimer() // cmp -> idle
	c.OnTimer() // idle -> brg sync
	c.OnTimer() // brg sync -> write first byte

	c.OnRxByte(frame[0]) // first byte echoes correctly, second byte written

	c.OnRxFramingError() // ... but a remote linebreak interrupts before it echoes

	if c.Mode() != ModeLinebreak {
		t.Fatalf("mode after framing error = %v want linebreak", c.Mode())
	}

	if w.lastArm != linebreakRemoteUS {
		t.Fatalf("linebreak armed for %dus, want %d (remote linebreak completion)", w.lastArm, linebreakRemoteUS)
	}

	if c.TxTempQueue.Count() != len(frame) {
		t.Fatalf("TxTempQueue should be restored to the full frame, count = %d", c.TxTempQueue.Count())
	}

	if !c.RxTempQueue.Empty() {
		t.Fatal("RxTempQueue should be cleared on framing error")
	}
}

func TestInitialModeIsCMPBackoff(t *testing.T) {
	c, _ := newLoopbackController()

	if c.Mode() != ModeCMPBackoff {
		t.Fatalf("mode immediately after Init = %v want cmp-backoff", c.Mode())
	}
}

func TestLineBusyStaysInCMPBackoff(t *testing.T) {
	c, w := newLoopbackController()
	w.free = false

	c.OnTimer()

	if c.Mode() != ModeCMPBackoff {
		t.Fatalf("mode with a busy line = %v want cmp-backoff", c.Mode())
	}
}
