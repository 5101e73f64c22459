// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// Controller is a single LocoNet driver instance: the whole shared mutable
// surface plus the hardware collaborators it drives. It
// replaces the module-level globals of the original driver (lnTxQueue,
// lnRxQueue, LNCONbits, lastRandomValue, ...) with fields on one owned
// value; interrupt handlers are routed to its OnTimer/OnRxByte/
// OnRxFramingError methods instead of bare ISR functions.
//
// All fields below this point are mutated only from OnTimer/OnRxByte/
// OnRxFramingError (i.e. only from interrupt context). The foreground must
// only call EnqueueTx and DequeueRx.
type Controller struct {
	TxQueue     Ring
	TxTempQueue Ring
	RxQueue     Ring
	RxTempQueue Ring

	mode Mode
	lfsr uint16

	serial Serial
	timer  Timer
	line   LineSense
	brk    LinebreakDriver
	irq    Interrupts
	led    Indicator
}

// New constructs a Controller bound to the given hardware collaborators.
// brk and led may be nil: without a LinebreakDriver, OnTimer's linebreak
// phase still times correctly but never actually asserts the break
// condition on the wire, so brk should normally be supplied; led is
// optional diagnostics only.
func New(serial Serial, timer Timer, line LineSense, brk LinebreakDriver, irq Interrupts, led Indicator) *Controller {
	return &Controller{
		serial: serial,
		timer:  timer,
		line:   line,
		brk:    brk,
		irq:    irq,
		led:    led,
	}
}

// Init resets the four queues, seeds the LFSR and enters CMP backoff, so
// the driver does not preempt traffic already on the bus when it starts.
// Corresponds to ln_init / lnInitIsr in the original PIC18 firmware.
func (c *Controller) Init() {
	c.TxQueue.Clear()
	c.TxTempQueue.Clear()
	c.RxQueue.Clear()
	c.RxTempQueue.Clear()

	c.lfsr = defaultLFSRSeed
	c.startCMPDelay()
}

// Mode reports the current bus-access phase.
func (c *Controller) Mode() Mode {
	return c.mode
}

// EnqueueTx pushes one byte onto TxQueue for later transmission. The
// caller is responsible for pushing a complete, well-formed frame (opcode
// with MSB set, data bytes with MSB clear, trailing checksum byte making
// the frame's XOR equal 0xFF). Returns false if TxQueue is full.
func (c *Controller) EnqueueTx(b byte) bool {
	c.disableInterrupts()
	defer c.enableInterrupts()

	return c.TxQueue.Enqueue(b)
}

// DequeueRx pops one byte from RxQueue. Callers reassemble frames using
// the same MSB convention used to build them.
func (c *Controller) DequeueRx() (b byte, ok bool) {
	c.disableInterrupts()
	defer c.enableInterrupts()

	b, ok = c.RxQueue.Peek(0)
	if !ok {
		return 0, false
	}

	c.RxQueue.Dequeue()

	return b, true
}

func (c *Controller) disableInterrupts() {
	if c.irq != nil {
		c.irq.DisableInterrupts()
	}
}

func (c *Controller) enableInterrupts() {
	if c.irq != nil {
		c.irq.EnableInterrupts()
	}
}

// OnTimer is the one-shot timer's expiry interrupt entry point. It must be
// called with interrupts already masked with respect to itself; it does not
// mask OnRxByte/OnRxFramingError, which the platform guarantees do not nest
// with it.
func (c *Controller) OnTimer() {
	switch c.mode {
	case ModeIdle:
		switch {
		case !c.line.Free():
			c.startCMPDelay()
		case !c.TxTempQueue.Empty():
			c.startBRGSync()
		case c.stageFrame():
			c.startBRGSync()
		default:
			c.startIdleDelay()
		}
	case ModeCMPBackoff:
		if c.line.Free() {
			c.startIdleDelay()
		} else {
			c.startCMPDelay()
		}
	case ModeLinebreak:
		if c.brk != nil {
			c.brk.Break(false)
		}

		c.startCMPDelay()
	case ModeBRGSync:
		c.mode = ModeIdle
		c.txHandler()
	}
}

// OnRxByte is the serial receiver's "byte available" interrupt entry
// point. It dispatches to the transmit verifier while a frame is staged
// for transmission, otherwise to the receive pipeline.
func (c *Controller) OnRxByte(b byte) {
	if !c.TxTempQueue.Empty() {
		c.verifyTx(b)
		return
	}

	c.receive(b)
	c.startCMPDelay()
}

// OnRxFramingError is the serial receiver's framing-error interrupt entry
// point, raised when a remote linebreak is detected. It is treated as a
// collision against any in-flight transmission and as an abort of any
// in-flight reception.
func (c *Controller) OnRxFramingError() {
	c.TxTempQueue.Recover()
	c.RxTempQueue.Clear()
	c.startLinebreak(linebreakRemoteUS)
}
