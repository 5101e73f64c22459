// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
//go:build tamago

// Package usbarmory wires a loconet.Controller to the USB armory Mk II's
// second EUSART, a comparator-output GPIO for line sensing and a general
// purpose timer, the external collaborators the core driver leaves to the
// platform.
package usbarmory

import (
	"github.com/usbarmory/tamago/arm"
	"github.com/usbarmory/tamago/soc/nxp/gpio"
	"github.com/usbarmory/tamago/soc/nxp/imx6ul"
	"github.com/usbarmory/tamago/soc/nxp/uart"

	"github.com/usbarmory/loconet/loconet"
	"github.com/usbarmory/loconet/loconet/internal/reg"
)

// LocoNetBaudrate is the BRG-derived baud rate required on the wire:
// ((F_osc/baud)/16)-1 = 119 at F_osc=32MHz.
const LocoNetBaudrate = 16666

// Pin assignments on the USB armory Mk II LocoNet expansion header.
const (
	// comparator output, line-idle sense
	lineSensePin = 7
	// TX drive, asserted low during a linebreak (self-initiated or
	// completing a remote one)
	txDrivePin = 8
)

// New configures EUSART2 for LocoNet (16,666 baud, inverted TX as
// required by the bus's open-collector signalling) and returns a
// loconet.Controller ready for Init. The caller still owns routing the
// board's timer and EUSART interrupts to the returned Controller's
// OnTimer/OnRxByte/OnRxFramingError methods: tamago boards vary in how
// interrupt vectors are wired, and the core driver leaves interrupt
// priority wiring out of this driver's scope.
func New() *loconet.Controller {
	u := imx6ul.UART2
	u.Baudrate = LocoNetBaudrate
	u.Init()

	line, err := imx6ul.GPIO1.Init(lineSensePin)
	if err != nil {
		panic(err)
	}
	line.In()

	drive, err := imx6ul.GPIO1.Init(txDrivePin)
	if err != nil {
		panic(err)
	}
	drive.Out()

	t := newGPT()

	return loconet.New(
		&serial{u: u},
		t,
		&lineSense{pin: line},
		&linebreak{u: u, pin: drive},
		cpu{imx6ul.ARM},
		newLED(),
	)
}

type serial struct {
	u *uart.UART
}

func (s *serial) Tx(b byte) {
	s.u.Tx(b)
}

type lineSense struct {
	pin *gpio.Pin
}

// Free reports the comparator-derived line-idle condition (originally
// PORTCbits.RC7 && BAUDCONbits.RCIDL). Only the comparator half of
// that condition is read here: OnRxByte never calls Free, and the driver
// restarts its CMP backoff on every byte it receives outside a
// transmission, so Free is consulted only on timer expiry.
func (l *lineSense) Free() bool {
	return l.pin.Value()
}

type linebreak struct {
	u   *uart.UART
	pin *gpio.Pin
}

func (lb *linebreak) Break(active bool) {
	if active {
		lb.u.Disable()
		lb.pin.Low()
	} else {
		lb.pin.High()
		lb.u.Enable()
	}
}

// cpu adapts imx6ul.ARM onto loconet.Interrupts. The driver only ever
// masks interrupts globally around foreground queue access (EnqueueTx,
// DequeueRx), which is coarser than masking the timer and EUSART2
// sources individually but always correct, since the foreground critical
// sections are short.
type cpu struct {
	*arm.CPU
}

// gpt is a minimal one-shot general purpose timer driver, in the register
// shape of imx6/timer.go: a base address, register addresses resolved by
// newGPT, which enables a free-running counter that Arm compares against a
// rolling deadline register. Unlike the board's ARM system-counter timer (which
// drives the Go runtime's own nanotime), this one is a dedicated,
// application-owned one-shot used only by the LocoNet driver.
type gpt struct {
	base uint32
	cr   uint32
	sr   uint32
	ocr1 uint32
	cnt  uint32
}

const (
	gptBase = 0x02098000
	gptCR   = 0x00
	gptSR   = 0x08
	gptOCR1 = 0x10
	gptCNT  = 0x24

	gptCR_EN  = 0
	gptSR_OF1 = 0
)

func newGPT() *gpt {
	t := &gpt{
		base: gptBase,
		cr:   gptBase + gptCR,
		sr:   gptBase + gptSR,
		ocr1: gptBase + gptOCR1,
		cnt:  gptBase + gptCNT,
	}

	reg.Set(t.cr, gptCR_EN)

	return t
}

// Arm programs a one-shot compare interrupt microseconds from now,
// assuming a 1MHz GPT input clock (1:8 prescaler fed by F_osc/4 at
// F_osc=32MHz).
func (t *gpt) Arm(microseconds uint32) {
	now := reg.Read(t.cnt)
	reg.Write(t.ocr1, now+microseconds)
	reg.Set(t.sr, gptSR_OF1)
}
