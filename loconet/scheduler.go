// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// Mode is the bus-access phase a Controller is in. The start* methods below
// set the timer and Mode together. The one exception is BRG sync expiry:
// OnTimer then sets ModeIdle without arming the timer while the frame is
// written, and the transmit verifier arms it again (CMP backoff or a
// linebreak) when the frame completes or collides.
type Mode int

const (
	// ModeIdle: the line is free and nothing requires the bus; the
	// timer is armed for the 1ms idle delay. Also the mode while a frame
	// is being written after BRG sync, with no timer armed.
	ModeIdle Mode = iota
	// ModeCMPBackoff: waiting out the carrier+master+priority delay
	// before attempting to claim the bus.
	ModeCMPBackoff
	// ModeLinebreak: actively driving a linebreak, either self-
	// initiated (collision) or completing a remote one (framing error).
	ModeLinebreak
	// ModeBRGSync: the baud-rate generator was just realigned; the
	// first byte of a frame is written once this phase expires.
	ModeBRGSync
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeCMPBackoff:
		return "cmp-backoff"
	case ModeLinebreak:
		return "linebreak"
	case ModeBRGSync:
		return "brg-sync"
	default:
		return "invalid"
	}
}

// Delay constants, in microseconds, for each bus-access phase.
const (
	idleDelayUS       = 1000
	carrierMasterUS   = 1560 // 1200us carrier sense + 360us master slot
	prioritySlotMask  = 0x3ff
	linebreakSelfUS   = 900
	linebreakRemoteUS = 300
	brgSyncUS         = 60
)

// startIdleDelay arms the 1ms idle delay and enters ModeIdle.
func (c *Controller) startIdleDelay() {
	c.mode = ModeIdle
	c.indicator().Set(false)
	c.timer.Arm(idleDelayUS)
}

// startCMPDelay arms the randomized carrier+master+priority backoff and
// enters ModeCMPBackoff. The priority component is the low 10 bits of the
// next LFSR draw (0..1023us).
func (c *Controller) startCMPDelay() {
	c.lfsr = nextLFSR(c.lfsr)
	priority := uint32(c.lfsr) & prioritySlotMask

	c.mode = ModeCMPBackoff
	c.indicator().Set(true)
	c.timer.Arm(carrierMasterUS + priority)
}

// startLinebreak disables the serial transmitter, asserts the linebreak
// condition on the line, arms t microseconds and enters ModeLinebreak.
func (c *Controller) startLinebreak(t uint32) {
	if c.brk != nil {
		c.brk.Break(true)
	}

	c.mode = ModeLinebreak
	c.indicator().Set(true)
	c.timer.Arm(t)
}

// startBRGSync arms one bit time (~60us) and enters ModeBRGSync; the first
// byte of the frame is written when this phase expires. The Serial
// interface has no baud-rate generator control, so the generator's phase
// is not reinitialized here.
func (c *Controller) startBRGSync() {
	c.mode = ModeBRGSync
	c.indicator().Set(true)
	c.timer.Arm(brgSyncUS)
}

func (c *Controller) indicator() Indicator {
	if c.led == nil {
		return noopIndicator{}
	}

	return c.led
}
