// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// stageFrame moves one complete frame from TxQueue into TxTempQueue: the
// head byte (MSB must be set) followed by every subsequent byte whose MSB
// is clear, stopping at TxQueue's first opcode byte or when TxQueue runs
// out. This yields variable-length frame boundaries without an explicit
// marker in TxQueue. Reports whether a frame was staged (false if TxQueue
// was empty).
func (c *Controller) stageFrame() bool {
	if c.TxQueue.Empty() {
		return false
	}

	for {
		b, ok := c.TxQueue.Peek(0)
		if !ok {
			break
		}

		c.TxTempQueue.Enqueue(b)
		c.TxQueue.Dequeue()

		if c.TxQueue.Empty() {
			break
		}

		next, _ := c.TxQueue.Peek(0)
		if next&0x80 != 0 {
			break
		}
	}

	c.TxTempQueue.Commit()

	return true
}

// txHandler writes the staged frame's next byte to the transmit register,
// or starts a full linebreak if the line is no longer free (called after
// BRG sync, the BRG_SYNC phase).
func (c *Controller) txHandler() {
	if !c.line.Free() {
		c.startLinebreak(linebreakSelfUS)
		return
	}

	b, ok := c.TxTempQueue.Peek(0)
	if !ok {
		return
	}

	c.serial.Tx(b)
}

// verifyTx is the receive-ISR half of the transmit pipeline: the serial
// peripheral loops transmitted bytes back through the receiver, so every
// OnRxByte call while TxTempQueue is non-empty is either our own echo
// (advance) or someone else's competing byte (collision).
func (c *Controller) verifyTx(received byte) {
	expected, ok := c.TxTempQueue.Peek(0)
	if !ok {
		return
	}

	if received != expected {
		// Collision: undo whatever bytes of this frame were already
		// verified so the whole frame, not just the tail of it, is
		// retransmitted once the bus is free again.
		c.TxTempQueue.Recover()
		c.startLinebreak(linebreakSelfUS)
		return
	}

	c.TxTempQueue.StageDequeue()

	if c.TxTempQueue.Empty() {
		c.TxTempQueue.Commit()
		c.startCMPDelay()
		return
	}

	next, _ := c.TxTempQueue.Peek(0)
	c.serial.Tx(next)
}
