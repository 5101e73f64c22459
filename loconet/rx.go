// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// receive is the frame-reassembly half of the receive pipeline, called once
// TxTempQueue has been found empty (no transmission in progress) by
// OnRxByte.
func (c *Controller) receive(b byte) {
	if b&0x80 != 0 {
		// start-of-frame: resynchronize on any stray bytes.
		c.RxTempQueue.Clear()
		c.RxTempQueue.Enqueue(b)
		return
	}

	c.RxTempQueue.Enqueue(b)

	length, ok := frameLength(&c.RxTempQueue)
	if !ok {
		// only one byte is queued and its length bits select the
		// variable-length escape: a stray data byte with no opcode
		// before it (an opcode alone returns above). Wait for the next
		// byte.
		return
	}

	if c.RxTempQueue.Count() != length {
		return
	}

	if ChecksumOK(&c.RxTempQueue) {
		for !c.RxTempQueue.Empty() {
			v, _ := c.RxTempQueue.Peek(0)
			c.RxQueue.Enqueue(v)
			c.RxTempQueue.Dequeue()
		}
	} else {
		c.RxTempQueue.Clear()
	}
}
