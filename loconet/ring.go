// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loconet

// Capacity is the fixed size, in bytes, of every queue a Controller owns.
const Capacity = 128

// Ring is a fixed-capacity, order-preserving FIFO of bytes. It does no
// locking of its own: Enqueue and Dequeue both update count, so a Ring
// shared between the foreground and an ISR needs interrupts masked around
// the foreground call (see Controller.EnqueueTx/DequeueRx).
//
// Count is tracked explicitly rather than derived from head==tail so that
// an empty and a completely full ring can be told apart.
//
// Transmission staging needs to undo a run of Dequeue calls without
// re-copying bytes: head is therefore split into a committed head (where
// transmission began, which Recover moves the live head back to) and the
// live head used by Dequeue/Peek. Plain producer/consumer use (Rx queues, TxQueue) never calls
// Recover and behaves as a normal ring buffer.
type Ring struct {
	buf       [Capacity]byte
	head      int
	committed int
	tail      int
	count     int
}

// Empty reports whether the ring holds no bytes.
func (r *Ring) Empty() bool {
	return r.count == 0
}

// Full reports whether the ring has no room for another byte.
func (r *Ring) Full() bool {
	return r.count == Capacity
}

// Count returns the number of bytes currently queued.
func (r *Ring) Count() int {
	return r.count
}

// Enqueue appends b to the tail. It fails (returns false) if the ring is
// full; it never overwrites.
func (r *Ring) Enqueue(b byte) bool {
	if r.Full() {
		return false
	}

	r.buf[r.tail] = b
	r.tail = (r.tail + 1) % Capacity
	r.count++

	return true
}

// Dequeue advances past the head byte, returning false if the ring is
// empty. Callers that need the byte's value must Peek(0) first.
func (r *Ring) Dequeue() bool {
	if r.Empty() {
		return false
	}

	r.head = (r.head + 1) % Capacity
	r.count--
	r.committed = r.head

	return true
}

// Peek returns the byte at logical offset k from the head without removing
// it. The second return value is false if offset k is not currently queued.
func (r *Ring) Peek(k int) (byte, bool) {
	if k < 0 || k >= r.count {
		return 0, false
	}

	return r.buf[(r.head+k)%Capacity], true
}

// Clear empties the ring.
func (r *Ring) Clear() {
	r.head = 0
	r.committed = 0
	r.tail = 0
	r.count = 0
}

// StageDequeue removes the head byte without committing it: the byte is
// gone from Peek/Dequeue's point of view, but Recover can still restore it.
// This is how a byte is considered "consumed" once it has been verified on
// the wire (see Controller's transmit verifier) while still leaving a
// window for Recover to undo the whole in-flight frame on collision.
func (r *Ring) StageDequeue() bool {
	if r.Empty() {
		return false
	}

	r.head = (r.head + 1) % Capacity
	r.count--

	return true
}

// Commit advances the committed head to the live head, making the current
// Recover point permanent. Call once a staged frame is fully and
// successfully transmitted.
func (r *Ring) Commit() {
	r.committed = r.head
}

// Recover undoes every StageDequeue performed since the last Commit/Clear,
// restoring the ring to the state it had before the in-progress frame began
// transmitting. It is the inverse of the staging performed while a frame is
// retransmitted after a collision or linebreak. Calling Recover when no
// staging has happened is a no-op.
func (r *Ring) Recover() {
	r.count += diff(r.committed, r.head)
	r.head = r.committed
}

func diff(committed, head int) int {
	d := head - committed
	if d < 0 {
		d += Capacity
	}

	return d
}
