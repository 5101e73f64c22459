// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package simwire provides a discrete-event simulation of a shared
// LocoNet bus for exercising loconet.Controller instances outside of
// GOOS=tamago: every transmitted byte is delivered to every attached
// controller (the way an open-collector multi-drop bus delivers a byte to
// every listener, sender included), and the bus is modeled as busy for
// one byte time per transmitted byte (so a whole frame's duration, even
// though its bytes are delivered at one virtual instant) or for a
// linebreak, so that a second contender's CMP
// backoff correctly observes the line as occupied. It is a MAC-layer
// model: it does not attempt to reproduce bit-level collision physics,
// which the unit tests in package loconet already cover by injecting a
// mismatching echo directly.
package simwire

import "github.com/usbarmory/loconet/loconet"

// byteTimeUS is one LocoNet byte's time on the wire: 10 bits (start + 8
// data + stop) at 16,666 baud.
const byteTimeUS = 600

// Node is one device attached to a Wire.
type Node struct {
	ID         int
	Controller *loconet.Controller

	wire     *Wire
	deadline uint64
	pending  bool
}

// Wire is a shared LocoNet bus simulator. The zero value is not usable;
// construct with NewWire.
type Wire struct {
	now       uint64
	busyUntil uint64
	nodes     []*Node
}

// NewWire constructs an empty, initially idle bus.
func NewWire() *Wire {
	return &Wire{}
}

// Attach creates a Node bound to a fresh loconet.Controller wired to this
// bus, initializes it (entering CMP backoff) and registers
// it to receive every byte any node transmits.
func (w *Wire) Attach(id int) *Node {
	n := &Node{ID: id, wire: w}
	io := &nodeIO{node: n}
	n.Controller = loconet.New(io, io, io, io, nil, nil)
	w.nodes = append(w.nodes, n)
	n.Controller.Init()

	return n
}

// Now returns the simulator's current virtual time, in microseconds.
func (w *Wire) Now() uint64 {
	return w.now
}

// Step advances the simulation to the earliest pending timer deadline
// across all attached nodes and delivers that expiry. It reports false if
// no node has a pending timer (which never happens once every node has
// been through Init, since every bus-access phase rearms the timer).
func (w *Wire) Step() bool {
	var next *Node

	for _, n := range w.nodes {
		if !n.pending {
			continue
		}

		if next == nil || n.deadline < next.deadline {
			next = n
		}
	}

	if next == nil {
		return false
	}

	w.now = next.deadline
	next.pending = false
	next.Controller.OnTimer()

	return true
}

// Run calls Step until it returns false or n steps have been taken,
// whichever comes first.
func (w *Wire) Run(n int) {
	for i := 0; i < n; i++ {
		if !w.Step() {
			return
		}
	}
}

// nodeIO adapts a Node onto the loconet.Serial/Timer/LineSense/
// LinebreakDriver interfaces, routing every transmitted byte onto the
// shared Wire.
type nodeIO struct {
	node *Node
}

func (io *nodeIO) Arm(us uint32) {
	io.node.deadline = io.node.wire.now + uint64(us)
	io.node.pending = true
}

func (io *nodeIO) Free() bool {
	return io.node.wire.now >= io.node.wire.busyUntil
}

func (io *nodeIO) Break(active bool) {
	if active {
		io.node.wire.busyUntil = io.node.wire.now + 900
	}
}

// Tx delivers b to every listener before the sender's own self-echo. The
// sender's verifier may synchronously chain a further Tx call for the
// next byte of the frame (see loconet's transmit pipeline): delivering to
// listeners first keeps each listener's byte order correct despite that
// recursion, since the recursive call repeats the same listeners-then-self
// order for the next byte.
func (io *nodeIO) Tx(b byte) {
	w := io.node.wire

	if w.busyUntil > w.now {
		w.busyUntil += byteTimeUS
	} else {
		w.busyUntil = w.now + byteTimeUS
	}

	for _, n := range w.nodes {
		if n != io.node {
			n.Controller.OnRxByte(b)
		}
	}

	io.node.Controller.OnRxByte(b)
}
