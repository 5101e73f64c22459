// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// lnmon dumps LocoNet frames read from a byte stream (a file, or a
// serial device opened by the OS), reporting opcode, length and
// checksum validity per frame. It never interprets the opcode-specific
// payload: the semantics of individual LocoNet commands are a layer
// above this driver's scope.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/usbarmory/loconet/loconet"
)

type options struct {
	Input string `short:"i" long:"input" description:"input file or device (defaults to stdin)" default:"-"`
	Quiet bool   `short:"q" long:"quiet" description:"only print malformed frames"`
}

func main() {
	var opts options

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	in := os.Stdin

	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		defer f.Close()

		in = f
	}

	if err := run(bufio.NewReader(in), os.Stdout, opts.Quiet); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run decodes a raw byte stream into frames using the same length and
// checksum rules as the driver's receive pipeline, reporting each one.
// It resyncs the same way the driver does: a data byte outside a frame is
// dropped, and an opcode byte arriving mid-frame discards the partial
// frame and starts a new one.
func run(r *bufio.Reader, w io.Writer, quiet bool) error {
	var buf []byte

	for {
		b, err := r.ReadByte()

		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if len(buf) == 0 && b&0x80 == 0 {
			continue
		}

		if b&0x80 != 0 {
			buf = buf[:0]
		}

		buf = append(buf, b)

		length, ok := loconet.FrameLength(buf[0], peekSecond(buf), len(buf) > 1)
		if !ok {
			continue
		}

		if len(buf) < length {
			continue
		}

		frame := buf[:length]
		valid := loconet.ChecksumOK(rawFrame(frame))

		if !quiet || !valid {
			fmt.Fprintf(w, "op=%#02x len=%d checksum_ok=%v bytes=% x\n", frame[0], length, valid, frame)
		}

		buf = buf[length:]
	}
}

func peekSecond(buf []byte) byte {
	if len(buf) > 1 {
		return buf[1]
	}

	return 0
}

// rawFrame adapts a plain byte slice onto the byteSource loconet.ChecksumOK
// expects, mirroring the adapter the driver's own tests use.
type rawFrame []byte

func (f rawFrame) Count() int { return len(f) }

func (f rawFrame) Peek(k int) (byte, bool) {
	if k < 0 || k >= len(f) {
		return 0, false
	}

	return f[k], true
}
