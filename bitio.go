// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import "github.com/icza/bitio"

// A BitWriter is where an [Encoder] sends its bits.
// Bits are written most significant first.
// [*bitio.Writer] is the usual implementation.
type BitWriter interface {
	// WriteBool writes a single bit: 1 for true.
	WriteBool(b bool) error
	// WriteBits writes the n low-order bits of r.
	WriteBits(r uint64, n uint8) error
	// Align pads with zero bits to the next byte boundary.
	Align() (skipped uint8, err error)
	// Close aligns and flushes. It does not close the underlying writer.
	Close() error
}

// A BitReader is where a [Decoder] gets its bits.
// [*bitio.Reader] is the usual implementation.
type BitReader interface {
	ReadBool() (bool, error)
	ReadBits(n uint8) (uint64, error)
}

var (
	_ BitWriter = (*bitio.Writer)(nil)
	_ BitReader = (*bitio.Reader)(nil)
)

// A countingWriter counts the bits passing through it, not including
// alignment padding. A countingWriter with a nil BitWriter only counts.
type countingWriter struct {
	w     BitWriter
	nbits uint64
}

func (c *countingWriter) WriteBool(b bool) error {
	c.nbits++
	if c.w == nil {
		return nil
	}
	return c.w.WriteBool(b)
}

func (c *countingWriter) WriteBits(r uint64, n uint8) error {
	c.nbits += uint64(n)
	if c.w == nil {
		return nil
	}
	return c.w.WriteBits(r, n)
}

func (c *countingWriter) Align() (uint8, error) {
	if c.w == nil {
		return uint8((8 - c.nbits%8) % 8), nil
	}
	return c.w.Align()
}

func (c *countingWriter) Close() error {
	if c.w == nil {
		return nil
	}
	return c.w.Close()
}

var _ BitWriter = (*countingWriter)(nil)
