// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import (
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// trailerBits is the size of the symbol count at the end of a stream.
const trailerBits = 64

// An Encoder writes an adaptive Huffman encoding of a sequence of symbols.
// The encoding is not complete until [Encoder.Close] is called.
//
// Errors are sticky: after a write fails, every later call returns the same error.
type Encoder struct {
	bits   *countingWriter
	tree   *Tree
	width  uint8
	count  uint64
	path   []bool // scratch for writePath
	err    error
	closed bool
}

// NewEncoder returns an Encoder that writes to w.
// If opts is invalid, every method returns the error.
func NewEncoder(w io.Writer, opts *Options) *Encoder {
	width, err := opts.symbolWidth()
	if err != nil {
		return &Encoder{err: err}
	}
	return newEncoder(bitio.NewWriter(w), width)
}

func newEncoder(bw BitWriter, width int) *Encoder {
	return &Encoder{
		bits:  &countingWriter{w: bw},
		tree:  NewTree(width),
		width: uint8(width),
	}
}

// Put encodes s.
// It returns an error wrapping [ErrSymbolRange] if s does not fit in the
// configured width; such an error is not sticky.
func (e *Encoder) Put(s Symbol) error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrClosed
	}
	if !e.tree.inAlphabet(s) {
		return errors.Wrapf(ErrSymbolRange, "ahuff: %d in a %d-bit alphabet", s, e.width)
	}
	var err error
	if c, ok := e.tree.Lookup(s); ok {
		err = e.writePath(c)
	} else {
		err = e.writePath(e.tree.NYT())
		if err == nil {
			err = e.bits.WriteBits(uint64(s), e.width)
		}
	}
	if err != nil {
		e.err = errors.Wrapf(err, "ahuff: writing symbol %d", e.count)
		return e.err
	}
	e.tree.Observe(s)
	e.count++
	return nil
}

// writePath writes the path from the root to c: 0 for left, 1 for right.
func (e *Encoder) writePath(c Cursor) error {
	e.path = e.path[:0]
	for ; !c.IsRoot(); c = c.Parent() {
		e.path = append(e.path, !c.IsLeft())
	}
	for i := len(e.path) - 1; i >= 0; i-- {
		if err := e.bits.WriteBool(e.path[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes each byte of p as a symbol.
// It implements [io.Writer].
func (e *Encoder) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := e.Put(Symbol(b)); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Count returns the number of symbols encoded so far.
func (e *Encoder) Count() uint64 { return e.count }

// Bits returns the number of bits of encoded symbols written so far,
// not counting padding or the trailer.
func (e *Encoder) Bits() uint64 {
	if e.bits == nil {
		return 0
	}
	return e.bits.nbits
}

// Tree returns the encoder's code tree. It must not be modified.
func (e *Encoder) Tree() *Tree { return e.tree }

// Close pads the encoded bits to a byte boundary and writes the trailing
// symbol count. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed || e.err != nil {
		return e.err
	}
	e.closed = true
	if err := e.writeTrailer(); err != nil {
		e.err = errors.Wrap(err, "ahuff: closing")
		return e.err
	}
	log.Debugf("encoded %d symbols in %d bits, %d distinct", e.count, e.bits.nbits, e.tree.Len())
	return nil
}

// writeTrailer writes the count directly to the underlying BitWriter,
// so that it is not included in Bits.
func (e *Encoder) writeTrailer() error {
	w := e.bits.w
	if w == nil {
		return nil
	}
	if _, err := w.Align(); err != nil {
		return err
	}
	if err := w.WriteBits(e.count, trailerBits); err != nil {
		return err
	}
	return w.Close()
}

// EncodedLen returns the number of bytes that encoding syms would produce,
// without producing them.
func EncodedLen(syms []Symbol, opts *Options) (int64, error) {
	width, err := opts.symbolWidth()
	if err != nil {
		return 0, err
	}
	e := newEncoder(nil, width)
	for _, s := range syms {
		if err := e.Put(s); err != nil {
			return 0, err
		}
	}
	if err := e.Close(); err != nil {
		return 0, err
	}
	return int64((e.Bits()+7)/8 + trailerBits/8), nil
}
