// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import (
	"encoding/binary"
	"io"
	"math/bits"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// A Decoder decodes a stream written by an [Encoder].
type Decoder struct {
	bits      BitReader
	tree      *Tree
	width     uint8
	count     uint64
	remaining uint64
	err       error
}

// NewDecoder returns a Decoder for the stream in r, which must implement
// [io.Seeker]. The stream runs from r's current offset to its end.
//
// NewDecoder reads the symbol count from the end of the stream, then seeks
// back to where r was.
func NewDecoder(r io.Reader, opts *Options) (*Decoder, error) {
	width, err := opts.symbolWidth()
	if err != nil {
		return nil, err
	}
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, errors.Wrapf(ErrNotSeekable, "ahuff: %T", r)
	}
	count, payload, err := readTrailer(rs)
	if err != nil {
		return nil, err
	}
	if !plausible(count, payload, width) {
		return nil, errors.Wrapf(ErrTruncated, "ahuff: count %d does not fit %d bytes of %d-bit symbols", count, payload, width)
	}
	log.Debugf("stream holds %d symbols in %d bytes", count, payload)
	return newDecoder(bitio.NewReader(io.LimitReader(rs, payload)), width, count), nil
}

func newDecoder(br BitReader, width int, count uint64) *Decoder {
	return &Decoder{
		bits:      br,
		tree:      NewTree(width),
		width:     uint8(width),
		count:     count,
		remaining: count,
	}
}

// readTrailer returns the symbol count at the end of rs and the number of
// bytes that precede it, starting from the current offset.
// It leaves rs at its original offset.
func readTrailer(rs io.ReadSeeker) (count uint64, payload int64, err error) {
	const size = trailerBits / 8

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrNotSeekable, "ahuff: %v", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrNotSeekable, "ahuff: %v", err)
	}
	if end-start < size {
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return 0, 0, errors.WithStack(err)
		}
		return 0, 0, errors.Wrapf(ErrTruncated, "ahuff: %d-byte stream", end-start)
	}
	if _, err := rs.Seek(end-size, io.SeekStart); err != nil {
		return 0, 0, errors.WithStack(err)
	}
	var buf [size]byte
	if _, err := io.ReadFull(rs, buf[:]); err != nil {
		return 0, 0, errors.Wrap(err, "ahuff: reading trailer")
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return 0, 0, errors.WithStack(err)
	}
	return binary.BigEndian.Uint64(buf[:]), end - size - start, nil
}

// plausible reports whether count symbols of the given width could have been
// encoded in n bytes. It catches a missing or damaged trailer before decoding starts.
func plausible(count uint64, n int64, width int) bool {
	if count == 0 {
		return n == 0
	}
	nbits := uint64(n) * 8
	// The first symbol is a bare raw value. Every later one has a path of at
	// least one bit, and no path is longer than the number of distinct symbols.
	if count > nbits || uint64(width)+count-1 > nbits {
		return false
	}
	distinct := count
	if a := uint64(1) << width; distinct > a {
		distinct = a
	}
	// The first symbol costs exactly width bits, since the NYT leaf starts as the root.
	hi, lo := bits.Mul64(count-1, distinct+uint64(width))
	lo, carry := bits.Add64(lo, uint64(width), 0)
	if hi != 0 || carry != 0 {
		return true
	}
	return uint64(n) <= lo/8+min(lo%8, 1)
}

// Count returns the number of symbols in the stream.
func (d *Decoder) Count() uint64 { return d.count }

// Remaining returns the number of symbols not yet decoded.
func (d *Decoder) Remaining() uint64 { return d.remaining }

// Tree returns the decoder's code tree. It must not be modified.
func (d *Decoder) Tree() *Tree { return d.tree }

// Get decodes the next symbol.
// It returns [io.EOF] when all symbols have been decoded.
// Errors other than io.EOF are sticky.
func (d *Decoder) Get() (Symbol, error) {
	if d.err != nil {
		return 0, d.err
	}
	if d.remaining == 0 {
		return 0, io.EOF
	}
	c := d.tree.Root()
	for !c.IsLeaf() {
		right, err := d.bits.ReadBool()
		if err != nil {
			return 0, d.fail(err)
		}
		if right {
			c = c.Right()
		} else {
			c = c.Left()
		}
	}
	s := c.Symbol()
	if c.IsNYT() {
		u, err := d.bits.ReadBits(d.width)
		if err != nil {
			return 0, d.fail(err)
		}
		s = Symbol(u)
		if _, ok := d.tree.Lookup(s); ok {
			d.err = errors.Wrapf(ErrCorrupt, "ahuff: symbol %d of %d: %d is not new", d.count-d.remaining, d.count, s)
			return 0, d.err
		}
	}
	d.tree.Observe(s)
	d.remaining--
	return s, nil
}

// fail records a read error for the symbol being decoded.
// Running out of bits before the count is reached means the stream is corrupt.
func (d *Decoder) fail(err error) error {
	n := d.count - d.remaining
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = errors.Wrapf(ErrCorrupt, "ahuff: symbol %d of %d: out of data", n, d.count)
	} else {
		d.err = errors.Wrapf(err, "ahuff: symbol %d of %d", n, d.count)
	}
	return d.err
}

// Read decodes symbols into p, one byte per symbol.
// It implements [io.Reader], and requires a symbol width of at most 8.
func (d *Decoder) Read(p []byte) (int, error) {
	if d.width > 8 {
		return 0, errors.Errorf("ahuff: cannot read %d-bit symbols as bytes", d.width)
	}
	for i := range p {
		s, err := d.Get()
		if err != nil {
			return i, err
		}
		p[i] = byte(s)
	}
	return len(p), nil
}
