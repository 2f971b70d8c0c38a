// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

// Package ahuff implements one-pass adaptive Huffman coding.
//
// The code tree is never transmitted. The [Encoder] and [Decoder] each start
// from a tree holding only the not-yet-transmitted (NYT) leaf and update it
// identically after every symbol, so the encoded stream holds only path bits,
// the raw value of each symbol the first time it appears, and a trailing
// 64-bit big-endian symbol count.
//
// Because the count is at the end of the stream, a [Decoder] needs an input
// that can seek.
package ahuff

import (
	"io"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("ahuff")

func init() {
	// Quiet unless a program installs its own backend.
	logging.SetLevel(logging.WARNING, "ahuff")
}

// A Symbol is a value in the alphabet being coded. With the default
// options it is a byte.
type Symbol = uint32

// MaxSymbolWidth is the largest supported number of bits in a [Symbol].
const MaxSymbolWidth = 32

// Options configure an [Encoder] or [Decoder]. A nil *Options uses the defaults.
// Encoder and decoder must agree on the options; they are not recorded in the stream.
type Options struct {
	// SymbolWidth is the number of bits in each symbol, from 1 to [MaxSymbolWidth].
	// Symbols must be less than 1<<SymbolWidth.
	// Zero means 8.
	SymbolWidth int
}

func (o *Options) symbolWidth() (int, error) {
	if o == nil || o.SymbolWidth == 0 {
		return 8, nil
	}
	if o.SymbolWidth < 1 || o.SymbolWidth > MaxSymbolWidth {
		return 0, errors.Wrapf(ErrWidth, "ahuff: width %d", o.SymbolWidth)
	}
	return o.SymbolWidth, nil
}

var (
	// ErrTruncated is returned by [NewDecoder] when the input is too short
	// to hold the trailing symbol count.
	ErrTruncated = errors.New("stream shorter than trailer")

	// ErrCorrupt is returned by [Decoder.Get] when the encoded bits run out
	// before the declared number of symbols, or do not describe a valid
	// sequence of symbols.
	ErrCorrupt = errors.New("corrupt stream")

	// ErrNotSeekable is returned by [NewDecoder] when it cannot seek its input
	// to find the trailing symbol count.
	ErrNotSeekable = errors.New("input is not seekable")

	// ErrSymbolRange is returned by [Encoder.Put] for a symbol that does not
	// fit in the configured width.
	ErrSymbolRange = errors.New("symbol out of range")

	// ErrClosed is returned when writing to a closed [Encoder].
	ErrClosed = errors.New("encoder closed")

	// ErrWidth reports an invalid [Options.SymbolWidth].
	ErrWidth = errors.New("invalid symbol width")
)

// Encode reads bytes from r until EOF and writes their adaptive Huffman
// encoding to w. It returns the number of bytes encoded.
func Encode(w io.Writer, r io.Reader) (uint64, error) {
	e := NewEncoder(w, nil)
	if _, err := io.Copy(e, r); err != nil {
		return e.Count(), err
	}
	return e.Count(), e.Close()
}

// Decode decodes the stream in r, which must have been produced by [Encode],
// and writes the bytes to w. It returns the number of bytes decoded.
// The stream must extend to the end of r, and r must implement [io.Seeker].
func Decode(w io.Writer, r io.Reader) (uint64, error) {
	d, err := NewDecoder(r, nil)
	if err != nil {
		return 0, err
	}
	_, err = io.Copy(w, d)
	return d.Count() - d.Remaining(), err
}

// EncodeSymbols writes the encoding of syms to w.
func EncodeSymbols(w io.Writer, syms []Symbol, opts *Options) error {
	e := NewEncoder(w, opts)
	for _, s := range syms {
		if err := e.Put(s); err != nil {
			return err
		}
	}
	return e.Close()
}

// DecodeSymbols decodes the entire stream in r.
func DecodeSymbols(r io.Reader, opts *Options) ([]Symbol, error) {
	d, err := NewDecoder(r, opts)
	if err != nil {
		return nil, err
	}
	// Don't trust the count for the allocation; a corrupt trailer could be huge.
	syms := make([]Symbol, 0, min(d.Count(), 1<<16))
	for d.Remaining() > 0 {
		s, err := d.Get()
		if err != nil {
			return syms, err
		}
		syms = append(syms, s)
	}
	return syms, nil
}
