// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import (
	"bytes"
	"encoding/hex"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	data := []byte{0x41, 0x41, 0x42, 0x41}
	for _, part := range [][]byte{data[:2], data[2:]} {
		if n, err := enc.Write(part); err != nil || n != len(part) {
			t.Fatalf("Write(%x) = %d, %v", part, n, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	// 01000001 (raw A), 1 (A), 0 (NYT) 01000010 (raw B), 1 (A), padding, count.
	want := "4190a0" + "0000000000000004"
	if got := hex.EncodeToString(buf.Bytes()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if enc.Count() != 4 || enc.Bits() != 19 {
		t.Errorf("Count, Bits = %d, %d; want 4, 19", enc.Count(), enc.Bits())
	}

	got, err := DecodeSymbols(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []Symbol{0x41, 0x41, 0x42, 0x41}; !slices.Equal(got, want) {
		t.Errorf("decoded %v, want %v", got, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := Encode(&buf, strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("encoded %d symbols", n)
	}
	if got, want := buf.Bytes(), make([]byte, 8); !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
	var out bytes.Buffer
	n, err = Decode(&out, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || out.Len() != 0 {
		t.Errorf("decoded %d symbols, %d bytes", n, out.Len())
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, input := range []string{
		"a",
		"ab",
		"a man a plan a canal panama",
		strings.Repeat("z", 1000),
		strings.Repeat("abcdefgh", 300),
		"\x00\xff\x00\xff\x80",
	} {
		var buf bytes.Buffer
		if _, err := Encode(&buf, strings.NewReader(input)); err != nil {
			t.Fatal(err)
		}
		var out bytes.Buffer
		n, err := Decode(&out, bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("%.20q: %v", input, err)
		}
		if got := out.String(); got != input {
			t.Errorf("got %.20q, want %.20q", got, input)
		}
		if n != uint64(len(input)) {
			t.Errorf("%.20q: decoded %d, want %d", input, n, len(input))
		}
	}
}

func TestEncodeDecodeAllBytes(t *testing.T) {
	input := make([]byte, 256*3)
	for i := range input {
		input[i] = byte(i * 7)
	}
	var buf bytes.Buffer
	if _, err := Encode(&buf, bytes.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if _, err := Decode(&out, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Error("round trip failed")
	}
}

func TestEncodeDecodeSymbols(t *testing.T) {
	for _, width := range []int{1, 2, 5, 8, 12, 17, 20, 32} {
		for _, n := range []int{0, 1, 2, 100, 5000} {
			r := rand.New(rand.NewPCG(uint64(width), uint64(n)))
			syms := make([]Symbol, n)
			for i := range syms {
				syms[i] = randomSymbol(r, width, 1+r.IntN(200))
				if width == 32 && i%7 == 0 {
					syms[i] = r.Uint32()
				}
			}
			opts := &Options{SymbolWidth: width}
			var buf bytes.Buffer
			if err := EncodeSymbols(&buf, syms, opts); err != nil {
				t.Fatal(err)
			}
			got, err := DecodeSymbols(bytes.NewReader(buf.Bytes()), opts)
			if err != nil {
				t.Fatalf("width %d, n %d: %v", width, n, err)
			}
			if !slices.Equal(got, syms) {
				t.Errorf("width %d, n %d: round trip failed", width, n)
			}
			size, err := EncodedLen(syms, opts)
			if err != nil {
				t.Fatal(err)
			}
			if size != int64(buf.Len()) {
				t.Errorf("width %d, n %d: EncodedLen = %d, encoded %d bytes", width, n, size, buf.Len())
			}
		}
	}
}

// The encoder and decoder must build the same tree.
func TestTreesInStep(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	var syms []Symbol
	for range 3000 {
		s := randomSymbol(r, 8, 60)
		syms = append(syms, s)
		if err := enc.Put(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecoder(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range syms {
		got, err := dec.Get()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("#%d: got %d, want %d", i, got, want)
		}
	}
	for _, tr := range []*Tree{enc.Tree(), dec.Tree()} {
		if err := tr.Check(); err != nil {
			t.Fatal(err)
		}
	}
	if e, d := enc.Tree().String(), dec.Tree().String(); e != d {
		t.Errorf("trees differ:\nencoder %s\ndecoder %s", e, d)
	}
	var el, dl bytes.Buffer
	enc.Tree().WriteList(&el)
	dec.Tree().WriteList(&dl)
	if el.String() != dl.String() {
		t.Errorf("lists differ:\nencoder %s\ndecoder %s", el.String(), dl.String())
	}
}

// recordingWriter counts raw symbols and path bits.
type recordingWriter struct {
	countingWriter
	raw, path int
}

func (w *recordingWriter) WriteBool(b bool) error {
	w.path++
	return w.countingWriter.WriteBool(b)
}

func (w *recordingWriter) WriteBits(r uint64, n uint8) error {
	w.raw++
	return w.countingWriter.WriteBits(r, n)
}

func TestRawEmissions(t *testing.T) {
	t.Run("distinct", func(t *testing.T) {
		rw := &recordingWriter{}
		enc := newEncoder(rw, 8)
		for s := range Symbol(256) {
			if err := enc.Put(s); err != nil {
				t.Fatal(err)
			}
		}
		if rw.raw != 256 {
			t.Errorf("got %d raw symbols, want 256", rw.raw)
		}
		if enc.Tree().Len() != 256 {
			t.Errorf("tree has %d symbols", enc.Tree().Len())
		}
	})
	t.Run("identical", func(t *testing.T) {
		const n = 500
		rw := &recordingWriter{}
		enc := newEncoder(rw, 8)
		for range n {
			if err := enc.Put('q'); err != nil {
				t.Fatal(err)
			}
		}
		if rw.raw != 1 || rw.path != n-1 {
			t.Errorf("got %d raw symbols and %d path bits, want 1 and %d", rw.raw, rw.path, n-1)
		}
		if got, want := enc.Bits(), uint64(8+n-1); got != want {
			t.Errorf("got %d bits, want %d", got, want)
		}
	})
}

func TestEncoderErrors(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, &Options{SymbolWidth: 4})
	if err := enc.Put(16); !errors.Is(err, ErrSymbolRange) {
		t.Errorf("got %v, want ErrSymbolRange", err)
	}
	// Range errors don't stick.
	if err := enc.Put(15); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Put(1); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}

	enc = NewEncoder(&buf, &Options{SymbolWidth: 33})
	if err := enc.Put(1); !errors.Is(err, ErrWidth) {
		t.Errorf("got %v, want ErrWidth", err)
	}
	if err := enc.Close(); !errors.Is(err, ErrWidth) {
		t.Errorf("got %v, want ErrWidth", err)
	}
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrShortWrite
	}
	w.n--
	return len(p), nil
}

func TestEncoderWriteError(t *testing.T) {
	enc := NewEncoder(&failWriter{}, nil)
	// bitio buffers through a bufio.Writer, so the error may surface late.
	var err error
	for i := 0; i < 10000 && err == nil; i++ {
		err = enc.Put(Symbol(i % 256))
	}
	if err == nil {
		err = enc.Close()
	}
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("got %v, want ErrShortWrite", err)
	}
	if err2 := enc.Close(); err2 != err {
		t.Errorf("Close after failure returned %v, want %v", err2, err)
	}
}
