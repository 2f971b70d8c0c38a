// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/jba/ahuff"
	"github.com/pkg/errors"
)

func TestParse(t *testing.T) {
	for _, test := range []struct {
		args      []string
		in, out   string
		debug     bool
		wantUsage bool
	}{
		{args: []string{"a", "b"}, in: "a", out: "b"},
		{args: []string{"-d", "a", "b"}, in: "a", out: "b", debug: true},
		{args: []string{"-debug", "-dump", "a", "b"}, in: "a", out: "b", debug: true},
		{args: nil, wantUsage: true},
		{args: []string{"a"}, wantUsage: true},
		{args: []string{"a", "b", "c"}, wantUsage: true},
		{args: []string{"-nosuchflag", "a", "b"}, wantUsage: true},
	} {
		c := NewCommand("test", "Test does nothing.")
		c.stderr = &bytes.Buffer{}
		in, out, err := c.Parse(test.args)
		if test.wantUsage {
			if !errors.Is(err, ErrUsage) {
				t.Errorf("%q: got %v, want ErrUsage", test.args, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.args, err)
			continue
		}
		if in != test.in || out != test.out || c.Debug != test.debug {
			t.Errorf("%q: got %q, %q, debug=%t", test.args, in, out, c.Debug)
		}
	}
}

func TestReport(t *testing.T) {
	var stderr bytes.Buffer
	c := NewCommand("test", "Test does nothing.")
	c.stderr = &stderr

	if code := c.report(errors.Wrap(ErrUsage, "want 2 arguments, got 1")); code != 2 {
		t.Errorf("usage error: exit %d, want 2", code)
	}
	if got := stderr.String(); !strings.Contains(got, "Usage:") || !strings.Contains(got, "-dump") {
		t.Errorf("usage message missing from:\n%s", got)
	}

	stderr.Reset()
	if code := c.report(errors.New("boom")); code != 1 {
		t.Errorf("other error: exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("error not reported: %q", stderr.String())
	}

	if _, _, err := c.Parse([]string{"-h"}); err != flag.ErrHelp {
		t.Errorf("-h: got %v, want flag.ErrHelp", err)
	}
}

func TestDumpTree(t *testing.T) {
	var stderr bytes.Buffer
	c := NewCommand("test", "")
	c.stderr = &stderr
	tr := ahuff.NewTree(8)
	tr.Observe('a')
	if err := c.DumpTree(tr); err != nil {
		t.Fatal(err)
	}
	if got, want := stderr.String(), ".1 @ 97:1\n@(0) 97(1) .(1)\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
