// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

// Ahdecode decompresses a file written by ahencode.
// The input must be a regular file, since the symbol count is at its end.
//
// Usage:
//
//	ahdecode [-d] [-dump] input output
package main

import (
	"bufio"
	"io"
	"os"

	"github.com/jba/ahuff"
	"github.com/jba/ahuff/internal/cli"
	"github.com/pkg/errors"
)

func main() {
	cmd := cli.NewCommand("ahdecode", "Ahdecode decompresses input, written by ahencode, into output.")
	in, out, err := cmd.Parse(os.Args[1:])
	if err != nil {
		cmd.Fail(err)
	}
	if err := run(cmd, in, out); err != nil {
		cmd.Fail(err)
	}
}

func run(cmd *cli.Command, inName, outName string) error {
	in, err := os.Open(inName)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()
	dec, err := ahuff.NewDecoder(in, nil)
	if err != nil {
		return errors.Wrapf(err, "reading %s", inName)
	}

	out, err := os.Create(outName)
	if err != nil {
		return errors.WithStack(err)
	}
	w := bufio.NewWriter(out)
	n, err := io.Copy(w, dec)
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = errors.WithStack(cerr)
	}
	if err != nil {
		return errors.Wrapf(err, "decoding %s", inName)
	}

	size, err := cli.FileSize(inName)
	if err != nil {
		return err
	}
	cli.Report("decoded", dec.Count(), size, n)
	if cmd.Dump {
		return cmd.DumpTree(dec.Tree())
	}
	return nil
}
