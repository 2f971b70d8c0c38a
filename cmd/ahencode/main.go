// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

// Ahencode compresses a file with adaptive Huffman coding.
//
// Usage:
//
//	ahencode [-d] [-dump] [-verify] input output
package main

import (
	"bufio"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/jba/ahuff"
	"github.com/jba/ahuff/internal/cli"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("ahencode")

func main() {
	cmd := cli.NewCommand("ahencode", "Ahencode compresses input into output with adaptive Huffman coding.")
	var verify bool
	cmd.Flags.BoolVar(&verify, "verify", false, "decode output afterwards and check it against input")
	in, out, err := cmd.Parse(os.Args[1:])
	if err != nil {
		cmd.Fail(err)
	}
	if err := run(cmd, in, out, verify); err != nil {
		cmd.Fail(err)
	}
}

func run(cmd *cli.Command, inName, outName string, verify bool) error {
	in, err := os.Open(inName)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()
	out, err := os.Create(outName)
	if err != nil {
		return errors.WithStack(err)
	}

	digest := xxhash.New()
	enc := ahuff.NewEncoder(out, nil)
	_, err = io.Copy(enc, io.TeeReader(bufio.NewReader(in), digest))
	if err == nil {
		err = enc.Close()
	}
	if cerr := out.Close(); err == nil {
		err = errors.WithStack(cerr)
	}
	if err != nil {
		return errors.Wrapf(err, "encoding %s", inName)
	}

	size, err := cli.FileSize(outName)
	if err != nil {
		return err
	}
	cli.Report("encoded", enc.Count(), int64(enc.Count()), size)
	if cmd.Dump {
		if err := cmd.DumpTree(enc.Tree()); err != nil {
			return err
		}
	}
	if verify {
		return verifyFile(outName, digest.Sum64(), enc.Count())
	}
	return nil
}

// verifyFile decodes the named file and checks that it matches the input's
// length and xxhash64 digest.
func verifyFile(name string, sum, count uint64) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	digest := xxhash.New()
	n, err := ahuff.Decode(digest, f)
	if err != nil {
		return errors.Wrapf(err, "verifying %s", name)
	}
	if n != count || digest.Sum64() != sum {
		return errors.Errorf("verifying %s: decoded %d bytes with digest %016x, want %d bytes with digest %016x",
			name, n, digest.Sum64(), count, sum)
	}
	log.Infof("verified %s: xxhash64 %016x", name, sum)
	return nil
}
