// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

// Package cli holds what the ahencode and ahdecode programs share:
// flag handling, logging setup and reporting.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jba/ahuff"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var log = logging.MustGetLogger("cli")

// ErrUsage is wrapped by errors from [Command.Parse] that call for a usage message.
var ErrUsage = errors.New("usage")

// A Command is one of the codec programs. Both take an input file and
// an output file, plus flags.
type Command struct {
	Name    string
	Summary string
	Flags   *flag.FlagSet

	Debug bool // log at DEBUG rather than INFO
	Dump  bool // print the final code tree to stderr

	stderr  io.Writer
	leveled logging.LeveledBackend
}

// NewCommand returns a Command with the flags common to both programs.
// Callers may add flags before calling Parse.
func NewCommand(name, summary string) *Command {
	c := &Command{Name: name, Summary: summary, stderr: os.Stderr}
	c.Flags = flag.NewFlagSet(name, flag.ContinueOnError)
	c.Flags.SetOutput(io.Discard)
	c.Flags.BoolVar(&c.Debug, "debug", false, "log debugging output")
	c.Flags.BoolVar(&c.Debug, "d", false, "shorthand for -debug")
	c.Flags.BoolVar(&c.Dump, "dump", false, "print the final code tree and node list to stderr")
	return c
}

// Parse parses the command line and starts logging.
// It returns the input and output file names.
func (c *Command) Parse(args []string) (in, out string, err error) {
	if err := c.Flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return "", "", err
		}
		return "", "", errors.Wrap(ErrUsage, err.Error())
	}
	if n := c.Flags.NArg(); n != 2 {
		return "", "", errors.Wrapf(ErrUsage, "want 2 arguments, got %d", n)
	}
	c.startLogging()
	return c.Flags.Arg(0), c.Flags.Arg(1), nil
}

func (c *Command) startLogging() {
	backend := logging.NewLogBackend(c.stderr, c.Name+": ", 0)
	formatter := logging.MustStringFormatter("%{level:8s} %{module:-10s} | %{message}")
	formatted := logging.NewBackendFormatter(backend, formatter)
	c.leveled = logging.AddModuleLevel(formatted)
	c.leveled.SetLevel(logging.INFO, "")
	if c.Debug {
		c.leveled.SetLevel(logging.DEBUG, "")
	}
	logging.SetBackend(c.leveled)
}

// Usage writes a usage message to w.
func (c *Command) Usage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n  %s [flags] input output\n\n%s\n\nFlags:\n", c.Name, c.Summary)
	c.Flags.SetOutput(w)
	c.Flags.PrintDefaults()
	c.Flags.SetOutput(io.Discard)
}

// Fail reports err and exits. Usage errors print the usage message and
// exit with status 2; a help request exits 0; anything else exits 1.
func (c *Command) Fail(err error) {
	os.Exit(c.report(err))
}

func (c *Command) report(err error) int {
	switch {
	case err == flag.ErrHelp:
		c.Usage(os.Stdout)
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(c.stderr, "%s: %v\n", c.Name, err)
		c.Usage(c.stderr)
		return 2
	default:
		if c.leveled == nil {
			fmt.Fprintf(c.stderr, "%s: %v\n", c.Name, err)
		} else {
			log.Errorf("%v", err)
		}
		return 1
	}
}

// Report logs a summary of a finished run, with digits grouped for reading.
func Report(verb string, symbols uint64, inBytes, outBytes int64) {
	p := message.NewPrinter(language.English)
	msg := p.Sprintf("%s %d symbols: %d bytes in, %d bytes out", verb, symbols, inBytes, outBytes)
	if inBytes > 0 {
		msg += p.Sprintf(" (%.1f%%)", 100*float64(outBytes)/float64(inBytes))
	}
	log.Infof("%s", msg)
}

// DumpTree writes t to the command's standard error.
func (c *Command) DumpTree(t *ahuff.Tree) error {
	if err := t.WriteTree(c.stderr); err != nil {
		return err
	}
	return t.WriteList(c.stderr)
}

// FileSize returns the size of the named file.
func FileSize(name string) (int64, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}
