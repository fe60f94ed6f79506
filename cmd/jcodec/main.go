// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Program jcodec formats and checks JSON text. Input may use the permissive
// superset of the grammar, with comments, unquoted object keys, single-quoted
// strings, trailing commas and hexadecimal numbers, unless -strict is set.
//
// Usage:
//
//	jcodec fmt [-compact] [-strict] [-v] [file ...]
//	jcodec check [-strict] [-v] [file ...]
//
// The fmt command rewrites each value of its input in canonical form: object
// keys keep their order, strings are double-quoted, and numbers are written
// in decimal. The check command reports whether its input is well-formed.
//
// If no file is given, or a file is "-", input is read from stdin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/creachadair/jcodec"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet("jcodec "+cmd, flag.ExitOnError)
	verbose := fs.Bool("v", false, "Enable verbose logging")
	strict := fs.Bool("strict", false, "Accept only the standard grammar")
	compact := new(bool)
	switch cmd {
	case "fmt":
		compact = fs.Bool("compact", false, "Write compact output without whitespace")
	case "check":
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "jcodec: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	fs.Parse(args)

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jcodec: initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := []jcodec.Option{jcodec.Strict(*strict), jcodec.Pretty(!*compact)}
	names := fs.Args()
	if len(names) == 0 {
		names = []string{"-"}
	}

	var failed bool
	for _, name := range names {
		log := logger.With(zap.String("input", name))
		if err := run(cmd, name, opts, log); err != nil {
			log.Error("Command failed", zap.String("command", cmd), zap.Error(err))
			failed = true
		}
	}
	if failed {
		logger.Sync()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  jcodec fmt [-compact] [-strict] [-v] [file ...]   Format values in canonical form
  jcodec check [-strict] [-v] [file ...]            Check that input is well-formed

If no file is given, input is read from stdin.
`)
}

// newLogger returns a development logger if verbose is set, otherwise a
// production logger writing human-readable warnings and errors.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func run(cmd, name string, opts []jcodec.Option, log *zap.Logger) error {
	r, err := openInput(name)
	if err != nil {
		return err
	}
	defer r.Close()

	var n int
	switch cmd {
	case "fmt":
		n, err = formatStream(r, os.Stdout, opts, log)
	case "check":
		n, err = checkStream(r, opts, log)
		if err == nil {
			fmt.Printf("%s: ok (%d values)\n", name, n)
		}
	}
	log.Info("Processed input", zap.Int("values", n))
	return err
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// formatStream writes each value of r to w in canonical form, one value per
// line, and reports the number of values written.
func formatStream(r io.Reader, w io.Writer, opts []jcodec.Option, log *zap.Logger) (int, error) {
	d := jcodec.NewDecoder(r, nil, opts...)
	e := jcodec.NewEncoder(w, nil, opts...)
	var n int
	for d.More() {
		start := d.Pos()
		if err := jcodec.Transcode(d, e); err != nil {
			e.Flush()
			return n, err
		}
		e.WriteRaw("\n")
		n++
		log.Debug("Formatted value", zap.Int("index", n), zap.Stringer("pos", start))
	}
	return n, e.Flush()
}

// checkStream reads each value of r, and reports the number of values read.
func checkStream(r io.Reader, opts []jcodec.Option, log *zap.Logger) (int, error) {
	d := jcodec.NewDecoder(r, nil, opts...)
	var n int
	for d.More() {
		start := d.Pos()
		if err := d.Skip(); err != nil {
			return n, err
		}
		n++
		log.Debug("Checked value", zap.Int("index", n), zap.Stringer("pos", start))
	}
	return n, nil
}
