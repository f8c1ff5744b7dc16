// Command merkleroot seals a Merkle tree over files or lines and prints its root.
//
// Usage:
//
//	merkleroot [flags] [file ...]
//
// Without file arguments the blocks are read from standard input.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "merkleroot:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
