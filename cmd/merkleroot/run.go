package main

import (
	"bufio"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	merkletree "github.com/ababo/merkle-tree"
	"github.com/ababo/merkle-tree/hashes"
)

// maxLineSize bounds a single block in --lines mode.
const maxLineSize = 16 << 20

type config struct {
	hash     string
	lines    bool
	workers  int
	snapshot string
	verify   string
	verbose  bool
	files    []string
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config

	fs := pflag.NewFlagSet("merkleroot", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&cfg.hash, "hash", "a", "sha256",
		"hash function, one of: "+strings.Join(hashes.Names(), ", "))
	fs.BoolVarP(&cfg.lines, "lines", "l", false, "treat every input line as one block instead of every file")
	fs.IntVarP(&cfg.workers, "workers", "w", 1, "number of goroutines hashing while sealing")
	fs.StringVar(&cfg.snapshot, "snapshot", "", "write the sealed tree snapshot to `path`")
	fs.StringVar(&cfg.verify, "verify", "", "check the snapshot at `path` and print its root")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.files = fs.Args()

	if cfg.workers < 1 {
		return cfg, fmt.Errorf("--workers must be at least 1, got %d", cfg.workers)
	}
	if cfg.verify != "" && (cfg.snapshot != "" || len(cfg.files) > 0) {
		return cfg, errors.New("--verify takes no input files and no --snapshot")
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	return execute(cfg, stdin, stdout, newLogger(cfg.verbose, stderr))
}

func execute(cfg config, stdin io.Reader, stdout io.Writer, log *slog.Logger) error {
	newHash, err := hashes.Lookup(cfg.hash)
	if err != nil {
		return err
	}

	opts := []merkletree.Option{
		merkletree.Workers(cfg.workers),
		merkletree.WithLogger(log),
	}
	if cfg.hash == "sha256" {
		opts = append(opts, merkletree.WithSHA256Acceleration())
	}

	if cfg.verify != "" {
		return verifySnapshot(cfg.verify, newHash, opts, stdout, log)
	}

	tree := merkletree.New(newHash, opts...)
	if len(cfg.files) == 0 {
		if err := addBlocks(tree, newHash, stdin, cfg.lines); err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}
	for _, path := range cfg.files {
		if err := addFile(tree, newHash, path, cfg.lines); err != nil {
			return err
		}
		log.Debug("Added input", "path", path, "blocks", tree.NumBlocks())
	}

	if err := tree.Seal(); err != nil {
		return err
	}
	root, err := tree.Root()
	if err != nil {
		return err
	}
	log.Info(
		"Sealed tree",
		"hash", cfg.hash,
		"blocks", tree.NumBlocks(),
		"height", tree.Height(),
	)
	if _, err := fmt.Fprintln(stdout, root); err != nil {
		return err
	}

	if cfg.snapshot != "" {
		data, err := tree.MarshalBinary()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.snapshot, data, 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		log.Debug("Wrote snapshot", "path", cfg.snapshot, "bytes", len(data))
	}
	return nil
}

func addFile(tree *merkletree.Tree, newHash func() hash.Hash, path string, lines bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := addBlocks(tree, newHash, f, lines); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// addBlocks hashes r as a single block, or every line of r as its own block.
func addBlocks(tree *merkletree.Tree, newHash func() hash.Hash, r io.Reader, lines bool) error {
	if !lines {
		h := newHash()
		if _, err := io.Copy(h, r); err != nil {
			return err
		}
		return tree.AddBlock(h.Sum(nil))
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		if err := tree.AddBlock(hashes.Sum(newHash, s.Bytes())); err != nil {
			return err
		}
	}
	return s.Err()
}

func verifySnapshot(
	path string,
	newHash func() hash.Hash,
	opts []merkletree.Option,
	stdout io.Writer,
	log *slog.Logger,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := merkletree.Unmarshal(data, newHash, opts...)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	root, err := tree.Root()
	if err != nil {
		return err
	}
	log.Info("Verified snapshot", "path", path, "blocks", tree.NumBlocks())
	_, err = fmt.Fprintln(stdout, root)
	return err
}
