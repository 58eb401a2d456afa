package pipeline

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/naming"
)

// Layout is the resolved source and destination of a run.
type Layout struct {
	Source string // Absolute source file or directory.
	Dest   string // Absolute destination, or empty.
	IsDir  bool
	exts   []string
}

// NewLayout resolves cfg.Source and cfg.Destination and validates that a
// directory run cannot pick up its own output.
func NewLayout(cfg *config.Config) (*Layout, error) {
	src, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	l := &Layout{Source: src, IsDir: fi.IsDir(), exts: cfg.Extensions}
	if cfg.Destination != "" {
		dest, err := filepath.Abs(cfg.Destination)
		if err != nil {
			return nil, err
		}
		// Abs drops a trailing separator, which marks a directory target.
		if !l.IsDir && os.IsPathSeparator(cfg.Destination[len(cfg.Destination)-1]) {
			dest += string(filepath.Separator)
		}
		l.Dest = dest
	}

	if l.IsDir && l.Dest != "" {
		if fi, err := os.Stat(l.Dest); err == nil && !fi.IsDir() {
			return nil, fmt.Errorf("destination %s is a file but the source is a directory", l.Dest)
		}
		if err := cfg.ValidatePaths(resolveLinks(l.Source), resolveLinks(l.Dest)); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Sources yields the single source file, or walks the source directory.
func (l *Layout) Sources() iter.Seq2[string, error] {
	if !l.IsDir {
		return func(yield func(string, error) bool) {
			yield(l.Source, nil)
		}
	}
	return Walk(l.Source, l.exts)
}

// OutputFor maps an input to its output path.
func (l *Layout) OutputFor(input string) (string, error) {
	if !l.IsDir {
		return naming.SingleOutput(input, l.Dest), nil
	}
	return naming.MirrorOutput(input, l.Source, l.Dest)
}

// resolveLinks resolves symlinks in the longest existing prefix of path.
func resolveLinks(path string) string {
	if r, err := filepath.EvalSymlinks(path); err == nil {
		return r
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolveLinks(parent), filepath.Base(path))
}
