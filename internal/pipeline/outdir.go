package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutputInRoot is returned when an output directory is the
// documentation root or lies inside it.
var ErrOutputInRoot = errors.New("output directory is inside the documentation root")

// CheckOutDir refuses output directories at or under root, so a render
// never writes into its own input.
func CheckOutDir(root, outDir string) error {
	rootAbs, err := resolvedAbs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	outAbs, err := resolvedAbs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, outAbs)
	if err != nil {
		// Different volumes.
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOutputInRoot, outDir)
}

// resolvedAbs makes p absolute and resolves symlinks in the longest
// existing prefix; the output directory usually does not exist yet.
func resolvedAbs(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	dir, rest := abs, ""
	for {
		if r, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(r, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
