package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputExt is the extension of every converted file.
const OutputExt = ".mp4"

// ErrOutputIsInput is returned when an input would be overwritten by its own
// output (an .mp4 input converted in place).
var ErrOutputIsInput = errors.New("output path equals input path")

// SingleOutput returns the output path for a single input file.
func SingleOutput(input, dest string) string {
	if dest == "" {
		return replaceExt(input)
	}
	if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(filepath.Separator)) {
		return filepath.Join(dest, stem(input)+OutputExt)
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return filepath.Join(dest, stem(input)+OutputExt)
	}
	return dest
}

// MirrorOutput returns the output path for input found under sourceRoot.
// With an empty destRoot the output is written beside the input; otherwise
// the relative directory structure is recreated under destRoot.
func MirrorOutput(input, sourceRoot, destRoot string) (string, error) {
	if destRoot == "" {
		return replaceExt(input), nil
	}
	rel, err := filepath.Rel(sourceRoot, input)
	if err != nil {
		return "", fmt.Errorf("relative path of %q: %w", input, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside %q", input, sourceRoot)
	}
	return replaceExt(filepath.Join(destRoot, rel)), nil
}

// CheckDistinct rejects an output that would overwrite its input.
func CheckDistinct(input, output string) error {
	if filepath.Clean(input) == filepath.Clean(output) {
		return fmt.Errorf("%s: %w", input, ErrOutputIsInput)
	}
	return nil
}

// SidecarPath returns the forced-subtitle sidecar path next to output,
// e.g. "Movie.mp4" → "Movie.eng.forced.srt".
func SidecarPath(output, lang string) string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	if lang == "" {
		return base + ".forced.srt"
	}
	return base + "." + lang + ".forced.srt"
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func replaceExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + OutputExt
}
