package pipeline

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// Walk yields the media files under root whose extension (case-insensitive,
// without dot) is in exts. Directories named "extras" (any case) and hidden
// entries are pruned. Paths come out in lexical order. Walk errors are
// yielded with an empty path; the walk continues unless the consumer stops.
func Walk(root string, exts []string) iter.Seq2[string, error] {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want["."+strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	return func(yield func(string, error) bool) {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield("", err) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && strings.EqualFold(d.Name(), "extras") {
					return filepath.SkipDir
				}
				return nil
			}
			if !want[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Discover collects [Walk] into a slice, stopping at the first error.
func Discover(root string, exts []string) ([]string, error) {
	var files []string
	for path, err := range Walk(root, exts) {
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
