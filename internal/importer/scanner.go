// Package importer reads obligation and account exports from JSON and JSONL files.
package importer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan returns the export files under path. A regular file is returned as-is whatever its
// extension; directories are walked for *.json and *.jsonl files.
func Scan(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".jsonl":
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
