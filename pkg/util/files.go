package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MatchRule selects input videos by file name
type MatchRule struct {
	Prefix     string
	Extension  string
	FoldPrefix bool // compare Prefix case-insensitively
}

// DefaultMatchRule matches SampleVideo*.mp4
func DefaultMatchRule() MatchRule {
	return MatchRule{
		Prefix:    "SampleVideo",
		Extension: ".mp4",
	}
}

// Match reports whether a base file name satisfies the rule.
// The extension is always compared case-insensitively.
func (r MatchRule) Match(name string) bool {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, r.Extension) {
		return false
	}

	stem := strings.TrimSuffix(name, ext)
	if r.FoldPrefix {
		return len(stem) >= len(r.Prefix) && strings.EqualFold(stem[:len(r.Prefix)], r.Prefix)
	}
	return strings.HasPrefix(stem, r.Prefix)
}

// ListMatching returns paths of regular files in dir matching the rule, sorted by name
func ListMatching(dir string, rule MatchRule) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !rule.Match(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists checks if path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
