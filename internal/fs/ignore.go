package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns cover the ignore file itself and the scratch files
// editors leave next to documents.
var defaultIgnorePatterns = []string{IgnoreFileName, ".DS_Store", "*.swp", "*.swx", "*~", ".#*", "#*#"}

var scratch = NewIgnoreMatcher(defaultIgnorePatterns)

// IsScratchFile reports whether name is an editor or OS scratch file.
func IsScratchFile(name string) bool {
	return scratch.Match(filepath.Base(name), false)
}

// ignoreRule is one line of an ignore file.
type ignoreRule struct {
	glob     string
	anchored bool // contains a slash: matched against the whole relative path
	dirOnly  bool // trailing slash: matches directories only
	negate   bool // leading '!': re-includes what earlier rules excluded
}

func (r ignoreRule) matches(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	target := rel
	if !r.anchored {
		target = path.Base(rel)
	}
	ok, err := path.Match(r.glob, target)
	return err == nil && ok
}

// IgnoreMatcher decides which entries of a bulk-added directory are skipped.
// Rules follow a subset of gitignore: '#' comments, '!' negation, a trailing
// '/' for directories, and patterns containing '/' anchored at the root.
// The last matching rule wins.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher compiles ignore file lines. Blank lines, comments and
// malformed globs are dropped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r ignoreRule
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			r.negate = true
			line = rest
		}
		if rest, ok := strings.CutSuffix(line, "/"); ok {
			r.dirOnly = true
			line = rest
		}
		line = strings.TrimPrefix(line, "/")
		if line == "" {
			continue
		}
		if _, err := path.Match(line, ""); err != nil {
			continue
		}
		r.glob = line
		r.anchored = strings.Contains(line, "/")
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether rel, a path relative to the directory root, is ignored.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ReadIgnoreFile returns the lines of the ignore file at p. A missing file
// yields no lines.
func ReadIgnoreFile(p string) ([]string, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), nil
}
