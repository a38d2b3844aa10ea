package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFilename is the per-directory ignore file read by arc import.
const IgnoreFilename = ".arcignore"

// builtinIgnore is applied on top of configured and .arcignore patterns.
var builtinIgnore = []string{IgnoreFilename}

type ignorePattern struct {
	glob     string
	anchored bool // contains '/': matched against the relative path, not the basename
}

// IgnoreMatcher decides which paths an import skips.
// Patterns without '/' match any path component's basename; patterns with
// '/' match the slash-separated path relative to the import root.
// A matching directory prunes everything below it.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher compiles raw patterns. Blank lines and '#' comments are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range append(append([]string{}, builtinIgnore...), rawPatterns...) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		raw = strings.TrimSuffix(raw, "/")
		m.patterns = append(m.patterns, ignorePattern{
			glob:     raw,
			anchored: strings.Contains(raw, "/"),
		})
	}
	return m
}

// LoadIgnoreMatcher combines configured patterns with root's .arcignore, if any.
func LoadIgnoreMatcher(root string, configured []string) (*IgnoreMatcher, error) {
	fromFile, err := ParseIgnoreFile(filepath.Join(root, IgnoreFilename))
	if err != nil {
		return nil, err
	}
	return NewIgnoreMatcher(append(append([]string{}, configured...), fromFile...)), nil
}

// Match reports whether relativePath (relative to the import root) is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	slashed := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)

	for _, p := range m.patterns {
		target := base
		if p.anchored {
			target = slashed
		}
		// Malformed globs never match.
		if ok, err := filepath.Match(p.glob, target); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file and returns its lines.
// A missing file yields no patterns and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
