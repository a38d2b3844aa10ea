package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.log"})
		// builtin .arcignore + *.log
		if len(m.patterns) != 2 {
			t.Fatalf("expected 2 patterns, got %d", len(m.patterns))
		}
		if m.patterns[1].glob != "*.log" {
			t.Errorf("expected *.log, got %s", m.patterns[1].glob)
		}
	})

	t.Run("classifies anchored patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.log", "build/output", "vendor/"})
		if m.patterns[1].anchored {
			t.Error("*.log should not be anchored")
		}
		if !m.patterns[2].anchored {
			t.Error("build/output should be anchored")
		}
		if m.patterns[3].anchored || m.patterns[3].glob != "vendor" {
			t.Errorf("trailing slash should be dropped, got %+v", m.patterns[3])
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{"basename glob in root", []string{"*.log"}, "app.log", true},
		{"basename glob in subdirectory", []string{"*.log"}, filepath.Join("sub", "app.log"), true},
		{"different extension", []string{"*.log"}, "app.txt", false},
		{"ignore file always skipped", nil, IgnoreFilename, true},
		{"exact basename in subdirectory", []string{".DS_Store"}, filepath.Join("sub", ".DS_Store"), true},
		{"directory name", []string{".git"}, ".git", true},
		{"anchored exact path", []string{"build/output"}, filepath.Join("build", "output"), true},
		{"anchored wrong path", []string{"build/output"}, filepath.Join("src", "output"), false},
		{"anchored glob", []string{"build/*.o"}, filepath.Join("build", "main.o"), true},
		{"character class", []string{"*.[oa]"}, "main.o", true},
		{"malformed glob never matches", []string{"[", "*.tmp"}, "x.tmp", true},
		{"no patterns", nil, "anything.txt", false},
		{"second pattern matches", []string{"*.log", "*.tmp"}, "data.tmp", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.relativePath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads lines from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), IgnoreFilename)
		content := "*.log\n# comment\n\n*.tmp\nbuild/output\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		lines, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		// Raw lines; filtering happens in NewIgnoreMatcher.
		if len(lines) != 5 {
			t.Fatalf("expected 5 raw lines, got %d", len(lines))
		}
		if m := NewIgnoreMatcher(lines); len(m.patterns) != 4 {
			t.Errorf("expected 4 compiled patterns, got %d", len(m.patterns))
		}
	})

	t.Run("returns nil for missing file", func(t *testing.T) {
		t.Parallel()
		lines, err := ParseIgnoreFile("/nonexistent/" + IgnoreFilename)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if lines != nil {
			t.Errorf("expected nil lines, got %v", lines)
		}
	})
}

func TestLoadIgnoreMatcher(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, IgnoreFilename), []byte("secret.txt\n"), 0644)

	m, err := LoadIgnoreMatcher(root, []string{"*.tmp"})
	if err != nil {
		t.Fatalf("LoadIgnoreMatcher() error = %v", err)
	}
	for _, p := range []string{"secret.txt", "x.tmp", IgnoreFilename} {
		if !m.Match(p) {
			t.Errorf("Match(%q) = false, want true", p)
		}
	}
	if m.Match("keep.txt") {
		t.Error("Match(keep.txt) = true, want false")
	}
}
