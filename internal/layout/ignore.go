package layout

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Ignore matches slash-separated paths relative to the input root against
// gitignore-style patterns. A nil *Ignore matches nothing.
type Ignore struct {
	patterns *gitignore.GitIgnore
}

// NewIgnore compiles patterns; blank lines and # comments are dropped.
func NewIgnore(lines ...string) *Ignore {
	var patterns []string
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return nil
	}
	return &Ignore{patterns: gitignore.CompileIgnoreLines(patterns...)}
}

// LoadIgnore reads name from root. A missing file yields a nil matcher.
func LoadIgnore(root, name string) (*Ignore, error) {
	if name == "" {
		return nil, nil
	}
	content, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return NewIgnore(lines...), nil
}

// Matches reports whether rel (relative to the input root) is ignored.
// Directories are also tried with a trailing slash so "chunk-07/" patterns
// exclude the directory itself.
func (ig *Ignore) Matches(rel string, isDir bool) bool {
	if ig == nil || ig.patterns == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if ig.patterns.MatchesPath(rel) {
		return true
	}
	return isDir && ig.patterns.MatchesPath(rel+"/")
}
