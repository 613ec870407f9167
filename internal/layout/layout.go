package layout

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/dsconvert/internal/config"
)

// DirRule matches one directory level.
type DirRule struct {
	// Role names the level in debug output ("chunk", "camera").
	Role  string
	Match func(name string) bool
}

// FileRule matches leaf files by extension (lowercase, no leading dot).
type FileRule struct {
	Extensions map[string]bool
}

// Matches reports whether name has one of the rule's extensions,
// case-insensitively.
func (r FileRule) Matches(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ext != "" && r.Extensions[ext]
}

// Layout is a named rule table describing where videos live below the root.
type Layout struct {
	Name   string
	Levels []DirRule
	Leaf   FileRule
}

// Depth returns the number of directory levels between the root and a video.
func (l Layout) Depth() int { return len(l.Levels) }

type builder func(cfg config.Layout) Layout

var registry = map[string]builder{
	"chunked": func(cfg config.Layout) Layout {
		return Layout{
			Levels: []DirRule{AnyDir("chunk"), PrefixDir("camera", cfg.CameraPrefix)},
			Leaf:   Extensions(cfg.Extensions),
		}
	},
	"flat": func(cfg config.Layout) Layout {
		return Layout{
			Levels: []DirRule{PrefixDir("camera", cfg.CameraPrefix)},
			Leaf:   Extensions(cfg.Extensions),
		}
	},
}

// Lookup builds the layout registered under cfg.Name.
func Lookup(cfg config.Layout) (Layout, error) {
	build, ok := registry[cfg.Name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q (known: %s)", cfg.Name, strings.Join(Names(), ", "))
	}
	l := build(cfg)
	l.Name = cfg.Name
	return l, nil
}

// Names lists the registered layouts in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnyDir matches every directory.
func AnyDir(role string) DirRule {
	return DirRule{Role: role, Match: func(string) bool { return true }}
}

// PrefixDir matches directories whose name starts with prefix.
func PrefixDir(role, prefix string) DirRule {
	return DirRule{Role: role, Match: func(name string) bool { return strings.HasPrefix(name, prefix) }}
}

// Extensions builds a FileRule from a list such as ["mp4", ".MKV"].
func Extensions(exts []string) FileRule {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return FileRule{Extensions: set}
}
