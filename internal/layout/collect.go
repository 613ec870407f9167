package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// Match is one video file selected by a layout.
type Match struct {
	Rel string // Path relative to the input root.
	Src string
	Dst string // Mirrored path under the output root; same file name.
}

// Collect walks inputRoot with l and returns one Match per leaf file. Every
// matched directory is created under outputRoot as it is visited, so the
// mirrored camera directories exist before any conversion starts. Entries that
// do not fit the rule for their level, and paths matched by ig, are skipped.
//
// Entries are visited in os.ReadDir order (sorted by name).
func Collect(inputRoot, outputRoot string, l Layout, ig *Ignore) ([]Match, error) {
	c := collector{in: inputRoot, out: outputRoot, layout: l, ignore: ig}
	if err := c.walk("", 0); err != nil {
		return nil, err
	}
	return c.matches, nil
}

type collector struct {
	in, out string
	layout  Layout
	ignore  *Ignore
	matches []Match
}

func (c *collector) walk(rel string, depth int) error {
	entries, err := os.ReadDir(filepath.Join(c.in, rel))
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Join(c.in, rel), err)
	}

	leaf := depth == c.layout.Depth()
	for _, e := range entries {
		childRel := filepath.Join(rel, e.Name())
		src := filepath.Join(c.in, childRel)
		isDir := entryIsDir(src, e)
		if c.ignore.Matches(childRel, isDir) {
			continue
		}

		if leaf {
			if isDir || !c.layout.Leaf.Matches(e.Name()) {
				continue
			}
			c.matches = append(c.matches, Match{
				Rel: childRel,
				Src: src,
				Dst: filepath.Join(c.out, childRel),
			})
			continue
		}

		if !isDir || !c.layout.Levels[depth].Match(e.Name()) {
			continue
		}
		if err := os.MkdirAll(filepath.Join(c.out, childRel), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := c.walk(childRel, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// entryIsDir follows symlinks so linked chunk or camera directories count.
func entryIsDir(path string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
