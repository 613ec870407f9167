package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/dsconvert/internal/config"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func chunked(t *testing.T) Layout {
	t.Helper()
	l, err := Lookup(config.Default().Layout)
	require.NoError(t, err)
	return l
}

func rels(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = filepath.ToSlash(m.Rel)
	}
	return out
}

func TestCollect_SingleEpisodeAndNotes(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in,
		"chunkA/observation.images.front/ep0.mp4",
		"chunkA/observation.images.front/notes.txt",
	)

	matches, err := Collect(in, out, chunked(t), nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, filepath.Join(in, "chunkA", "observation.images.front", "ep0.mp4"), m.Src)
	assert.Equal(t, filepath.Join(out, "chunkA", "observation.images.front", "ep0.mp4"), m.Dst)
	assert.DirExists(t, filepath.Join(out, "chunkA", "observation.images.front"))
	assert.NoFileExists(t, m.Dst)
}

func TestCollect_RuleTable(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in,
		"chunk-000/observation.images.wrist/episode_000.MP4",
		"chunk-000/observation.images.wrist/episode_001.mkv",
		"chunk-000/observation.images.wrist/episode_002.Mov",
		"chunk-000/observation.images.wrist/episode_003.avi",
		"chunk-000/observation.images.wrist/episode_004.webm",
		"chunk-000/observation.images.wrist/nested/deep.mp4",
		"chunk-000/observation.states.joint/episode_000.mp4",
		"chunk-000/stray.mp4",
		"chunk-001/observation.images.top/episode_010.mp4",
		"top-level.mp4",
	)

	matches, err := Collect(in, out, chunked(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chunk-000/observation.images.wrist/episode_000.MP4",
		"chunk-000/observation.images.wrist/episode_001.mkv",
		"chunk-000/observation.images.wrist/episode_002.Mov",
		"chunk-000/observation.images.wrist/episode_003.avi",
		"chunk-001/observation.images.top/episode_010.mp4",
	}, rels(matches))

	assert.DirExists(t, filepath.Join(out, "chunk-000"))
	assert.DirExists(t, filepath.Join(out, "chunk-001", "observation.images.top"))
	assert.NoDirExists(t, filepath.Join(out, "chunk-000", "observation.states.joint"))
	assert.NoDirExists(t, filepath.Join(out, "chunk-000", "observation.images.wrist", "nested"))
}

func TestCollect_IdempotentDirectoryCreation(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "c/observation.images.front/ep0.mp4")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "c", "observation.images.front"), 0o755))

	for i := 0; i < 2; i++ {
		matches, err := Collect(in, out, chunked(t), nil)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	}
}

func TestCollect_FlatLayout(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in,
		"observation.images.front/ep0.mp4",
		"chunkA/observation.images.front/ep1.mp4",
	)
	cfg := config.Default().Layout
	cfg.Name = "flat"
	l, err := Lookup(cfg)
	require.NoError(t, err)

	matches, err := Collect(in, out, l, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"observation.images.front/ep0.mp4"}, rels(matches))
}

func TestCollect_CustomPrefixAndExtensions(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "c/cam_left/a.webm", "c/cam_left/b.mp4", "c/observation.images.x/c.webm")
	cfg := config.Default().Layout
	cfg.CameraPrefix = "cam_"
	cfg.Extensions = []string{".WEBM"}
	l, err := Lookup(cfg)
	require.NoError(t, err)

	matches, err := Collect(in, out, l, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c/cam_left/a.webm"}, rels(matches))
}

func TestCollect_Ignore(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in,
		"chunk-000/observation.images.front/ep0.mp4",
		"chunk-000/observation.images.front/ep1.mp4",
		"chunk-001/observation.images.front/ep2.mp4",
	)
	require.NoError(t, os.WriteFile(filepath.Join(in, ".dsconvertignore"),
		[]byte("# skip broken chunk\nchunk-001/\n\n**/ep1.mp4\n"), 0o644))

	ig, err := LoadIgnore(in, ".dsconvertignore")
	require.NoError(t, err)
	require.NotNil(t, ig)

	matches, err := Collect(in, out, chunked(t), ig)
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-000/observation.images.front/ep0.mp4"}, rels(matches))
	assert.NoDirExists(t, filepath.Join(out, "chunk-001"))
}

func TestLoadIgnore_Missing(t *testing.T) {
	ig, err := LoadIgnore(t.TempDir(), ".dsconvertignore")
	require.NoError(t, err)
	assert.Nil(t, ig)
	assert.False(t, ig.Matches("anything", false))
}

func TestCollect_MissingRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "nope"), t.TempDir(), chunked(t), nil)
	assert.Error(t, err)
}

func TestLookup_Unknown(t *testing.T) {
	cfg := config.Default().Layout
	cfg.Name = "spiral"
	_, err := Lookup(cfg)
	assert.ErrorContains(t, err, "chunked, flat")
}

func TestFileRule_Matches(t *testing.T) {
	r := Extensions([]string{"mp4", ".MKV"})
	assert.True(t, r.Matches("a.MP4"))
	assert.True(t, r.Matches("b.mkv"))
	assert.False(t, r.Matches("c.txt"))
	assert.False(t, r.Matches("mp4"))
}
