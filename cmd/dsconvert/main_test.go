package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/manifest"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func writeTestFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMetaRewrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "info.json")
	writeTestFile(t, in, `{"features": {"observation.images.top": {"dtype": "video", "names": ["height", "width", "rgb"], "info": {"video.codec": "av1"}}}}`)
	out := filepath.Join(dir, "info_1.json")

	stdout, _, err := runCLI(t, "meta", "rewrite", in, "--out", out)
	if err != nil {
		t.Fatalf("meta rewrite: %v", err)
	}
	requireContains(t, stdout, "Updated 1 video features in "+out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, string(b), `"video.codec": "h264"`)
	requireContains(t, string(b), `"channels"`)
}

func TestMetaSchemaAndStats(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "info.json"), `{"features": {
		"observation.images.top": {"dtype": "video"},
		"observation.states.joint": {"shape": [7]},
		"actions.joint": {"shape": [7]}
	}}`)
	writeTestFile(t, filepath.Join(dir, "episodes_stats.jsonl"),
		`{"stats": {"actions.joint": {"mean": [1, 2]}}}`+"\n"+`{"stats": {"actions.joint": {"mean": [3, 4]}}}`+"\n")

	stdout, _, err := runCLI(t, "meta", "schema", dir)
	if err != nil {
		t.Fatalf("meta schema: %v", err)
	}
	requireContains(t, stdout, "1 video, 1 state, 1 action keys")

	stdout, _, err = runCLI(t, "meta", "stats", dir)
	if err != nil {
		t.Fatalf("meta stats: %v", err)
	}
	requireContains(t, stdout, "actions.joint")
	requireContains(t, stdout, "(1 fields)")
	if _, err := os.Stat(filepath.Join(dir, "stats.json")); err != nil {
		t.Fatalf("stats.json: %v", err)
	}
}

func TestMetaStatsMissingInput(t *testing.T) {
	_, stderr, err := runCLI(t, "meta", "stats", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing episodes_stats.jsonl")
	}
	requireContains(t, stderr, "Stats failed")
}

func TestVideosDryRun(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "in")
	out := filepath.Join(base, "out")
	src := filepath.Join(in, "chunk-000", "observation.images.head", "episode_000000.mp4")
	writeTestFile(t, src, "av1")

	stdout, _, err := runCLI(t, "videos", in, out, "--dry-run")
	if err != nil {
		t.Fatalf("videos --dry-run: %v", err)
	}
	requireContains(t, stdout, "DRY RUN")
	requireContains(t, stdout, "[DRY] Would convert")

	if _, err := os.Stat(filepath.Join(out, "chunk-000", "observation.images.head")); err != nil {
		t.Fatalf("expected mirrored directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "chunk-000", "observation.images.head", "episode_000000.mp4")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write outputs, stat err = %v", err)
	}
	log, err := os.ReadFile(filepath.Join(out, "convert_log.txt"))
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	requireContains(t, string(log), "Run: ")
}

func TestVideosRejectsOutputInsideInput(t *testing.T) {
	in := t.TempDir()
	_, _, err := runCLI(t, "videos", in, filepath.Join(in, "out"), "--dry-run")
	if err == nil {
		t.Fatal("expected error for output inside input")
	}
	requireContains(t, err.Error(), "must not be inside input")
	if _, statErr := os.Stat(filepath.Join(in, "out")); !os.IsNotExist(statErr) {
		t.Fatalf("rejected output directory was created inside the input tree (stat err = %v)", statErr)
	}
}

func TestVideosRejectsOutputInsideInputViaSymlink(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "in")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(in, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_, _, err := runCLI(t, "videos", in, filepath.Join(link, "new", "out"), "--dry-run")
	if err == nil {
		t.Fatal("expected error for output inside input through a symlink")
	}
	if _, statErr := os.Stat(filepath.Join(in, "new")); !os.IsNotExist(statErr) {
		t.Fatalf("rejected output directory was created (stat err = %v)", statErr)
	}
}

func TestResolvePending(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := resolvePending(filepath.Join(base, "a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "a", "b"); got != want {
		t.Errorf("resolvePending = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(base, "a")); !os.IsNotExist(err) {
		t.Errorf("resolvePending must not create directories (stat err = %v)", err)
	}
}

func TestVideosArgs(t *testing.T) {
	if _, _, err := runCLI(t, "videos", t.TempDir()); err == nil {
		t.Fatal("expected error for a single positional argument")
	}
	base := t.TempDir()
	_, _, err := runCLI(t, "videos", filepath.Join(base, "missing"), filepath.Join(base, "out"), "--dry-run")
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	requireContains(t, err.Error(), "input not found")
}

func TestManifestList(t *testing.T) {
	out := t.TempDir()

	if _, _, err := runCLI(t, "manifest", "list", out); err == nil {
		t.Fatal("expected error when no manifest exists")
	}

	cfg := config.Default()
	cfg.OutputDir = out
	store, err := manifest.Open(config.BackendPebble, cfg.StateDir())
	if err != nil {
		t.Fatal(err)
	}
	err = store.Put(context.Background(), manifest.Record{
		RelPath:      "chunk-000/observation.images.head/episode_000000.mp4",
		OutputSize:   2048,
		OutputSHA256: "0123456789abcdef0123456789abcdef",
		RunID:        "run-1",
		CompletedAt:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, "manifest", "list", out, "--manifest-backend", "pebble")
	if err != nil {
		t.Fatalf("manifest list: %v", err)
	}
	requireContains(t, stdout, "episode_000000.mp4")
	requireContains(t, stdout, "0123456789ab")
	requireContains(t, stdout, "run-1")
}
