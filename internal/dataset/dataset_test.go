package dataset

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const infoJSON = `{
    "codebase_version": "v2.1",
    "total_episodes": 120,
    "total_frames": 36482,
    "fps": 30,
    "features": {
        "observation.images.head": {
            "dtype": "video",
            "shape": [480, 640, 3],
            "names": ["height", "width", "rgb"],
            "info": {"video.fps": 30.0, "video.codec": "av1", "video.pix_fmt": "yuv420p"}
        },
        "observation.images.hand_left": {
            "dtype": "video",
            "shape": [480, 640, 3],
            "names": ["height", "width", "channels"],
            "info": {"video.codec": "h264"}
        },
        "observation.states.joint.position": {
            "dtype": "float32",
            "shape": [14],
            "names": null
        },
        "observation.states.effector.position": {
            "dtype": "float32",
            "shape": []
        },
        "observation.states.no_shape": {
            "dtype": "float32"
        },
        "actions.joint.position": {
            "dtype": "float32",
            "shape": [14]
        },
        "timestamp": {"dtype": "float32", "shape": [1]}
    }
}`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func readMap(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// --- RewriteInfo ---

func TestRewriteInfo(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "info.json")
	out := filepath.Join(dir, "info_1.json")
	writeFile(t, in, infoJSON)

	changed, err := RewriteInfo(in, out, RewriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	doc := readMap(t, out)
	head := doc["features"].(map[string]any)["observation.images.head"].(map[string]any)
	assert.Equal(t, []any{"height", "width", "channels"}, head["names"])
	assert.Equal(t, "h264", head["info"].(map[string]any)["video.codec"])
	assert.Equal(t, float64(36482), doc["total_frames"])

	raw, _ := os.ReadFile(out)
	assert.Contains(t, string(raw), "\n    \"codebase_version\"", "expected four-space indentation")

	orig, _ := os.ReadFile(in)
	assert.Equal(t, infoJSON, string(orig), "input must be untouched when out differs")
}

func TestRewriteInfo_InPlace(t *testing.T) {
	in := filepath.Join(t.TempDir(), "info.json")
	writeFile(t, in, infoJSON)

	_, err := RewriteInfo(in, "", RewriteOptions{FromCodec: "av1", ToCodec: "hevc"})
	require.NoError(t, err)

	doc := readMap(t, in)
	head := doc["features"].(map[string]any)["observation.images.head"].(map[string]any)
	assert.Equal(t, "hevc", head["info"].(map[string]any)["video.codec"])
}

func TestRewriteInfo_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"features": {`)
	out := filepath.Join(dir, "out.json")

	_, err := RewriteInfo(bad, out, RewriteOptions{})
	assert.Error(t, err)
	assert.NoFileExists(t, out)

	noFeatures := filepath.Join(dir, "nofeat.json")
	writeFile(t, noFeatures, `{"fps": 30}`)
	_, err = RewriteInfo(noFeatures, out, RewriteOptions{})
	assert.ErrorIs(t, err, ErrNoFeatures)
	assert.NoFileExists(t, out)
}

// --- TransformFeatures ---

func TestProcessSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "info.json"), infoJSON)

	out, schema, err := ProcessSchema(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "modify.json"), out)

	assert.Equal(t, map[string]VideoRef{
		"head":      {OriginalKey: "observation.images.head"},
		"hand_left": {OriginalKey: "observation.images.hand_left"},
	}, schema.Video)
	assert.Equal(t, map[string]Range{
		"joint.position":    {Start: 0, End: 14, OriginalKey: "observation.states.joint.position"},
		"effector.position": {Start: 0, End: 0, OriginalKey: "observation.states.effector.position"},
	}, schema.State)
	assert.Equal(t, map[string]Range{
		"joint.position": {Start: 0, End: 14, OriginalKey: "actions.joint.position"},
	}, schema.Action)

	written := readMap(t, out)
	assert.Len(t, written, 3)
	state := written["state"].(map[string]any)["joint.position"].(map[string]any)
	assert.Equal(t, float64(14), state["end"])
}

func TestTransformFeatures_OmitsEmptyGroups(t *testing.T) {
	schema, err := TransformFeatures(map[string]json.RawMessage{
		"observation.images.top": json.RawMessage(`{"dtype": "video"}`),
		"index":                  json.RawMessage(`{"dtype": "int64", "shape": [1]}`),
	})
	require.NoError(t, err)

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"video": {"top": {"original_key": "observation.images.top"}}}`, string(data))
}

func TestProcessSchema_NoFeatures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "info.json"), `{"fps": 30}`)
	_, _, err := ProcessSchema(dir)
	assert.True(t, errors.Is(err, ErrNoFeatures), "got %v", err)
	assert.NoFileExists(t, filepath.Join(dir, "modify.json"))
}

// --- AggregateStats ---

const episodes = `{"episode_index": 0, "stats": {"actions.gripper": {"mean": 1.0, "std": 0.1}, "observation.states.joint": {"mean": [0.0, 10.0]}, "observation.images.head": {"mean": [[[0.5]]]}}}

{"episode_index": 1, "stats": {"actions.gripper": {"mean": 2.0}, "observation.states.joint": {"mean": [1.0, 20.0]}, "timestamp": {"mean": 3.0}}}
{"episode_index": 2, "stats": {"actions.gripper": {"mean": 3.0}, "observation.states.joint": {"mean": [2.0, 30.0]}, "actions.noop": {"min": 0}}}
{"episode_index": 3, "stats": {"actions.gripper": {"mean": 4.0}, "observation.states.joint": {"mean": [3.0, 40.0]}}}
`

func TestAggregateStats(t *testing.T) {
	stats, err := AggregateStats(strings.NewReader(episodes))
	require.NoError(t, err)
	require.Len(t, stats, 2, "only state/action fields with a mean are aggregated")

	g := stats["actions.gripper"]
	assert.True(t, g.Mean.Scalar())
	assert.InDelta(t, 2.5, g.Mean.Values[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), g.Std.Values[0], 1e-12)
	assert.Equal(t, 1.0, g.Min.Values[0])
	assert.Equal(t, 4.0, g.Max.Values[0])
	assert.InDelta(t, 1.03, g.Q01.Values[0], 1e-12)
	assert.InDelta(t, 3.97, g.Q99.Values[0], 1e-12)

	j := stats["observation.states.joint"]
	assert.False(t, j.Mean.Scalar())
	assert.Equal(t, []int{2}, j.Mean.Shape)
	assert.InDeltaSlice(t, []float64{1.5, 25}, j.Mean.Values, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 10}, j.Min.Values, 1e-12)
	assert.InDeltaSlice(t, []float64{3, 40}, j.Max.Values, 1e-12)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.IsType(t, float64(0), decoded["actions.gripper"]["mean"])
	assert.IsType(t, []any{}, decoded["observation.states.joint"]["q99"])
}

func TestAggregateStats_MatrixMeans(t *testing.T) {
	input := `{"stats": {"observation.states.arm": {"mean": [[1, 2], [3, 4]]}}}
{"stats": {"observation.states.arm": {"mean": [[3, 6], [5, 8]]}}}`
	stats, err := AggregateStats(strings.NewReader(input))
	require.NoError(t, err)

	arm := stats["observation.states.arm"]
	assert.Equal(t, []int{2, 2}, arm.Mean.Shape)
	assert.Equal(t, "2x2", arm.Mean.ShapeString())
	assert.InDeltaSlice(t, []float64{2, 4, 4, 6}, arm.Mean.Values, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 2, 1, 2}, arm.Std.Values, 1e-12)

	data, err := json.Marshal(arm.Max)
	require.NoError(t, err)
	assert.JSONEq(t, `[[3, 6], [5, 8]]`, string(data))
}

func TestAggregateStats_SingleEpisode(t *testing.T) {
	stats, err := AggregateStats(strings.NewReader(`{"stats": {"actions.x": {"mean": [5, 6]}}}`))
	require.NoError(t, err)
	x := stats["actions.x"]
	assert.Equal(t, []float64{5, 6}, x.Q01.Values)
	assert.Equal(t, []float64{0, 0}, x.Std.Values)
}

func TestAggregateStats_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed line", "{\"stats\": {}}\n{oops\n", "line 2"},
		{"length mismatch", `{"stats": {"actions.x": {"mean": [1, 2]}}}` + "\n" + `{"stats": {"actions.x": {"mean": [1]}}}`, "earlier episodes have 2"},
		{"scalar then list", `{"stats": {"actions.x": {"mean": 1}}}` + "\n" + `{"stats": {"actions.x": {"mean": [1]}}}`, "mixes scalars"},
		{"ragged list", `{"stats": {"actions.x": {"mean": [[1, 2], [3]]}}}`, "ragged"},
		{"shape mismatch", `{"stats": {"actions.x": {"mean": [[1, 2]]}}}` + "\n" + `{"stats": {"actions.x": {"mean": [[1], [2]]}}}`, "earlier episodes have 1x2"},
		{"string mean", `{"stats": {"actions.x": {"mean": "high"}}}`, "number or a list"},
		{"empty list", `{"stats": {"actions.x": {"mean": []}}}`, "empty list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AggregateStats(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestProcessStats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "episodes_stats.jsonl"), episodes)

	out, stats, err := ProcessStats(dir)
	require.NoError(t, err)
	assert.Len(t, stats, 2)

	written := readMap(t, out)
	gripper := written["actions.gripper"].(map[string]any)
	assert.Equal(t, []string{"max", "mean", "min", "q01", "q99", "std"}, sortedKeys(gripper))
}

func TestProcessStats_MalformedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "episodes_stats.jsonl"), "not json\n")
	_, _, err := ProcessStats(dir)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "stats.json"))
}

func TestPercentile(t *testing.T) {
	xs := []float64{10, 0, 5}
	assert.Equal(t, 0.0, percentile(xs, 0))
	assert.Equal(t, 5.0, percentile(xs, 50))
	assert.Equal(t, 10.0, percentile(xs, 100))
	assert.InDelta(t, 0.1, percentile(xs, 1), 1e-12)
	assert.Equal(t, []float64{10, 0, 5}, xs, "input must not be reordered")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
