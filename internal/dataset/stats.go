package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Keys whose per-episode means are aggregated.
var statsPrefixes = []string{"observation.states", "actions"}

// Value is a statistic computed element-wise over means of any shape.
// Values holds the elements in row-major order; an empty Shape is a scalar.
// It marshals as a JSON number or as nested arrays of that shape.
type Value struct {
	Values []float64
	Shape  []int
}

// Scalar reports whether v has no dimensions.
func (v Value) Scalar() bool { return len(v.Shape) == 0 }

// ShapeString renders the shape as "scalar", "7" or "2x3".
func (v Value) ShapeString() string { return shapeString(v.Shape) }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Scalar() && len(v.Values) == 1 {
		return json.Marshal(v.Values[0])
	}
	nested, _ := nest(v.Values, v.Shape)
	return json.Marshal(nested)
}

// nest rebuilds nested arrays of shape from flat and returns the unused rest.
func nest(flat []float64, shape []int) (any, []float64) {
	if len(shape) == 0 {
		return flat[0], flat[1:]
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i], flat = nest(flat, shape[1:])
	}
	return out, flat
}

// FieldStats summarizes one field across episodes.
type FieldStats struct {
	Mean Value `json:"mean"`
	Std  Value `json:"std"`
	Min  Value `json:"min"`
	Max  Value `json:"max"`
	Q01  Value `json:"q01"`
	Q99  Value `json:"q99"`
}

// series collects one field's per-episode means, flattened.
type series struct {
	shape []int
	rows  [][]float64
}

// AggregateStats reads newline-delimited episode records of the form
// {"stats": {field: {"mean": ..., ...}}} and summarizes each state and
// action field's per-episode mean: population std, min, max and the 1st and
// 99th percentiles with linear interpolation. List means of any rank are
// summarized element-wise along the episode axis and keep their shape.
// Blank lines are skipped.
func AggregateStats(r io.Reader) (map[string]FieldStats, error) {
	fields := map[string]*series{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var episode struct {
			Stats map[string]json.RawMessage `json:"stats"`
		}
		if err := json.Unmarshal(line, &episode); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		for key, raw := range episode.Stats {
			if !hasStatsPrefix(key) {
				continue
			}
			row, shape, ok, err := parseMean(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, key, err)
			}
			if !ok {
				continue
			}
			s := fields[key]
			if s == nil {
				s = &series{shape: shape}
				fields[key] = s
			}
			if (len(s.shape) == 0) != (len(shape) == 0) {
				return nil, fmt.Errorf("line %d: %s: mean mixes scalars and lists across episodes", lineNo, key)
			}
			if !equalShape(s.shape, shape) {
				return nil, fmt.Errorf("line %d: %s: mean has shape %s, earlier episodes have %s",
					lineNo, key, shapeString(shape), shapeString(s.shape))
			}
			s.rows = append(s.rows, row)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read episode stats: %w", err)
	}

	out := make(map[string]FieldStats, len(fields))
	for key, s := range fields {
		out[key] = s.summarize()
	}
	return out, nil
}

func hasStatsPrefix(key string) bool {
	for _, p := range statsPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// parseMean extracts the "mean" member of a field's stats as flat values and
// a shape. ok is false when the field is not an object or has no mean.
func parseMean(raw json.RawMessage) (row []float64, shape []int, ok bool, err error) {
	var field map[string]json.RawMessage
	if json.Unmarshal(raw, &field) != nil {
		return nil, nil, false, nil
	}
	mean, present := field["mean"]
	if !present {
		return nil, nil, false, nil
	}
	var v any
	if err := json.Unmarshal(mean, &v); err != nil {
		return nil, nil, false, err
	}
	if v == nil {
		return nil, nil, false, nil
	}
	row, shape, err = flatten(v)
	if err != nil {
		return nil, nil, false, err
	}
	return row, shape, true, nil
}

// flatten turns a number or a rectangular nested list of numbers into
// row-major values and the list's shape.
func flatten(v any) ([]float64, []int, error) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, nil, nil
	case []any:
		if len(x) == 0 {
			return nil, nil, fmt.Errorf("mean is an empty list")
		}
		var flat []float64
		var inner []int
		for i, elem := range x {
			vals, shape, err := flatten(elem)
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				inner = shape
			} else if !equalShape(inner, shape) {
				return nil, nil, fmt.Errorf("mean is a ragged list")
			}
			flat = append(flat, vals...)
		}
		return flat, append([]int{len(x)}, inner...), nil
	}
	return nil, nil, fmt.Errorf("mean must be a number or a list of numbers")
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeString(shape []int) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "x")
}

func (s *series) summarize() FieldStats {
	dim := len(s.rows[0])
	stat := func(f func([]float64) float64) Value {
		v := Value{Values: make([]float64, dim), Shape: s.shape}
		col := make([]float64, len(s.rows))
		for j := 0; j < dim; j++ {
			for i, row := range s.rows {
				col[i] = row[j]
			}
			v.Values[j] = f(col)
		}
		return v
	}
	return FieldStats{
		Mean: stat(mean),
		Std:  stat(stddev),
		Min:  stat(minOf),
		Max:  stat(maxOf),
		Q01:  stat(func(xs []float64) float64 { return percentile(xs, 1) }),
		Q99:  stat(func(xs []float64) float64 { return percentile(xs, 99) }),
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

// percentile interpolates linearly between the closest ranks.
func percentile(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// ProcessStats aggregates metaDir/episodes_stats.jsonl into
// metaDir/stats.json and returns the output path and the statistics.
func ProcessStats(metaDir string) (string, map[string]FieldStats, error) {
	in := filepath.Join(metaDir, EpisodeStatsFile)
	f, err := os.Open(in)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	stats, err := AggregateStats(f)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", in, err)
	}
	out := filepath.Join(metaDir, GlobalStatsFile)
	if err := writeJSON(out, stats); err != nil {
		return "", nil, err
	}
	return out, stats, nil
}
