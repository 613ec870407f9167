package dataset

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Range locates a state or action field inside the flattened vector.
type Range struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	OriginalKey string `json:"original_key"`
}

// VideoRef points a camera name back at its feature key.
type VideoRef struct {
	OriginalKey string `json:"original_key"`
}

// Schema is the grouped view of a feature schema written to modify.json.
// Empty groups are omitted.
type Schema struct {
	Action map[string]Range    `json:"action,omitempty"`
	State  map[string]Range    `json:"state,omitempty"`
	Video  map[string]VideoRef `json:"video,omitempty"`
}

type featureShape struct {
	Shape json.RawMessage `json:"shape"`
}

// TransformFeatures groups features by prefix, keyed by the name with the
// prefix stripped. State and action entries span [0, shape[0]) and are only
// produced for features whose "shape" is a list; an empty list yields end 0.
// Keys matching no prefix are dropped.
func TransformFeatures(features map[string]json.RawMessage) (Schema, error) {
	s := Schema{
		Action: map[string]Range{},
		State:  map[string]Range{},
		Video:  map[string]VideoRef{},
	}
	for key, raw := range features {
		switch {
		case strings.HasPrefix(key, ImagesPrefix):
			s.Video[strings.TrimPrefix(key, ImagesPrefix)] = VideoRef{OriginalKey: key}
		case strings.HasPrefix(key, StatesPrefix):
			if err := addRange(s.State, key, StatesPrefix, raw); err != nil {
				return Schema{}, err
			}
		case strings.HasPrefix(key, ActionsPrefix):
			if err := addRange(s.Action, key, ActionsPrefix, raw); err != nil {
				return Schema{}, err
			}
		}
	}
	return s, nil
}

func addRange(group map[string]Range, key, prefix string, raw json.RawMessage) error {
	var f featureShape
	if err := json.Unmarshal(raw, &f); err != nil {
		// Not an object: nothing to describe.
		return nil
	}
	var shape []json.Number
	if len(f.Shape) == 0 || json.Unmarshal(f.Shape, &shape) != nil {
		return nil
	}
	end := 0
	if len(shape) > 0 {
		n, err := shape[0].Int64()
		if err != nil {
			return fmt.Errorf("feature %s: shape[0] %q is not an integer", key, shape[0])
		}
		end = int(n)
	}
	group[strings.TrimPrefix(key, prefix)] = Range{Start: 0, End: end, OriginalKey: key}
	return nil
}

// ProcessSchema reads metaDir/info.json, transforms its features and writes
// metaDir/modify.json. It returns the output path and the schema.
func ProcessSchema(metaDir string) (string, Schema, error) {
	var doc struct {
		Features map[string]json.RawMessage `json:"features"`
	}
	in := filepath.Join(metaDir, InfoFile)
	if err := readJSON(in, &doc); err != nil {
		return "", Schema{}, err
	}
	if doc.Features == nil {
		return "", Schema{}, fmt.Errorf("%s: %w", in, ErrNoFeatures)
	}
	schema, err := TransformFeatures(doc.Features)
	if err != nil {
		return "", Schema{}, err
	}
	out := filepath.Join(metaDir, SchemaFile)
	if err := writeJSON(out, schema); err != nil {
		return "", Schema{}, err
	}
	return out, schema, nil
}
