package dataset

import (
	"fmt"
	"strings"
)

// RewriteOptions controls RewriteInfo. Zero fields take the defaults
// av1 -> h264 for codecs and rgb -> channels for axis names.
type RewriteOptions struct {
	FromCodec string
	ToCodec   string
	FromName  string
	ToName    string
}

func (o RewriteOptions) withDefaults() RewriteOptions {
	if o.FromCodec == "" {
		o.FromCodec = "av1"
	}
	if o.ToCodec == "" {
		o.ToCodec = "h264"
	}
	if o.FromName == "" {
		o.FromName = "rgb"
	}
	if o.ToName == "" {
		o.ToName = "channels"
	}
	return o
}

// RewriteInfo updates the camera features of the info.json at in to describe
// transcoded videos and writes the document to out (in when out is empty).
// It returns the number of features that changed.
func RewriteInfo(in, out string, opts RewriteOptions) (int, error) {
	if out == "" {
		out = in
	}
	var doc map[string]any
	if err := readJSON(in, &doc); err != nil {
		return 0, err
	}
	changed, err := RewriteDocument(doc, opts)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in, err)
	}
	if err := writeJSON(out, doc); err != nil {
		return 0, err
	}
	return changed, nil
}

// RewriteDocument applies the camera feature rewrite to a decoded info.json
// in place: under every "observation.images.*" feature, entries of "names"
// equal to FromName become ToName, and "info"."video.codec" equal to
// FromCodec becomes ToCodec.
func RewriteDocument(doc map[string]any, opts RewriteOptions) (int, error) {
	opts = opts.withDefaults()
	features, ok := doc["features"].(map[string]any)
	if !ok {
		return 0, ErrNoFeatures
	}

	changed := 0
	for key, raw := range features {
		if !strings.HasPrefix(key, ImagesPrefix) {
			continue
		}
		feature, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		touched := false
		if names, ok := feature["names"].([]any); ok {
			for i, name := range names {
				if name == opts.FromName {
					names[i] = opts.ToName
					touched = true
				}
			}
		}
		if info, ok := feature["info"].(map[string]any); ok {
			if info["video.codec"] == opts.FromCodec {
				info["video.codec"] = opts.ToCodec
				touched = true
			}
		}
		if touched {
			changed++
		}
	}
	return changed, nil
}
