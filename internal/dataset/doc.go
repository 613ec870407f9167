// Package dataset rewrites and summarizes the metadata of a robotics episode
// dataset: the feature schema in meta/info.json and the per-episode
// statistics in meta/episodes_stats.jsonl.
//
// Every output is computed in full before anything is written, then written
// to a temporary file in the destination directory and renamed into place,
// so a malformed input never leaves a partial output behind.
package dataset

import "errors"

// ErrNoFeatures is returned when a feature schema has no "features" object.
var ErrNoFeatures = errors.New(`feature schema has no "features" object`)

// Feature key prefixes of the schema.
const (
	ImagesPrefix  = "observation.images."
	StatesPrefix  = "observation.states."
	ActionsPrefix = "actions."
)

// File names inside a dataset's meta directory.
const (
	InfoFile         = "info.json"
	SchemaFile       = "modify.json"
	EpisodeStatsFile = "episodes_stats.jsonl"
	GlobalStatsFile  = "stats.json"
)
