// Package config holds runtime configuration: defaults, the optional TOML
// file, environment and CLI flag overrides, and validation.
//
// Precedence, lowest to highest: [Default], config file, .env file and
// process environment, command-line flags. Callers obtain a ready Config from
// [Load] and apply flags with [ApplyFlags] before calling [Config.Validate].
package config

import (
	"errors"
	"path/filepath"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// ResumeMode selects how an already-converted destination is recognized.
type ResumeMode string

const (
	// ResumeExists skips any job whose destination file exists (default).
	ResumeExists ResumeMode = "exists"
	// ResumeManifest skips only destinations with a matching completion record.
	ResumeManifest ResumeMode = "manifest"
)

// ManifestBackend selects the completion manifest storage engine.
type ManifestBackend string

const (
	BackendSQLite ManifestBackend = "sqlite"
	BackendPebble ManifestBackend = "pebble"
)

// Transcode holds the ffmpeg invocation and worker pool settings.
type Transcode struct {
	FFmpeg            string   `toml:"ffmpeg"`
	FFprobe           string   `toml:"ffprobe"`
	VideoCodec        string   `toml:"video_codec"`
	AudioCodec        string   `toml:"audio_codec"`
	ExtraArgs         []string `toml:"extra_args"`
	Workers           int      `toml:"workers"`
	JobTimeoutSeconds int      `toml:"job_timeout_seconds"` // 0 disables the per-job timeout.
	Verify            bool     `toml:"verify"`
	VerifyTolerance   float64  `toml:"verify_tolerance"` // Seconds of allowed duration drift.
}

// Layout describes which files under the input root become jobs.
type Layout struct {
	Name         string   `toml:"name"`
	CameraPrefix string   `toml:"camera_prefix"`
	Extensions   []string `toml:"extensions"`
	IgnoreFile   string   `toml:"ignore_file"`
}

// Resume controls the skip check for already-converted files.
type Resume struct {
	Mode            ResumeMode      `toml:"mode"`
	ManifestBackend ManifestBackend `toml:"manifest_backend"`
}

// Logging controls console and log file output.
type Logging struct {
	FileName string    `toml:"file_name"`
	Color    ColorMode `toml:"color"`
	Verbose  bool      `toml:"verbose"`
}

// Config holds all runtime settings for a dsconvert invocation.
//
// InputDir, OutputDir and DryRun come from the command line only.
type Config struct {
	Transcode Transcode `toml:"transcode"`
	Layout    Layout    `toml:"layout"`
	Resume    Resume    `toml:"resume"`
	Logging   Logging   `toml:"logging"`

	InputDir  string `toml:"-"`
	OutputDir string `toml:"-"`
	DryRun    bool   `toml:"-"`
}

const (
	defaultFFmpeg          = "ffmpeg"
	defaultFFprobe         = "ffprobe"
	defaultVideoCodec      = "libx264"
	defaultAudioCodec      = "copy"
	defaultWorkers         = 4
	defaultVerifyTolerance = 1.0
	defaultLayoutName      = "chunked"
	defaultCameraPrefix    = "observation.images."
	defaultIgnoreFile      = ".dsconvertignore"
	defaultLogFileName     = "convert_log.txt"
)

// Default returns a Config populated with the reference behavior: four
// workers, libx264 video with audio stream copy, the chunk/camera layout and
// skip-if-exists resumption.
func Default() Config {
	return Config{
		Transcode: Transcode{
			FFmpeg:          defaultFFmpeg,
			FFprobe:         defaultFFprobe,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
			Workers:         defaultWorkers,
			VerifyTolerance: defaultVerifyTolerance,
		},
		Layout: Layout{
			Name:         defaultLayoutName,
			CameraPrefix: defaultCameraPrefix,
			Extensions:   []string{"mp4", "mov", "avi", "mkv"},
			IgnoreFile:   defaultIgnoreFile,
		},
		Resume: Resume{
			Mode:            ResumeExists,
			ManifestBackend: BackendSQLite,
		},
		Logging: Logging{
			FileName: defaultLogFileName,
			Color:    ColorAuto,
		},
	}
}

// LogFilePath returns the fixed log file location under the output root.
func (c *Config) LogFilePath() string {
	if c.OutputDir == "" {
		return ""
	}
	return filepath.Join(c.OutputDir, c.Logging.FileName)
}

// StateDir returns the directory under the output root that holds the
// completion manifest.
func (c *Config) StateDir() string {
	return filepath.Join(c.OutputDir, ".dsconvert")
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, so a rerun never collects its own
// output. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
