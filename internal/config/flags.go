package config

// This file binds command-line flags for the videos command. Flag values are
// captured into Flags and copied onto a loaded Config only when the user set
// them, so config file and environment values hold otherwise.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds raw flag values for the videos command.
type Flags struct {
	workers         int
	ffmpeg          string
	videoCodec      string
	layout          string
	cameraPrefix    string
	verify          bool
	resume          string
	manifestBackend string
	jobTimeout      int
	forceColor      bool
	noColor         bool
	verbose         bool
	dryRun          bool
}

// RegisterFlags defines the transcode, layout, resume and display flags on fs.
func RegisterFlags(fs *pflag.FlagSet, f *Flags) {
	defineTranscodeFlags(fs, f)
	defineLayoutFlags(fs, f)
	defineResumeFlags(fs, f)
	defineDisplayFlags(fs, f)
}

func defineTranscodeFlags(fs *pflag.FlagSet, f *Flags) {
	fs.IntVarP(&f.workers, "workers", "w", defaultWorkers, "Number of concurrent ffmpeg jobs")
	fs.StringVar(&f.ffmpeg, "ffmpeg", defaultFFmpeg, "ffmpeg executable")
	fs.StringVar(&f.videoCodec, "video-codec", defaultVideoCodec, "ffmpeg video encoder")
	fs.BoolVar(&f.verify, "verify", false, "Probe each output before publishing it")
	fs.IntVar(&f.jobTimeout, "job-timeout", 0, "Per-job timeout in seconds (0 = none)")
	fs.BoolVarP(&f.dryRun, "dry-run", "d", false, "List jobs without encoding")
}

func defineLayoutFlags(fs *pflag.FlagSet, f *Flags) {
	fs.StringVar(&f.layout, "layout", defaultLayoutName, "Input layout: chunked | flat")
	fs.StringVar(&f.cameraPrefix, "camera-prefix", defaultCameraPrefix, "Camera directory name prefix")
}

func defineResumeFlags(fs *pflag.FlagSet, f *Flags) {
	fs.StringVar(&f.resume, "resume", string(ResumeExists), "Skip check: exists | manifest")
	fs.StringVar(&f.manifestBackend, "manifest-backend", string(BackendSQLite), "Manifest store: sqlite | pebble")
}

func defineDisplayFlags(fs *pflag.FlagSet, f *Flags) {
	fs.BoolVar(&f.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
}

// ApplyFlags copies every flag the user set on fs into cfg, then normalizes.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet, f *Flags) error {
	if fs.Changed("workers") {
		cfg.Transcode.Workers = f.workers
	}
	if fs.Changed("ffmpeg") {
		cfg.Transcode.FFmpeg = f.ffmpeg
	}
	if fs.Changed("video-codec") {
		cfg.Transcode.VideoCodec = f.videoCodec
	}
	if fs.Changed("verify") {
		cfg.Transcode.Verify = f.verify
	}
	if fs.Changed("job-timeout") {
		cfg.Transcode.JobTimeoutSeconds = f.jobTimeout
	}
	if fs.Changed("layout") {
		cfg.Layout.Name = f.layout
	}
	if fs.Changed("camera-prefix") {
		cfg.Layout.CameraPrefix = f.cameraPrefix
	}
	if fs.Changed("resume") {
		cfg.Resume.Mode = ResumeMode(f.resume)
	}
	if fs.Changed("manifest-backend") {
		cfg.Resume.ManifestBackend = ManifestBackend(f.manifestBackend)
	}
	if fs.Changed("verbose") {
		cfg.Logging.Verbose = f.verbose
	}
	cfg.DryRun = f.dryRun

	if f.noColor && f.forceColor {
		return fmt.Errorf("--color and --no-color are mutually exclusive")
	}
	if f.noColor {
		cfg.Logging.Color = ColorNever
	} else if f.forceColor {
		cfg.Logging.Color = ColorAlways
	}

	cfg.normalize()
	return nil
}

// SetPaths sets InputDir and OutputDir from the two positional arguments.
func (c *Config) SetPaths(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("need exactly input_dir and output_dir")
	}
	c.InputDir = NormalizeDirArg(strings.TrimSpace(args[0]))
	c.OutputDir = NormalizeDirArg(strings.TrimSpace(args[1]))
	return nil
}
