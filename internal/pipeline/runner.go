package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/ffmpeg"
	"github.com/backmassage/dsconvert/internal/layout"
	"github.com/backmassage/dsconvert/internal/logging"
	"github.com/backmassage/dsconvert/internal/manifest"
)

// Deps are the collaborators Run hands to each Converter.
type Deps struct {
	Runner   ffmpeg.Runner
	Verifier Verifier       // Optional.
	Manifest manifest.Store // Optional; required for resume mode "manifest".
	RunID    string
}

// Run is the top-level batch entry point. It collects jobs from
// cfg.InputDir (creating the mirrored output directories), converts them
// through a Pool and logs the summary. The error is non-nil only when
// collection fails; per-job failures are counted in the returned stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, deps Deps) (RunStats, error) {
	l, err := layout.Lookup(cfg.Layout)
	if err != nil {
		return RunStats{}, err
	}
	ignore, err := layout.LoadIgnore(cfg.InputDir, cfg.Layout.IgnoreFile)
	if err != nil {
		return RunStats{}, err
	}
	matches, err := layout.Collect(cfg.InputDir, cfg.OutputDir, l, ignore)
	if err != nil {
		return RunStats{}, fmt.Errorf("collect jobs: %w", err)
	}
	jobs := NewJobs(matches)

	logBatchHeader(cfg, log, l, len(jobs))

	conv := &Converter{
		Transcode: cfg.Transcode,
		Runner:    deps.Runner,
		Log:       log,
		Verifier:  deps.Verifier,
		Manifest:  deps.Manifest,
		RunID:     deps.RunID,
		DryRun:    cfg.DryRun,
	}
	pool := Pool{
		Workers: cfg.Transcode.Workers,
		Timeout: time.Duration(cfg.Transcode.JobTimeoutSeconds) * time.Second,
		Log:     log,
	}
	stats := pool.Run(ctx, jobs, conv.Convert)

	LogSummary(log, &stats, cfg.DryRun)
	return stats, nil
}

func logBatchHeader(cfg *config.Config, log *logging.Logger, l layout.Layout, jobs int) {
	log.Info("Found %d videos (layout %s, camera prefix %q)", jobs, l.Name, cfg.Layout.CameraPrefix)

	video := cfg.Transcode.VideoCodec
	if len(cfg.Transcode.ExtraArgs) > 0 {
		video += " " + strings.Join(cfg.Transcode.ExtraArgs, " ")
	}
	log.Info("Video: %s, audio: %s, workers: %d", video, cfg.Transcode.AudioCodec, cfg.Transcode.Workers)

	if cfg.Transcode.JobTimeoutSeconds > 0 {
		log.Info("Job timeout: %ds", cfg.Transcode.JobTimeoutSeconds)
	}
	if cfg.Transcode.Verify {
		log.Info("Verify: codec %s, duration within %.2fs",
			ffmpeg.ExpectedCodecName(cfg.Transcode.VideoCodec), cfg.Transcode.VerifyTolerance)
	}
	if cfg.Resume.Mode == config.ResumeManifest {
		log.Info("Resume: completion manifest (%s)", cfg.Resume.ManifestBackend)
	} else {
		log.Info("Resume: skip existing outputs")
	}
	if cfg.DryRun {
		log.Warn("Dry run: no files will be converted")
	}
}
