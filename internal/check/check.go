// Package check provides system diagnostics (the check command) and
// pre-run dependency validation (CheckDeps) for ffmpeg, ffprobe and the
// configured video encoder.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound    = errors.New("ffmpeg not found")
	ErrFfprobeNotFound   = errors.New("ffprobe not found")
	ErrEncoderTestFailed = errors.New("test encode failed")
)

// testTimeout bounds each diagnostic subprocess.
const testTimeout = 30 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck prints the availability of ffmpeg and ffprobe, the H.264
// encoders ffmpeg reports, and the result of a test encode with the
// configured encoder. It keeps going after a failed step and returns the
// first failure, if any.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) error {
	log.Info("=== System Check ===")

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	keep(checkTool(ctx, log, cfg.Transcode.FFmpeg, "ffmpeg", ErrFfmpegNotFound))
	keep(checkTool(ctx, log, cfg.Transcode.FFprobe, "ffprobe", ErrFfprobeNotFound))
	if first == nil || !errors.Is(first, ErrFfmpegNotFound) {
		listEncoders(ctx, log, cfg.Transcode.FFmpeg)
		keep(checkEncoder(ctx, log, cfg.Transcode))
	}

	if first == nil {
		log.Success("All checks passed")
	}
	return first
}

// checkTool verifies bin resolves to an executable and logs its version line.
func checkTool(ctx context.Context, log Logger, bin, name string, sentinel error) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("%s not found (%s)", name, bin)
		return fmt.Errorf("%w: %s", sentinel, bin)
	}
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		log.Warn("%s found at %s but -version failed: %v", name, path, err)
		return nil
	}
	log.Success("%s: %s", name, firstLine(string(out)))
	return nil
}

// listEncoders logs every H.264-capable encoder ffmpeg reports.
func listEncoders(ctx context.Context, log Logger, bin string) {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	log.Info("H.264 encoders:")
	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "h264") || strings.Contains(lower, "264") {
			log.Info("  %s", strings.TrimSpace(line))
		}
	}
}

func checkEncoder(ctx context.Context, log Logger, t config.Transcode) error {
	log.Info("Testing %s...", t.VideoCodec)
	if err := testEncode(ctx, t); err != nil {
		log.Error("%s test encode failed: %v", t.VideoCodec, err)
		return err
	}
	log.Success("%s works", t.VideoCodec)
	return nil
}

// CheckDeps is the pre-run validation: ffmpeg and ffprobe must resolve and
// a short synthetic encode with the configured video encoder must succeed.
// ffprobe is only required when verification is enabled.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.Transcode.FFmpeg); err != nil {
		return fmt.Errorf("%w: %s", ErrFfmpegNotFound, cfg.Transcode.FFmpeg)
	}
	if cfg.Transcode.Verify {
		if _, err := exec.LookPath(cfg.Transcode.FFprobe); err != nil {
			return fmt.Errorf("%w: %s", ErrFfprobeNotFound, cfg.Transcode.FFprobe)
		}
	}
	return testEncode(ctx, cfg.Transcode)
}

func testEncode(ctx context.Context, t config.Transcode) error {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()
	if err := (ffmpeg.Executor{}).Run(ctx, ffmpeg.BuildTestEncode(t)); err != nil {
		return fmt.Errorf("%w with %s: %w", ErrEncoderTestFailed, t.VideoCodec, err)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}
