package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/display"
	"github.com/backmassage/dsconvert/internal/ffmpeg"
	"github.com/backmassage/dsconvert/internal/logging"
	"github.com/backmassage/dsconvert/internal/manifest"
)

// Verifier checks a finished staging file before it is published.
type Verifier interface {
	Verify(ctx context.Context, src, out string) error
}

// Converter turns one Job into a Result. The zero value is not usable;
// Transcode, Runner and Log are required.
type Converter struct {
	Transcode config.Transcode
	Runner    ffmpeg.Runner
	Log       *logging.Logger

	// Verifier is consulted after ffmpeg succeeds; nil disables verification.
	Verifier Verifier
	// Manifest, when set, switches the skip check to completion records and
	// receives a record for every published output.
	Manifest manifest.Store
	RunID    string
	DryRun   bool
}

// Convert runs job to completion. It never panics on conversion errors and
// never returns Pending or Running.
func (c *Converter) Convert(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job}

	if err := ctx.Err(); err != nil {
		res.State = Failed
		res.Err = fmt.Errorf("%w: %w", ErrNotStarted, err)
		return res
	}

	skip, err := c.shouldSkip(ctx, job)
	if err != nil {
		return c.fail(res, start, err)
	}
	if skip {
		c.Log.Info("Skipping existing file: %s", job.Dst)
		res.State = Skipped
		res.Elapsed = time.Since(start)
		return res
	}

	fi, err := os.Stat(job.Src)
	if err != nil {
		return c.fail(res, start, fmt.Errorf("stat source: %w", err))
	}
	res.InputBytes = fi.Size()

	if c.DryRun {
		c.Log.Success("[DRY] Would convert %s -> %s", job.Src, job.Dst)
		res.State = Completed
		res.Elapsed = time.Since(start)
		return res
	}

	c.Log.Info("Converting %s to %s", job.Src, strings.ToUpper(ffmpeg.ExpectedCodecName(c.Transcode.VideoCodec)))
	args := ffmpeg.Build(c.Transcode, job.Src, job.Tmp)
	c.Log.Debug("  %s", strings.Join(args, " "))

	if err := c.Runner.Run(ctx, args); err != nil {
		return c.fail(res, start, err)
	}

	if c.Verifier != nil {
		if err := c.Verifier.Verify(ctx, job.Src, job.Tmp); err != nil {
			return c.fail(res, start, err)
		}
	}

	if err := os.Rename(job.Tmp, job.Dst); err != nil {
		return c.fail(res, start, fmt.Errorf("publish output: %w", err))
	}
	if fi, err := os.Stat(job.Dst); err == nil {
		res.OutputBytes = fi.Size()
	}

	if c.Manifest != nil {
		c.record(ctx, job)
	}

	res.State = Completed
	res.Elapsed = time.Since(start)
	c.Log.Info("Conversion completed: %s -> %s (%s, %s)", job.Src, job.Dst,
		display.FormatBytes(res.OutputBytes), display.FormatElapsed(res.Elapsed))
	return res
}

// shouldSkip implements the resume check. Without a manifest any existing
// destination counts as done; with one, only a destination whose record
// still matches both files does.
func (c *Converter) shouldSkip(ctx context.Context, job Job) (bool, error) {
	if _, err := os.Stat(job.Dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat destination: %w", err)
	}
	if c.Manifest == nil {
		return true, nil
	}

	rec, err := c.Manifest.Get(ctx, job.Rel)
	if err != nil {
		return false, err
	}
	if rec == nil {
		c.Log.Info("Re-converting %s: no completion record", job.Rel)
		return false, nil
	}
	ok, reason, err := rec.Verify(job.Src, job.Dst)
	if err != nil {
		return false, err
	}
	if !ok {
		c.Log.Info("Re-converting %s: %s", job.Rel, reason)
	}
	return ok, nil
}

func (c *Converter) record(ctx context.Context, job Job) {
	rec, err := manifest.Observe(job.Rel, job.Src, job.Dst, c.RunID)
	if err == nil {
		err = c.Manifest.Put(ctx, rec)
	}
	if err != nil {
		c.Log.Warn("Could not record %s in manifest: %v", job.Rel, err)
	}
}

func (c *Converter) fail(res Result, start time.Time, err error) Result {
	c.Log.Error("Conversion failed: %s, error: %v", res.Job.Src, err)
	res.State = Failed
	res.Err = err
	res.Elapsed = time.Since(start)
	return res
}
