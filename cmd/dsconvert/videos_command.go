package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backmassage/dsconvert/internal/check"
	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/display"
	"github.com/backmassage/dsconvert/internal/ffmpeg"
	"github.com/backmassage/dsconvert/internal/logging"
	"github.com/backmassage/dsconvert/internal/manifest"
	"github.com/backmassage/dsconvert/internal/pipeline"
	"github.com/backmassage/dsconvert/internal/term"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:   "videos <input_dir> <output_dir>",
		Short: "Transcode every camera video under input_dir into output_dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(cfg, cmd.Flags(), &flags); err != nil {
				return err
			}
			if err := cfg.SetPaths(args); err != nil {
				return err
			}
			if err := cfg.Validate(true); err != nil {
				return err
			}
			return runVideos(cmd, cfg)
		},
	}
	config.RegisterFlags(cmd.Flags(), &flags)
	return cmd
}

func runVideos(cmd *cobra.Command, cfg *config.Config) error {
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("input not found: %s", cfg.InputDir)
	}
	outputAbs, err := resolvePending(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output path %s: %w", cfg.OutputDir, err)
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		return fmt.Errorf("%w; choose an output path outside %s", err, cfg.InputDir)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}

	log, err := logging.New(logging.Options{
		FilePath: cfg.LogFilePath(),
		Palette:  term.Resolve(cfg.Logging.Color, os.Stdout),
		Verbose:  cfg.Logging.Verbose,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(cmd.OutOrStdout(), log.Palette())

	runID := uuid.NewString()
	log.Info("=== dsconvert %s ===", version)
	log.Info("Run: %s", runID)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)
	log.Info("Log: %s", log.FilePath())
	if cfg.DryRun {
		log.Warn("DRY RUN")
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.DryRun {
		if err := check.CheckDeps(runCtx, cfg); err != nil {
			log.Error("%v", err)
			return err
		}
	}

	deps := pipeline.Deps{RunID: runID}
	exec := ffmpeg.Executor{}
	if log.Verbose() {
		exec.Tee = cmd.ErrOrStderr()
	}
	deps.Runner = exec

	if cfg.Transcode.Verify {
		deps.Verifier = pipeline.NewProbeVerifier(cfg.Transcode)
	}

	if cfg.Resume.Mode == config.ResumeManifest {
		store, err := manifest.Open(cfg.Resume.ManifestBackend, cfg.StateDir())
		if err != nil {
			log.Error("Cannot open manifest: %v", err)
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("Closing manifest: %v", err)
			}
		}()
		deps.Manifest = store
		log.Info("Manifest: %s (%s)", cfg.StateDir(), cfg.Resume.ManifestBackend)
	}
	log.Info("")

	stats, err := pipeline.Run(runCtx, cfg, log, deps)
	if err != nil {
		log.Error("%v", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), stats.SummaryTable())

	if runCtx.Err() != nil {
		return fmt.Errorf("interrupted: %w", context.Canceled)
	}
	if !stats.OK() {
		return fmt.Errorf("%d of %d conversions failed", stats.Failed, stats.Total)
	}
	return nil
}
