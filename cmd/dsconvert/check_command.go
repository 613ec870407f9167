package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/dsconvert/internal/check"
	"github.com/backmassage/dsconvert/internal/logging"
	"github.com/backmassage/dsconvert/internal/term"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg, ffprobe and encoder availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(false); err != nil {
				return err
			}
			log, err := logging.New(logging.Options{
				Palette: term.Resolve(cfg.Logging.Color, os.Stdout),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer log.Close()
			return check.RunCheck(cmd.Context(), cfg, log)
		},
	}
}
