package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/display"
	"github.com/backmassage/dsconvert/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the completion manifest of an output tree",
	}
	cmd.AddCommand(newManifestListCommand(ctx))
	return cmd
}

func newManifestListCommand(ctx *commandContext) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "list <output_dir>",
		Short: "List recorded conversions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.OutputDir = config.NormalizeDirArg(strings.TrimSpace(args[0]))
			if cmd.Flags().Changed("manifest-backend") {
				cfg.Resume.ManifestBackend = config.ManifestBackend(backend)
			}

			path, err := manifest.Path(cfg.Resume.ManifestBackend, cfg.StateDir())
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no %s manifest at %s", cfg.Resume.ManifestBackend, path)
			}

			store, err := manifest.Open(cfg.Resume.ManifestBackend, cfg.StateDir())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversions recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), manifestTable(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "manifest-backend", string(config.BackendSQLite), "Manifest store: sqlite | pebble")
	return cmd
}

func manifestTable(records []manifest.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.RelPath,
			display.FormatBytes(r.OutputSize),
			shortHash(r.OutputSHA256),
			r.RunID,
			r.CompletedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return display.RenderTable(
		[]string{"Path", "Size", "SHA-256", "Run", "Completed"},
		rows,
		[]display.Align{display.AlignLeft, display.AlignRight, display.AlignLeft, display.AlignLeft, display.AlignLeft},
	)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
