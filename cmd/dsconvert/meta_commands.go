package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/dataset"
	"github.com/backmassage/dsconvert/internal/display"
	"github.com/backmassage/dsconvert/internal/logging"
	"github.com/backmassage/dsconvert/internal/term"
)

func newMetaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "meta",
		Short:       "Rewrite and derive dataset metadata files",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newMetaRewriteCommand())
	cmd.AddCommand(newMetaSchemaCommand())
	cmd.AddCommand(newMetaStatsCommand())
	return cmd
}

func consoleLogger(cmd *cobra.Command) *logging.Logger {
	log, err := logging.New(logging.Options{
		Palette: term.Resolve(config.ColorAuto, os.Stdout),
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return logging.Discard()
	}
	return log
}

func newMetaRewriteCommand() *cobra.Command {
	var out string
	var opts dataset.RewriteOptions

	cmd := &cobra.Command{
		Use:   "rewrite <info.json>",
		Short: "Point video features at the new codec and channel naming",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := consoleLogger(cmd)
			defer log.Close()

			target := out
			if target == "" {
				target = args[0]
			}
			n, err := dataset.RewriteInfo(args[0], out, opts)
			if err != nil {
				log.Error("Rewrite failed: %v", err)
				return err
			}
			log.Success("Updated %d video features in %s", n, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this path instead of in place")
	cmd.Flags().StringVar(&opts.FromCodec, "from", "av1", "Codec name to replace")
	cmd.Flags().StringVar(&opts.ToCodec, "to", "h264", "Replacement codec name")
	cmd.Flags().StringVar(&opts.FromName, "from-name", "rgb", "Dimension name to replace")
	cmd.Flags().StringVar(&opts.ToName, "to-name", "channels", "Replacement dimension name")
	return cmd
}

func newMetaSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <meta_dir>",
		Short: "Derive modify.json from meta_dir/info.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := consoleLogger(cmd)
			defer log.Close()

			out, schema, err := dataset.ProcessSchema(args[0])
			if err != nil {
				log.Error("Schema failed: %v", err)
				return err
			}
			log.Success("Wrote %s (%d video, %d state, %d action keys)",
				out, len(schema.Video), len(schema.State), len(schema.Action))
			return nil
		},
	}
}

func newMetaStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <meta_dir>",
		Short: "Aggregate meta_dir/episodes_stats.jsonl into stats.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := consoleLogger(cmd)
			defer log.Close()

			out, stats, err := dataset.ProcessStats(args[0])
			if err != nil {
				log.Error("Stats failed: %v", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), statsTable(stats))
			log.Success("Wrote %s (%d fields)", out, len(stats))
			return nil
		},
	}
}

func statsTable(stats map[string]dataset.FieldStats) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		s := stats[k]
		rows = append(rows, []string{k, s.Mean.ShapeString(), formatFirst(s.Min), formatFirst(s.Max)})
	}
	return display.RenderTable(
		[]string{"Field", "Shape", "Min[0]", "Max[0]"},
		rows,
		[]display.Align{display.AlignLeft, display.AlignRight, display.AlignRight, display.AlignRight},
	)
}

func formatFirst(v dataset.Value) string {
	if len(v.Values) == 0 {
		return "-"
	}
	return strconv.FormatFloat(v.Values[0], 'g', 6, 64)
}
