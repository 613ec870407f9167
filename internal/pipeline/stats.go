package pipeline

import (
	"errors"
	"strconv"
	"time"

	"github.com/backmassage/dsconvert/internal/display"
	"github.com/backmassage/dsconvert/internal/logging"
)

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	// NotStarted counts failures caused by cancellation before a slot freed up.
	NotStarted       int
	TotalInputBytes  int64
	TotalOutputBytes int64
	Elapsed          time.Duration
}

// Record folds one result into the counters.
func (s *RunStats) Record(r Result) {
	switch r.State {
	case Completed:
		s.Completed++
		if r.OutputBytes > 0 {
			s.TotalInputBytes += r.InputBytes
			s.TotalOutputBytes += r.OutputBytes
		}
	case Skipped:
		s.Skipped++
	default:
		s.Failed++
		if errors.Is(r.Err, ErrNotStarted) {
			s.NotStarted++
		}
	}
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// OK reports whether no job failed.
func (s *RunStats) OK() bool { return s.Failed == 0 }

// SummaryTable renders the counters as a two-column table.
func (s *RunStats) SummaryTable() string {
	rows := [][]string{
		{"Total", strconv.Itoa(s.Total)},
		{"Completed", strconv.Itoa(s.Completed)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Input size", display.FormatBytes(s.TotalInputBytes)},
		{"Output size", display.FormatBytes(s.TotalOutputBytes)},
		{"Size change", display.FormatBytesWithSign(s.TotalOutputBytes - s.TotalInputBytes)},
		{"Elapsed", display.FormatElapsed(s.Elapsed)},
	}
	return display.RenderTable([]string{"Result", "Value"}, rows, []display.Align{display.AlignLeft, display.AlignRight})
}

// LogSummary writes the end-of-run summary lines.
func LogSummary(log *logging.Logger, s *RunStats, dryRun bool) {
	log.Info("==============================")
	log.Info("Done: %d converted, %d skipped, %d failed", s.Completed, s.Skipped, s.Failed)

	if dryRun {
		log.Info("  Size change: n/a (dry run)")
		return
	}
	if s.TotalOutputBytes == 0 {
		return
	}

	saved := s.SpaceSaved()
	if saved >= 0 {
		log.Success("  Space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(s.TotalInputBytes),
			display.FormatBytes(s.TotalOutputBytes))
	} else {
		log.Warn("  Output grew by %s (input %s -> output %s)",
			display.FormatBytes(-saved),
			display.FormatBytes(s.TotalInputBytes),
			display.FormatBytes(s.TotalOutputBytes))
	}
}
