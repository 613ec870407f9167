package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// ExecError describes a failed ffmpeg invocation.
type ExecError struct {
	Args     []string
	ExitCode int // -1 when the process never started or was killed.
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("ffmpeg failed: %v", e.Err)
	}
	if reason := Classify(e.Stderr); reason != "" {
		msg += " (" + reason + ")"
	}
	if tail := StderrTail(e.Stderr, 3); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var classifiers = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found`), "encoder unavailable"},
	{regexp.MustCompile(`No such file or directory`), "input missing"},
	{regexp.MustCompile(`Invalid data found when processing input|moov atom not found`), "input unreadable"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
	{regexp.MustCompile(`(?i)height not divisible by 2|width not divisible by 2`), "odd frame dimensions"},
}

// Classify returns a short reason for a known ffmpeg failure signature, or ""
// when stderr matches none.
func Classify(stderr string) string {
	for _, c := range classifiers {
		if c.re.MatchString(stderr) {
			return c.reason
		}
	}
	return ""
}

// StderrTail returns the last n non-empty lines of stderr joined by " | ".
func StderrTail(stderr string, n int) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " | ")
}
