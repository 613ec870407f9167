package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/dsconvert/internal/layout"
)

// JobState is the lifecycle position of a Job.
type JobState int

const (
	Pending JobState = iota
	Running
	Completed
	Skipped
	Failed
)

func (s JobState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Job is one file to convert. Tmp is the staging path ffmpeg writes before
// the final rename onto Dst.
type Job struct {
	Src string
	Dst string
	Tmp string
	Rel string // Relative to the input root; used in logs and manifest keys.
}

// NewJob derives the job for a collected file.
func NewJob(m layout.Match) Job {
	return Job{Src: m.Src, Dst: m.Dst, Tmp: StagingPath(m.Dst), Rel: m.Rel}
}

// NewJobs maps NewJob over matches. Matches that are themselves staging
// files are dropped, so no job's destination is another job's staging path.
func NewJobs(ms []layout.Match) []Job {
	jobs := make([]Job, 0, len(ms))
	for _, m := range ms {
		if IsStagingPath(m.Dst) {
			continue
		}
		jobs = append(jobs, NewJob(m))
	}
	return jobs
}

const stagingInfix = ".dsconvert-tmp"

// StagingPath returns "<dir>/<name>.dsconvert-tmp<ext>" for dst, keeping the
// extension last so ffmpeg picks the destination's container.
func StagingPath(dst string) string {
	ext := filepath.Ext(dst)
	return strings.TrimSuffix(dst, ext) + stagingInfix + ext
}

// IsStagingPath reports whether path has the shape StagingPath produces.
func IsStagingPath(path string) bool {
	ext := filepath.Ext(path)
	return strings.HasSuffix(strings.TrimSuffix(path, ext), stagingInfix)
}

// Result is the outcome of one job.
type Result struct {
	Job         Job
	State       JobState
	Err         error
	Elapsed     time.Duration
	InputBytes  int64
	OutputBytes int64
}
