package pipeline

import (
	"gitlab.com/tozd/go/errors"
)

// DefaultMaxChars is the largest file, in characters, sent to the service.
const DefaultMaxChars = 100_000

// Run-level failures.
var (
	ErrNoInput        = errors.Base("no input provided")
	ErrAmbiguousInput = errors.Base("both a repository URL and an archive were provided")
	ErrRunInProgress  = errors.Base("another run is in progress")
	ErrUnsafePath     = errors.Base("archive entry escapes the staging directory")
)

// Status is what happened to one file during a run.
type Status int

const (
	StatusTransformed Status = iota
	StatusSkippedIneligible
	StatusSkippedEmpty
	StatusSkippedTooLarge
	StatusServiceFailed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTransformed:
		return "transformed"
	case StatusSkippedIneligible:
		return "skipped_ineligible"
	case StatusSkippedEmpty:
		return "skipped_empty"
	case StatusSkippedTooLarge:
		return "skipped_too_large"
	case StatusServiceFailed:
		return "service_failed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult records the handling of one file.
type FileResult struct {
	Path   string // Slash-separated path relative to the tree root.
	Status Status
	Reason error // Set for StatusServiceFailed and StatusFailed.
}

// Report summarizes one walk over a tree.
type Report struct {
	Processed int // Files overwritten with transformed content.
	Files     []FileResult
}

// Count returns how many files ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Result is what a run hands back to a presentation shell.
type Result struct {
	ArtifactPath string
	Status       string
	Report       Report
}
