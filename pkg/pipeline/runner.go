// Package pipeline runs one documentation pass over a project: acquire the
// tree, document its files in place, and package the result.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"autodoc/pkg/ignore"
)

// Status messages shown by presentation shells.
const (
	MsgNoInput = "Please provide a repository URL or a zip archive."
	MsgBusy    = "Another run is in progress, try again later."
)

// Options configures a Runner.
type Options struct {
	WorkDir    string        // Staging location, wiped at the start of every run.
	CloneDepth int           // 0 clones full history.
	MaxChars   int           // Size ceiling in characters, <= 0 means DefaultMaxChars.
	Pace       time.Duration // Minimum delay after every transformed file.
}

// Runner executes runs one at a time against a single staging location.
type Runner struct {
	stage       *Stage
	classifier  *ignore.Classifier
	transformer Transformer
	pacer       Pacer
	maxChars    int
	sem         *semaphore.Weighted
	logger      *zap.Logger
}

// NewRunner wires the stages of a run. classifier holds the process-wide
// exclusion policy; every run adds the tree's own ignore file to a copy.
func NewRunner(opts Options, classifier *ignore.Classifier, transformer Transformer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		stage:       NewStage(opts.WorkDir, opts.CloneDepth, logger),
		classifier:  classifier,
		transformer: transformer,
		pacer:       IntervalPacer(opts.Pace),
		maxChars:    opts.MaxChars,
		sem:         semaphore.NewWeighted(1),
		logger:      logger,
	}
}

// WithPacer replaces the pacer, mainly so tests can run without delay.
func (r *Runner) WithPacer(p Pacer) *Runner {
	r.pacer = p
	return r
}

// Run resets the staging location, materializes src, documents the tree
// and packages it. A nil src fails with ErrNoInput after the reset. A run
// started while another is active fails at once with ErrRunInProgress.
func (r *Runner) Run(ctx context.Context, src Source) (Result, error) {
	if !r.sem.TryAcquire(1) {
		return Result{}, errors.WithStack(ErrRunInProgress)
	}
	defer r.sem.Release(1)

	startTime := time.Now()
	if err := r.stage.Reset(); err != nil {
		return Result{}, err
	}
	if src == nil {
		return Result{}, errors.WithStack(ErrNoInput)
	}

	logger := r.logger.With(zap.Stringer("source", src))
	root, err := r.stage.Acquire(ctx, src)
	if err != nil {
		logger.Error("Failed to acquire project", zap.Error(err))
		return Result{}, err
	}

	classifier := r.classifier.Clone()
	if err := classifier.LoadIgnoreFile(root); err != nil {
		logger.Warn("Ignoring unusable ignore file", zap.Error(err))
		classifier = r.classifier.Clone()
	}

	walker := NewWalker(classifier, r.transformer, r.pacer, r.maxChars, logger)
	report, err := walker.Process(ctx, root)
	if err != nil {
		logger.Error("Documentation pass aborted", zap.Error(err))
		return Result{Report: report}, err
	}

	entries, err := Package(root, r.stage.ArtifactPath())
	if err != nil {
		logger.Error("Failed to package project", zap.Error(err))
		return Result{Report: report}, err
	}

	logger.Info("Run completed",
		zap.String("artifact", r.stage.ArtifactPath()),
		zap.Int("entries", entries),
		zap.Int("processed", report.Processed),
		zap.Duration("elapsed", time.Since(startTime)))

	return Result{
		ArtifactPath: r.stage.ArtifactPath(),
		Status:       fmt.Sprintf("Success! %d files documented. Download below.", report.Processed),
		Report:       report,
	}, nil
}

// Invoke is the contract presentation shells call: at most one of repoURL
// and archivePath is set, and the answer is an artifact path (empty on
// failure) plus a message for the user.
func (r *Runner) Invoke(ctx context.Context, repoURL, archivePath string) (string, string) {
	src, err := SelectSource(repoURL, archivePath)
	if err != nil && !errors.Is(err, ErrNoInput) {
		return "", StatusMessage(err)
	}

	res, err := r.Run(ctx, src)
	if err != nil {
		return "", StatusMessage(err)
	}
	return res.ArtifactPath, res.Status
}

// StatusMessage renders a run failure for the user.
func StatusMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoInput):
		return MsgNoInput
	case errors.Is(err, ErrRunInProgress):
		return MsgBusy
	default:
		return "Error: " + err.Error()
	}
}
