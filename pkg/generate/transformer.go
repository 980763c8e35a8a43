// Package generate adds documentation to source text through an external
// generation service.
//
// A Transformer never fails: every service problem turns into an Unchanged
// outcome that carries the original text and the reason, so callers can
// tell "the service answered" apart from "the service could not help".
package generate

import (
	"context"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
)

var (
	// ErrEmptyResponse means the service answered with no usable text.
	ErrEmptyResponse = errors.Base("empty response")
	// ErrMalformedResponse means the answer was an opening fence and nothing else.
	ErrMalformedResponse = errors.Base("malformed response")
)

// Kind tags an Outcome.
type Kind int

const (
	// Transformed: the service answered and Text holds the sanitized answer.
	Transformed Kind = iota
	// Unchanged: the service failed and Text holds the original content.
	Unchanged
)

func (k Kind) String() string {
	switch k {
	case Transformed:
		return "transformed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Outcome is the result of transforming one file.
type Outcome struct {
	Kind   Kind
	Text   string
	Reason error // Set for Unchanged.
}

// Transformer turns source text into documented source text.
type Transformer struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewTransformer binds gen to an already resolved model. A zero timeout
// leaves calls bounded only by ctx.
func NewTransformer(gen Generator, model string, timeout time.Duration, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{
		gen:     gen,
		model:   model,
		timeout: timeout,
		logger:  logger.With(zap.String("model", model)),
	}
}

// Model returns the model every call of t uses.
func (t *Transformer) Model() string {
	return t.model
}

// Transform asks the service to document content. The call is made once
// and is never retried.
func (t *Transformer) Transform(ctx context.Context, content, extension string) Outcome {
	p, err := BuildPrompt(content, extension)
	if err != nil {
		return t.unchanged(content, extension, err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := t.gen.Generate(ctx, t.model, p)
	if err != nil {
		return t.unchanged(content, extension, err)
	}

	text, ok := StripFences(text)
	if !ok {
		return t.unchanged(content, extension, errors.WithStack(ErrMalformedResponse))
	}
	if strings.TrimSpace(text) == "" {
		return t.unchanged(content, extension, errors.WithStack(ErrEmptyResponse))
	}

	t.logger.Debug("Generated documentation",
		zap.String("extension", extension),
		zap.Int("inputBytes", len(content)),
		zap.Int("outputBytes", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return Outcome{Kind: Transformed, Text: text}
}

func (t *Transformer) unchanged(content, extension string, reason error) Outcome {
	t.logger.Warn("Generation failed, keeping original content",
		zap.String("extension", extension),
		zap.Error(reason))
	return Outcome{Kind: Unchanged, Text: content, Reason: reason}
}
