package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"
)

type fakeLister struct {
	models []ModelInfo
	err    error
}

func (f fakeLister) ListModels(context.Context) ([]ModelInfo, error) {
	return f.models, f.err
}

func generating(names ...string) []ModelInfo {
	var out []ModelInfo
	for _, n := range names {
		out = append(out, ModelInfo{Name: n, Actions: []string{"countTokens", GenerateAction}})
	}
	return out
}

func TestResolveModel(t *testing.T) {
	ctx := context.Background()

	t.Run("first priority entry wins", func(t *testing.T) {
		l := fakeLister{models: generating("models/gemini-pro", "models/gemini-1.5-pro", "models/gemini-1.5-flash")}
		assert.Equal(t, "gemini-1.5-flash", ResolveModel(ctx, l, DefaultModelPriority, "", nil))
	})

	t.Run("falls through priority list", func(t *testing.T) {
		l := fakeLister{models: generating("models/gemini-pro", "models/gemini-1.5-pro")}
		assert.Equal(t, "gemini-1.5-pro", ResolveModel(ctx, l, DefaultModelPriority, "", nil))
	})

	t.Run("models without generateContent are ignored", func(t *testing.T) {
		l := fakeLister{models: append(
			[]ModelInfo{{Name: "models/gemini-1.5-flash", Actions: []string{"embedContent"}}},
			generating("models/gemini-pro")...,
		)}
		assert.Equal(t, "gemini-pro", ResolveModel(ctx, l, DefaultModelPriority, "", nil))
	})

	t.Run("first listed model when nothing preferred", func(t *testing.T) {
		l := fakeLister{models: generating("models/gemini-2.0-flash", "models/gemini-2.5-pro")}
		assert.Equal(t, "gemini-2.0-flash", ResolveModel(ctx, l, DefaultModelPriority, "", nil))
	})

	t.Run("listing failure uses fallback", func(t *testing.T) {
		l := fakeLister{err: errors.New("network down")}
		assert.Equal(t, DefaultModel, ResolveModel(ctx, l, DefaultModelPriority, "", nil))
		assert.Equal(t, "custom", ResolveModel(ctx, l, DefaultModelPriority, "custom", nil))
	})

	t.Run("empty listing uses fallback", func(t *testing.T) {
		assert.Equal(t, DefaultModel, ResolveModel(ctx, fakeLister{}, DefaultModelPriority, "", nil))
	})
}
