package generate

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	// GenerateAction is the method a model must support to be selectable.
	GenerateAction = "generateContent"

	// DefaultModel is used when the service cannot be asked for its models.
	DefaultModel = "gemini-pro"
)

// DefaultModelPriority orders the preferred models, fast and cheap first.
var DefaultModelPriority = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}

// ResolveModel picks the model every transformation of the process uses.
// It returns the first entry of priority the service offers for content
// generation, else the first such model listed, else fallback.
func ResolveModel(ctx context.Context, lister ModelLister, priority []string, fallback string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == "" {
		fallback = DefaultModel
	}

	models, err := lister.ListModels(ctx)
	if err != nil {
		logger.Error("Failed to list models, using fallback", zap.String("model", fallback), zap.Error(err))
		return fallback
	}

	var available []string
	for _, m := range models {
		if slices.Contains(m.Actions, GenerateAction) {
			available = append(available, m.Name)
		}
	}
	logger.Info("Checked available models", zap.Strings("models", available))

	for _, want := range priority {
		for _, name := range available {
			if shortName(name) == shortName(want) {
				logger.Info("Selected model", zap.String("model", shortName(want)))
				return shortName(want)
			}
		}
	}

	if len(available) == 0 {
		logger.Warn("Service offered no generation models, using fallback", zap.String("model", fallback))
		return fallback
	}

	logger.Info("Selected first available model", zap.String("model", available[0]))
	return shortName(available[0])
}

func shortName(name string) string {
	return strings.TrimPrefix(name, "models/")
}
