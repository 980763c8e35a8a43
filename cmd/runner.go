package cmd

import (
	"context"

	"go.uber.org/zap"

	"autodoc/pkg/generate"
	"autodoc/pkg/ignore"
	"autodoc/pkg/pipeline"
)

// newRunner performs the startup work every run depends on: validating the
// settings, connecting to the service and resolving the model once.
func newRunner(ctx context.Context) (*pipeline.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := generate.NewGenAIClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = generate.ResolveModel(ctx, client, cfg.ModelPriority, cfg.DefaultModel, logger)
	}
	timeout, _ := cfg.Timeout()
	transformer := generate.NewTransformer(client, model, timeout, logger)

	classifier, err := ignore.NewClassifier(logger, cfg.Exclude...)
	if err != nil {
		return nil, err
	}

	logger.Info("Pipeline ready",
		zap.String("model", model),
		zap.String("workDir", cfg.WorkDir),
		zap.Int("maxChars", cfg.MaxChars),
		zap.String("pace", cfg.PaceInterval))
	return pipeline.NewRunner(cfg.PipelineOptions(), classifier, transformer, logger), nil
}
