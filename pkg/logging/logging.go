// Package logging builds the process logger.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the process logger. It discards everything until Setup runs.
var Logger = zap.NewNop()

// Setup builds the process logger and installs it as Logger and as the zap
// globals. debug selects the human-readable development encoder at debug
// level; otherwise records are JSON at info level. On failure Logger falls
// back to an example logger so callers always have one.
func Setup(debug bool, appName, appVersion string) (*zap.Logger, error) {
	logger, err := newConfig(debug).Build(zap.Fields(
		zap.String("appName", appName),
		zap.String("appVersion", appVersion),
	))
	if err != nil {
		Logger = zap.NewExample()
		return Logger, err
	}

	Logger = logger
	zap.ReplaceGlobals(Logger)
	return Logger, nil
}

func newConfig(debug bool) zap.Config {
	if debug {
		return zap.NewDevelopmentConfig()
	}
	cfg := zap.NewProductionConfig()
	// One run logs a line per file; sampling would drop most of them.
	cfg.Sampling = nil
	return cfg
}
