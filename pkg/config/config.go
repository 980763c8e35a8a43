// Package config loads autodoc settings from an optional YAML file and the
// environment.
package config

import (
	"os"
	"time"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"autodoc/pkg/generate"
	"autodoc/pkg/pipeline"
)

// DefaultFile is read when no --config flag is given. It may be absent.
const DefaultFile = "autodoc.yaml"

// ErrMissingAPIKey means the service credential is absent.
var ErrMissingAPIKey = errors.Base("GEMINI_API_KEY is not set")

// Config holds every setting of the process.
type Config struct {
	// Generation service
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`          // Skips model negotiation when set.
	ModelPriority  []string `yaml:"model_priority"` // Preferred models, first wins.
	DefaultModel   string   `yaml:"default_model"`  // Used when negotiation fails.
	RequestTimeout string   `yaml:"request_timeout"`

	// Pipeline
	WorkDir      string   `yaml:"work_dir"`
	MaxChars     int      `yaml:"max_chars"`
	PaceInterval string   `yaml:"pace_interval"`
	CloneDepth   int      `yaml:"clone_depth"`
	Exclude      []string `yaml:"exclude"`

	// HTTP shell
	Listen        string `yaml:"listen"`
	MaxUploadSize int64  `yaml:"max_upload_size"`

	Debug bool `yaml:"debug"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ModelPriority:  append([]string(nil), generate.DefaultModelPriority...),
		DefaultModel:   generate.DefaultModel,
		RequestTimeout: "5m",
		WorkDir:        "working_dir",
		MaxChars:       pipeline.DefaultMaxChars,
		PaceInterval:   "1s",
		Listen:         ":7860",
		MaxUploadSize:  256 << 20,
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is only an error when required is true.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return cfg, errors.Errorf("reading config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("AUTODOC_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("AUTODOC_WORK_DIR"); v != "" {
		c.WorkDir = v
	}
}

// Validate checks the settings a run depends on.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.WithStack(ErrMissingAPIKey)
	}
	if c.WorkDir == "" {
		return errors.New("work_dir must not be empty")
	}
	if c.MaxChars <= 0 {
		return errors.Errorf("max_chars must be positive, got %d", c.MaxChars)
	}
	if c.CloneDepth < 0 {
		return errors.Errorf("clone_depth must not be negative, got %d", c.CloneDepth)
	}
	if _, err := c.Pace(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Pace is the minimum delay after every transformed file.
func (c Config) Pace() (time.Duration, error) {
	return parseDuration("pace_interval", c.PaceInterval)
}

// Timeout bounds one call to the generation service.
func (c Config) Timeout() (time.Duration, error) {
	return parseDuration("request_timeout", c.RequestTimeout)
}

// PipelineOptions converts the settings for pipeline.NewRunner. Call
// Validate first.
func (c Config) PipelineOptions() pipeline.Options {
	pace, _ := c.Pace()
	return pipeline.Options{
		WorkDir:    c.WorkDir,
		CloneDepth: c.CloneDepth,
		MaxChars:   c.MaxChars,
		Pace:       pace,
	}
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative, got %s", field, value)
	}
	return d, nil
}
