// Package ignore decides which paths of a project tree are eligible for
// documentation and which directories are pruned from traversal.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
)

// IgnoreFileName is the per-project file holding extra exclusion globs.
const IgnoreFileName = ".docignore"

// DeniedExtensions lists non-source formats that are never transformed.
var DeniedExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".csv": true, ".html": true, ".css": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".pdf": true,
	".zip": true, ".svg": true,
	".lock": true, ".gitignore": true, ".dockerignore": true, ".env": true, ".map": true,
}

// DeniedDirs lists directory names that are never descended into.
var DeniedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	"env":          true,
	".idea":        true,
	".vscode":      true,
	"build":        true,
	"dist":         true,
	"bin":          true,
}

// Pattern is one compiled exclusion glob and where it came from.
type Pattern struct {
	Glob     string // Doublestar glob matched against slash-separated relative paths.
	Anchored bool   // Leading '/' in the source: match from the tree root only.
	Source   string // File the glob was read from, or "config".
	LineNo   int    // Line number in Source (1-based), 0 when not from a file.
}

// Classifier applies the built-in deny-sets plus any extra exclusion globs.
type Classifier struct {
	patterns []Pattern
	logger   *zap.Logger
}

// NewClassifier returns a Classifier with the built-in policy and the given
// extra globs. Invalid globs are rejected.
func NewClassifier(logger *zap.Logger, globs ...string) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{logger: logger}
	if err := c.AddPatterns("config", globs...); err != nil {
		return nil, err
	}
	return c, nil
}

// AddPatterns compiles extra exclusion globs. Blank lines and '#' comments
// are skipped so that ignore-file contents can be passed line by line.
func (c *Classifier) AddPatterns(source string, lines ...string) error {
	for i, line := range lines {
		glob := strings.TrimSpace(line)
		if glob == "" || strings.HasPrefix(glob, "#") {
			continue
		}
		anchored := strings.HasPrefix(glob, "/")
		glob = strings.TrimPrefix(strings.TrimSuffix(glob, "/"), "/")
		if !doublestar.ValidatePattern(glob) {
			return errors.Errorf("invalid exclude pattern %q (%s:%d)", line, source, i+1)
		}
		p := Pattern{Glob: glob, Anchored: anchored, Source: source}
		if source != "config" {
			p.LineNo = i + 1
		}
		c.patterns = append(c.patterns, p)
		c.logger.Debug("Compiled exclude pattern",
			zap.String("pattern", glob),
			zap.String("source", source),
			zap.Int("lineNo", p.LineNo))
	}
	return nil
}

// LoadIgnoreFile reads IgnoreFileName from root, if present, and adds its
// globs. A missing file is not an error.
func (c *Classifier) LoadIgnoreFile(root string) error {
	path := filepath.Join(root, IgnoreFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Debug("No ignore file in tree", zap.String("filePath", path))
			return nil
		}
		return errors.Errorf("reading ignore file %s: %w", path, err)
	}
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	before := len(c.patterns)
	if err := c.AddPatterns(path, lines...); err != nil {
		return err
	}
	c.logger.Info("Loaded ignore file", zap.String("filePath", path), zap.Int("patternCount", len(c.patterns)-before))
	return nil
}

// Patterns returns a copy of the extra exclusion globs.
func (c *Classifier) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

// Clone returns an independent copy, so per-run ignore files do not leak
// into the next run.
func (c *Classifier) Clone() *Classifier {
	return &Classifier{patterns: c.Patterns(), logger: c.logger}
}

// PruneDir reports whether the directory at relPath (relative to the tree
// root) must not be descended into.
func (c *Classifier) PruneDir(relPath string) bool {
	if DeniedDirs[filepath.Base(relPath)] {
		return true
	}
	return c.excluded(relPath)
}

// Eligible reports whether the file at relPath may be transformed.
func (c *Classifier) Eligible(relPath string) bool {
	ext := Extension(relPath)
	if len(ext) <= 1 || DeniedExtensions[ext] {
		return false
	}
	return !c.excluded(relPath)
}

func (c *Classifier) excluded(relPath string) bool {
	slashed := filepath.ToSlash(relPath)
	for _, p := range c.patterns {
		if ok, _ := doublestar.Match(p.Glob, slashed); ok {
			return true
		}
		// Bare names such as "*.gen.go" or "vendor" match at any depth.
		if !p.Anchored && !strings.Contains(p.Glob, "/") {
			if ok, _ := doublestar.Match(p.Glob, filepath.Base(relPath)); ok {
				return true
			}
		}
	}
	return false
}

// Extension returns the lower-cased extension of the base name of path,
// including the dot. Leading dots of the base name do not start an
// extension, so ".bashrc" has none and "a." has ".".
func Extension(path string) string {
	base := strings.TrimLeft(filepath.Base(path), ".")
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i:])
}
