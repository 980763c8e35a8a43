package pipeline

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"

	"autodoc/pkg/generate"
	"autodoc/pkg/ignore"
)

// Transformer documents the content of one file.
type Transformer interface {
	Transform(ctx context.Context, content, extension string) generate.Outcome
}

// Walker rewrites every eligible file of a tree in place.
type Walker struct {
	classifier  *ignore.Classifier
	transformer Transformer
	pacer       Pacer
	maxChars    int
	logger      *zap.Logger
}

// NewWalker builds a Walker. A nil pacer never blocks; maxChars <= 0 means
// DefaultMaxChars.
func NewWalker(classifier *ignore.Classifier, transformer Transformer, pacer Pacer, maxChars int, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pacer == nil {
		pacer = NoPacer{}
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Walker{
		classifier:  classifier,
		transformer: transformer,
		pacer:       pacer,
		maxChars:    maxChars,
		logger:      logger,
	}
}

// Process walks root top-down in lexical order. Within a directory its
// files are handled before its subdirectories, and pruned subdirectories
// are never listed. Per-file problems are recorded in the report and never
// stop the walk; only an unreadable root or a cancelled ctx does.
func (w *Walker) Process(ctx context.Context, root string) (Report, error) {
	startTime := time.Now()
	w.logger.Info("Starting documentation pass", zap.String("directory", root))

	var report Report
	info, err := os.Stat(root)
	if err != nil {
		return report, errors.Errorf("reading tree root %s: %w", root, err)
	}
	if !info.IsDir() {
		return report, errors.Errorf("tree root %s is not a directory", root)
	}

	if err := w.walkDir(ctx, root, "", &report); err != nil {
		return report, err
	}

	w.logger.Info("Documentation pass completed",
		zap.Int("processed", report.Processed),
		zap.Int("serviceFailures", report.Count(StatusServiceFailed)),
		zap.Int("failures", report.Count(StatusFailed)),
		zap.Duration("elapsed", time.Since(startTime)))
	return report, nil
}

func (w *Walker) walkDir(ctx context.Context, root, rel string, report *Report) error {
	dir := filepath.Join(root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("Error reading directory", zap.String("directory", dir), zap.Error(err))
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		relPath := path.Join(rel, entry.Name())
		switch {
		case entry.IsDir():
			if w.classifier.PruneDir(relPath) {
				w.logger.Debug("Pruning directory", zap.String("directory", relPath))
				continue
			}
			subdirs = append(subdirs, relPath)
		case entry.Type().IsRegular():
			if err := ctx.Err(); err != nil {
				return errors.Errorf("documentation pass interrupted: %w", err)
			}
			result := w.processFile(ctx, root, relPath)
			report.Files = append(report.Files, result)
			switch result.Status {
			case StatusTransformed:
				report.Processed++
				w.pacer.Wait()
			case StatusServiceFailed:
				w.pacer.Wait()
			}
		default:
			w.logger.Debug("Skipping non-regular entry", zap.String("path", relPath))
		}
	}

	for _, sub := range subdirs {
		if err := w.walkDir(ctx, root, sub, report); err != nil {
			return err
		}
	}
	return nil
}

// processFile handles one file and reports what happened to it.
func (w *Walker) processFile(ctx context.Context, root, relPath string) FileResult {
	result := FileResult{Path: relPath}
	filePath := filepath.Join(root, filepath.FromSlash(relPath))

	content, skip, err := inspect(w.classifier, w.maxChars, filePath, relPath)
	if err != nil {
		w.logger.Error("Failed to read file", zap.String("filePath", relPath), zap.Error(err))
		result.Status, result.Reason = StatusFailed, err
		return result
	}
	if skip != StatusTransformed {
		w.logger.Debug("Skipping file", zap.String("filePath", relPath), zap.Stringer("status", skip))
		result.Status = skip
		return result
	}

	outcome := w.transformer.Transform(ctx, content, ignore.Extension(relPath))
	if outcome.Kind != generate.Transformed {
		w.logger.Warn("File left unchanged", zap.String("filePath", relPath), zap.Error(outcome.Reason))
		result.Status, result.Reason = StatusServiceFailed, outcome.Reason
		return result
	}

	if err := overwrite(filePath, outcome.Text); err != nil {
		w.logger.Error("Failed to write file", zap.String("filePath", relPath), zap.Error(err))
		result.Status, result.Reason = StatusFailed, err
		return result
	}

	w.logger.Info("Documented file", zap.String("filePath", relPath))
	result.Status = StatusTransformed
	return result
}

// inspect decides whether a file goes to the service. It returns the
// decoded content and StatusTransformed when it does, or the skip status.
// Files larger than utf8.UTFMax bytes per allowed character are too large
// whatever their encoding and are not read.
func inspect(classifier *ignore.Classifier, maxChars int, filePath, relPath string) (string, Status, error) {
	if !classifier.Eligible(relPath) {
		return "", StatusSkippedIneligible, nil
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return "", StatusFailed, errors.Errorf("stat %s: %w", filePath, err)
	}
	if info.Size() > int64(utf8.UTFMax)*int64(maxChars) {
		return "", StatusSkippedTooLarge, nil
	}
	content, err := readLossy(filePath)
	if err != nil {
		return "", StatusFailed, err
	}
	if strings.TrimSpace(content) == "" {
		return "", StatusSkippedEmpty, nil
	}
	if utf8.RuneCountInString(content) > maxChars {
		return "", StatusSkippedTooLarge, nil
	}
	return content, StatusTransformed, nil
}

// readLossy reads a file as UTF-8, dropping invalid byte sequences.
func readLossy(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Errorf("reading %s: %w", filePath, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// overwrite replaces the content of an existing file, keeping its mode.
// The new content goes to a sibling temp file first, so a failed write
// leaves the original intact.
func overwrite(filePath, content string) (err error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return errors.Errorf("stat %s: %w", filePath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*")
	if err != nil {
		return errors.Errorf("creating temp file for %s: %w", filePath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return errors.Errorf("writing %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("writing %s: %w", filePath, err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return errors.Errorf("chmod %s: %w", filePath, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return errors.Errorf("replacing %s: %w", filePath, err)
	}
	return nil
}
