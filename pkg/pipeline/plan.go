package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"

	"autodoc/pkg/ignore"
)

// Plan renders the tree below root the way a run would see it, without
// calling the service: pruned directories are left out and every file is
// tagged with what would happen to it. It also returns how many files
// would be sent to the service.
func Plan(root string, classifier *ignore.Classifier, maxChars int, logger *zap.Logger) (string, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", 0, errors.Errorf("reading tree root %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", 0, errors.Errorf("tree root %s is not a directory", root)
	}

	p := &planner{root: root, classifier: classifier, maxChars: maxChars, logger: logger}
	var b strings.Builder
	b.WriteString(filepath.Base(root) + "/\n")
	p.render(&b, "", "")
	return b.String(), p.pending, nil
}

type planner struct {
	root       string
	classifier *ignore.Classifier
	maxChars   int
	logger     *zap.Logger
	pending    int
}

// render writes the entries of rel. Files come before subdirectories, each
// group in lexical order, matching the order of a run.
func (p *planner) render(b *strings.Builder, rel, prefix string) {
	dir := filepath.Join(p.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		p.logger.Warn("Failed to read directory for plan", zap.String("directory", dir), zap.Error(err))
		return
	}

	var files, dirs []os.DirEntry
	for _, e := range entries {
		switch {
		case e.IsDir():
			if !p.classifier.PruneDir(path.Join(rel, e.Name())) {
				dirs = append(dirs, e)
			}
		case e.Type().IsRegular():
			files = append(files, e)
		}
	}

	ordered := append(files, dirs...)
	for i, e := range ordered {
		connector, extension := "├── ", "│   "
		if i == len(ordered)-1 {
			connector, extension = "└── ", "    "
		}
		relPath := path.Join(rel, e.Name())

		if e.IsDir() {
			fmt.Fprintf(b, "%s%s%s/\n", prefix, connector, e.Name())
			p.render(b, relPath, prefix+extension)
			continue
		}

		_, status, err := inspect(p.classifier, p.maxChars, filepath.Join(p.root, filepath.FromSlash(relPath)), relPath)
		tag := planTag(status)
		if err != nil {
			tag = "unreadable"
		}
		if status == StatusTransformed {
			p.pending++
		}
		fmt.Fprintf(b, "%s%s%s  [%s]\n", prefix, connector, e.Name(), tag)
	}
}

func planTag(s Status) string {
	switch s {
	case StatusTransformed:
		return "document"
	case StatusSkippedIneligible:
		return "skip: ineligible"
	case StatusSkippedEmpty:
		return "skip: empty"
	case StatusSkippedTooLarge:
		return "skip: too large"
	default:
		return s.String()
	}
}
