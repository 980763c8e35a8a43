package pipeline

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
)

const (
	inputDirName     = "input"
	artifactFileName = "documented_project.zip"
)

// Source is where a run takes its project from: an ArchiveSource or a
// RepositorySource.
type Source interface {
	source()
	String() string
}

// ArchiveSource is a zip archive on local disk.
type ArchiveSource struct {
	Path string
}

func (ArchiveSource) source()          {}
func (s ArchiveSource) String() string { return "archive " + s.Path }

// RepositorySource is a git repository to clone.
type RepositorySource struct {
	URL string
}

func (RepositorySource) source()          {}
func (s RepositorySource) String() string { return "repository " + s.URL }

// SelectSource turns the two optional inputs of a shell into a Source.
// Exactly one of them must be set.
func SelectSource(repoURL, archivePath string) (Source, error) {
	repoURL = strings.TrimSpace(repoURL)
	switch {
	case repoURL != "" && archivePath != "":
		return nil, errors.WithStack(ErrAmbiguousInput)
	case archivePath != "":
		return ArchiveSource{Path: archivePath}, nil
	case repoURL != "":
		return RepositorySource{URL: repoURL}, nil
	default:
		return nil, errors.WithStack(ErrNoInput)
	}
}

// Stage owns the staging location of a run: the project tree under
// <dir>/input and the artifact at <dir>/documented_project.zip.
type Stage struct {
	dir        string
	cloneDepth int
	logger     *zap.Logger
}

// NewStage returns a Stage rooted at dir. cloneDepth 0 clones full history.
func NewStage(dir string, cloneDepth int, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{dir: dir, cloneDepth: cloneDepth, logger: logger}
}

// InputDir is the root of the project tree.
func (s *Stage) InputDir() string {
	return filepath.Join(s.dir, inputDirName)
}

// ArtifactPath is where Package writes the archive.
func (s *Stage) ArtifactPath() string {
	return filepath.Join(s.dir, artifactFileName)
}

// Reset deletes everything a previous run left and recreates an empty
// project tree.
func (s *Stage) Reset() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Errorf("removing staging directory %s: %w", s.dir, err)
	}
	if err := os.MkdirAll(s.InputDir(), os.ModePerm); err != nil {
		return errors.Errorf("creating staging directory %s: %w", s.InputDir(), err)
	}
	s.logger.Debug("Reset staging directory", zap.String("path", s.dir))
	return nil
}

// Acquire materializes src into the project tree and returns its root.
func (s *Stage) Acquire(ctx context.Context, src Source) (string, error) {
	switch src := src.(type) {
	case ArchiveSource:
		n, err := extractZip(src.Path, s.InputDir())
		if err != nil {
			return "", errors.Errorf("extracting archive: %w", err)
		}
		s.logger.Info("Extracted archive", zap.String("archive", src.Path), zap.Int("files", n))
	case RepositorySource:
		if err := s.clone(ctx, src.URL); err != nil {
			return "", errors.Errorf("cloning repository: %w", err)
		}
		s.logger.Info("Cloned repository", zap.String("url", src.URL))
	case nil:
		return "", errors.WithStack(ErrNoInput)
	default:
		return "", errors.Errorf("unsupported source %T", src)
	}
	return s.InputDir(), nil
}

func (s *Stage) clone(ctx context.Context, url string) error {
	opts := &git.CloneOptions{URL: url}
	if s.cloneDepth > 0 {
		opts.Depth = s.cloneDepth
	}
	_, err := git.PlainCloneContext(ctx, s.InputDir(), false, opts)
	return err
}

// extractZip unpacks archivePath below dest and returns the number of
// files written. Entries that would land outside dest abort the extraction.
func extractZip(archivePath, dest string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		r.Close()
		return 0, errors.Errorf("%w: %s", ErrUnsafePath, archivePath)
	}
	if err != nil {
		return 0, errors.Errorf("opening %s: %w", archivePath, err)
	}
	defer r.Close()

	files := 0
	for _, f := range r.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return files, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return files, errors.Errorf("creating %s: %w", target, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		if err := extractFile(f, target); err != nil {
			return files, err
		}
		files++
	}
	return files, nil
}

func entryPath(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", errors.Errorf("%w: entry %q", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%w: entry %q", ErrUnsafePath, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return errors.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Errorf("writing %s: %w", target, err)
	}
	return out.Close()
}
