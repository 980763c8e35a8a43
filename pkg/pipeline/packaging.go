package pipeline

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// Package writes every file below dir into a deflated zip archive at
// artifactPath, named by its slash-separated path relative to dir. Symlinked
// files are stored by content and dangling links are left out. An existing
// archive is replaced. It returns the number of entries written.
func Package(dir, artifactPath string) (n int, err error) {
	out, err := os.Create(artifactPath)
	if err != nil {
		return 0, errors.Errorf("creating artifact %s: %w", artifactPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing artifact %s: %w", artifactPath, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			if d.Type()&fs.ModeSymlink != 0 {
				// Dangling link.
				return nil
			}
			return errors.Errorf("stat %s: %w", path, err)
		}
		// Symlinks are stored by content; links to directories are skipped.
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		if err := addFile(zw, path, filepath.ToSlash(rel), info); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, errors.Errorf("packaging %s: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		return n, errors.Errorf("finishing artifact %s: %w", artifactPath, err)
	}
	return n, nil
}

func addFile(zw *zip.Writer, path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Errorf("zip header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return errors.Errorf("adding %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Errorf("compressing %s: %w", path, err)
	}
	return nil
}
