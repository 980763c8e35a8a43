package pipeline

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"autodoc/pkg/generate"
	"autodoc/pkg/ignore"
)

// scriptedGenerator answers every prompt with a fixed wrapper around the
// code it was sent, and fails for prompts containing failOn.
type scriptedGenerator struct {
	mu     sync.Mutex
	wrap   func(code string) string
	failOn string
	calls  []string
}

func (g *scriptedGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, code, _ := strings.Cut(prompt, "CODE:\n")
	code = strings.TrimRight(code, "\n")
	g.calls = append(g.calls, code)
	if g.failOn != "" && strings.Contains(code, g.failOn) {
		return "", errors.New("resource exhausted")
	}
	if g.wrap == nil {
		return "// documented\n" + code, nil
	}
	return g.wrap(code), nil
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait() { p.waits++ }

func newTransformer(gen generate.Generator) *generate.Transformer {
	return generate.NewTransformer(gen, "gemini-1.5-flash", 0, nil)
}

func newClassifier(t *testing.T, globs ...string) *ignore.Classifier {
	t.Helper()
	c, err := ignore.NewClassifier(nil, globs...)
	require.NoError(t, err)
	return c
}

// writeTree creates files (slash-separated path -> content) below root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// writeZip builds a zip archive holding files (entry name -> content).
func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

// readZip returns the entries of an archive (entry name -> content).
func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(data)
	}
	return out
}
