package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRunner(t *testing.T, gen *scriptedGenerator) (*Runner, string) {
	t.Helper()
	work := filepath.Join(t.TempDir(), "working_dir")
	r := NewRunner(Options{WorkDir: work}, newClassifier(t), newTransformer(gen), zaptest.NewLogger(t)).WithPacer(NoPacer{})
	return r, work
}

func TestInvokeArchiveWithFencedAnswer(t *testing.T) {
	gen := &scriptedGenerator{wrap: func(code string) string {
		return "```python\n\"\"\"Entry point.\"\"\"\n" + code + "\n```\n"
	}}
	r, work := newTestRunner(t, gen)
	archive := writeZip(t, map[string]string{"main.py": "print('hello')\n"})

	artifact, status := r.Invoke(context.Background(), "", archive)

	assert.Equal(t, "Success! 1 files documented. Download below.", status)
	assert.Equal(t, filepath.Join(work, "documented_project.zip"), artifact)
	assert.Equal(t, map[string]string{"main.py": "\"\"\"Entry point.\"\"\"\nprint('hello')"}, readZip(t, artifact))
}

func TestRunIneligibleFilesAreByteIdentical(t *testing.T) {
	gen := &scriptedGenerator{}
	r, _ := newTestRunner(t, gen)
	input := map[string]string{
		"data.json": "{\"k\": [1, 2, 3]}\n",
		"readme":    "no extension here\r\n",
	}
	archive := writeZip(t, input)

	res, err := r.Run(context.Background(), ArchiveSource{Path: archive})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Report.Processed)
	assert.Equal(t, "Success! 0 files documented. Download below.", res.Status)
	assert.Equal(t, input, readZip(t, res.ArtifactPath))
	assert.Empty(t, gen.calls)
}

func TestRunNodeModulesUntouched(t *testing.T) {
	gen := &scriptedGenerator{}
	r, _ := newTestRunner(t, gen)
	archive := writeZip(t, map[string]string{
		"app.ts":                     "export const a = 1;\n",
		"node_modules/lib/index.ts":  "export const b = 2;\n",
		"node_modules/lib/nested.ts": "export const c = 3;\n",
	})

	res, err := r.Run(context.Background(), ArchiveSource{Path: archive})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.Processed)
	assert.Equal(t, map[string]string{
		"app.ts":                     "// documented\nexport const a = 1;",
		"node_modules/lib/index.ts":  "export const b = 2;\n",
		"node_modules/lib/nested.ts": "export const c = 3;\n",
	}, readZip(t, res.ArtifactPath))
}

func TestRunHonoursTreeIgnoreFile(t *testing.T) {
	gen := &scriptedGenerator{}
	r, _ := newTestRunner(t, gen)
	archive := writeZip(t, map[string]string{
		".docignore":    "*_gen.go\n",
		"model.go":      "package m\n",
		"model_gen.go":  "package m\n",
		"vendor/dep.go": "package dep\n",
	})

	res, err := r.Run(context.Background(), ArchiveSource{Path: archive})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Processed)
	assert.Equal(t, "package m\n", readZip(t, res.ArtifactPath)["model_gen.go"])

	// The ignore file belongs to that tree only.
	archive = writeZip(t, map[string]string{"model_gen.go": "package m\n"})
	res, err = r.Run(context.Background(), ArchiveSource{Path: archive})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Processed)
}

func TestInvokeWithoutInput(t *testing.T) {
	r, work := newTestRunner(t, &scriptedGenerator{})
	writeTree(t, filepath.Join(work, "input"), map[string]string{"leftover.go": "package x\n"})

	artifact, status := r.Invoke(context.Background(), "", "")
	assert.Empty(t, artifact)
	assert.Equal(t, MsgNoInput, status)

	entries, err := os.ReadDir(filepath.Join(work, "input"))
	require.NoError(t, err, "staging is reset even without input")
	assert.Empty(t, entries)
	assert.NoFileExists(t, filepath.Join(work, "documented_project.zip"))
}

func TestInvokeWithBothInputs(t *testing.T) {
	r, _ := newTestRunner(t, &scriptedGenerator{})
	artifact, status := r.Invoke(context.Background(), "https://example.com/x.git", "/tmp/x.zip")
	assert.Empty(t, artifact)
	assert.Contains(t, status, "Error: ")
	assert.Contains(t, status, ErrAmbiguousInput.Error())
}

func TestInvokeCorruptArchive(t *testing.T) {
	gen := &scriptedGenerator{}
	r, work := newTestRunner(t, gen)
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("PK but not really"), 0o644))

	artifact, status := r.Invoke(context.Background(), "", bad)
	assert.Empty(t, artifact)
	assert.Contains(t, status, "Error: ")
	assert.Empty(t, gen.calls)
	assert.NoFileExists(t, filepath.Join(work, "documented_project.zip"))
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	r, _ := newTestRunner(t, &scriptedGenerator{})
	require.True(t, r.sem.TryAcquire(1))
	defer r.sem.Release(1)

	_, err := r.Run(context.Background(), ArchiveSource{Path: "unused.zip"})
	require.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, MsgBusy, StatusMessage(err))
}
