package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSource(t *testing.T) {
	src, err := SelectSource("https://example.com/repo.git", "")
	require.NoError(t, err)
	assert.Equal(t, RepositorySource{URL: "https://example.com/repo.git"}, src)

	src, err = SelectSource("   ", "/tmp/upload.zip")
	require.NoError(t, err)
	assert.Equal(t, ArchiveSource{Path: "/tmp/upload.zip"}, src)

	_, err = SelectSource("", "")
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = SelectSource("https://example.com/repo.git", "/tmp/upload.zip")
	assert.ErrorIs(t, err, ErrAmbiguousInput)
}

func TestStageReset(t *testing.T) {
	stage := NewStage(filepath.Join(t.TempDir(), "work"), 0, nil)
	require.NoError(t, stage.Reset())
	writeTree(t, stage.InputDir(), map[string]string{"old/left.go": "package old\n"})
	require.NoError(t, os.WriteFile(stage.ArtifactPath(), []byte("stale"), 0o644))

	require.NoError(t, stage.Reset())

	entries, err := os.ReadDir(stage.InputDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoFileExists(t, stage.ArtifactPath())
}

func TestAcquireArchive(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"main.py":          "print(1)\n",
		"pkg/":             "",
		"pkg/util/math.go": "package util\n",
	})

	stage := NewStage(filepath.Join(t.TempDir(), "work"), 0, nil)
	require.NoError(t, stage.Reset())

	root, err := stage.Acquire(context.Background(), ArchiveSource{Path: archive})
	require.NoError(t, err)
	assert.Equal(t, stage.InputDir(), root)
	assert.Equal(t, "print(1)\n", readFile(t, root, "main.py"))
	assert.Equal(t, "package util\n", readFile(t, root, "pkg/util/math.go"))
}

func TestAcquireRejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.go", "a/../../evil.go", "/etc/evil.go"} {
		t.Run(name, func(t *testing.T) {
			archive := writeZip(t, map[string]string{name: "package evil\n"})
			work := filepath.Join(t.TempDir(), "work")
			stage := NewStage(work, 0, nil)
			require.NoError(t, stage.Reset())

			_, err := stage.Acquire(context.Background(), ArchiveSource{Path: archive})
			require.ErrorIs(t, err, ErrUnsafePath)
			assert.NoFileExists(t, filepath.Join(work, "evil.go"))
		})
	}
}

func TestAcquireCorruptArchive(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not a zip"), 0o644))

	stage := NewStage(filepath.Join(t.TempDir(), "work"), 0, nil)
	require.NoError(t, stage.Reset())

	_, err := stage.Acquire(context.Background(), ArchiveSource{Path: bad})
	require.Error(t, err)
}

func TestAcquireCloneFailure(t *testing.T) {
	stage := NewStage(filepath.Join(t.TempDir(), "work"), 1, nil)
	require.NoError(t, stage.Reset())

	_, err := stage.Acquire(context.Background(), RepositorySource{URL: filepath.Join(t.TempDir(), "no-such-repo")})
	require.Error(t, err)
	assert.ErrorContains(t, err, "cloning repository")
}

func TestAcquireNilSource(t *testing.T) {
	stage := NewStage(filepath.Join(t.TempDir(), "work"), 0, nil)
	_, err := stage.Acquire(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInput)
}
