package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	writeTree(t, root, map[string]string{
		"main.go":             "package main\n",
		"README.md":           "# readme\n",
		"blank.py":            "\n",
		"internal/db/db.go":   "package db\n",
		"node_modules/x/y.js": "y();\n",
	})

	out, pending, err := Plan(root, newClassifier(t), 0, nil)
	require.NoError(t, err)

	want := "project/\n" +
		"├── README.md  [skip: ineligible]\n" +
		"├── blank.py  [skip: empty]\n" +
		"├── main.go  [document]\n" +
		"└── internal/\n" +
		"    └── db/\n" +
		"        └── db.go  [document]\n"
	assert.Equal(t, want, out)
	assert.Equal(t, 2, pending)
}

func TestPlanSizeCeiling(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"big.go": "0123456789"})

	out, pending, err := Plan(root, newClassifier(t), 5, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "big.go  [skip: too large]")
	assert.Zero(t, pending)
}
