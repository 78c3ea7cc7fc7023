package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleTag(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	l := Nop().Module("loop", color.FgCyan)
	assert.Equal(t, "loop", l.Tag())
	assert.Empty(t, Nop().Tag())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).SugaredLogger)
	l := Nop()
	assert.Same(t, l, OrNop(l))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perforate.log")
	l, err := New(Options{Debug: true, File: path})
	require.NoError(t, err)
	l.Infof("perforated %d sites", 3)
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "perforated 3 sites")
}
