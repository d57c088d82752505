package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	assert.True(t, New("debug", "").Desugar().Core().Enabled(-1))
	assert.False(t, New("info", "").Desugar().Core().Enabled(-1))
	assert.False(t, New("", "").Desugar().Core().Enabled(-1))
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	log := New("info", path)
	log.Infow("started", "port", 8080)
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"started"`)
	assert.Contains(t, string(b), `"port":8080`)
}
