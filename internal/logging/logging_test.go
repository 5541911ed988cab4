package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "api.log")

	logger, flush := Init(Options{Mode: "production", Filename: file})
	zap.L().Info("order saved", zap.Int64("order_id", 7))
	flush()

	require.NotNil(t, logger)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":7`)
}

func TestInit_ReplacesGlobal(t *testing.T) {
	logger, flush := Init(Options{Mode: "development"})
	defer flush()

	assert.Same(t, logger, zap.L())
}
