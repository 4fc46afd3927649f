package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ib-77/xrmfan/pkg/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		" INFO ":  zap.InfoLevel,
		"warning": zap.WarnLevel,
		"warn":    zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"chatty":  zap.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetupLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	cfg := config.Default().Log
	cfg.Format = "json"
	cfg.Level = "warn"
	cfg.Development = false
	cfg.Outputs = []string{path}

	logger, err := SetupLogger(cfg)
	require.NoError(t, err)
	defer zap.ReplaceGlobals(zap.NewNop())

	logger.Info("hidden below level")
	zap.L().Warn("batch partly failed", zap.Int("failed", 2))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"batch partly failed"`)
	assert.Contains(t, out, `"failed":2`)
	assert.NotContains(t, out, "hidden below level")
}

func TestSetupLogger_RotatedFile(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default().Log
	cfg.Format = "json"
	cfg.Development = false
	cfg.Outputs = []string{filepath.Join(dir, "ignored.log")}
	cfg.Rotation.Enable = true
	cfg.Rotation.Filename = filepath.Join(dir, "rotated.log")

	logger, err := SetupLogger(cfg)
	require.NoError(t, err)
	defer zap.ReplaceGlobals(zap.NewNop())

	logger.Info("rotated line")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.Rotation.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated line")
	_, err = os.Stat(filepath.Join(dir, "ignored.log"))
	assert.True(t, os.IsNotExist(err))
}
