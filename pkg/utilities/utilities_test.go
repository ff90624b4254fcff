package utilities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIDNodeUnique(t *testing.T) {
	n, err := NewIDNode(3)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := n.Next()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestNewIDNodeOutOfRange(t *testing.T) {
	_, err := NewIDNode(-1)
	assert.Error(t, err)
}

func TestNodeIDFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "")
	assert.Equal(t, int64(1), NodeIDFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "12")
	assert.Equal(t, int64(12), NodeIDFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "x")
	assert.Equal(t, int64(1), NodeIDFromEnv())
}

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.Len(t, a, 27)
	assert.NotEqual(t, a, b)
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("bogus"))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")
	lg, err := Init(Config{Level: "info", File: path, MaxAgeDays: 1})
	require.NoError(t, err)

	lg.Sugar().Infow("hello", "k", "v")
	_ = lg.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
