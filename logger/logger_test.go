package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesFile(t *testing.T) {
	assert.NotNil(t, With(String("before", "init")), "With must be usable before InitLogger")

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	InitLogger(Config{Level: InfoLevel, OutputPath: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1})

	Debug("hidden debug line")
	Info("worker started", Int("worker", 3))
	With(String("request_id", "abc")).Info("request done")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"worker started"`)
	assert.Contains(t, out, `"worker":3`)
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.NotContains(t, out, "hidden debug line")
}
