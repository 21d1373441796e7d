package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("database", "connected")
	l.LogRequest("CREATE", 42, "request persisted")

	scanner := bufio.NewScanner(&buf)
	var entries []LogEntry
	for scanner.Scan() {
		var entry LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}

	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "DATABASE", entries[0].Category)
	assert.Equal(t, "connected", entries[0].Message)
	assert.Equal(t, "REQUEST", entries[1].Category)
	assert.Equal(t, "[CREATE] 42 - request persisted", entries[1].Message)
	assert.Equal(t, "logger_test.go", entries[0].File)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Debug("a", "d")
	l.Warn("a", "w")
	l.Error("a", "e")

	out := buf.String()
	assert.Contains(t, out, `"level":"DEBUG"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"level":"ERROR"`)
}

func TestNewLoggerCreatesDailyFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, "request-service")
	l.LogDatabase("INSERT", "request", "ok")
	l.Close()

	name := filepath.Join(dir, "request-service-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[INSERT] request - ok"))
}
