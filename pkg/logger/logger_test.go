package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_CreatesLogDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested", "logs")

	l, err := NewLogger(sub, false)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLog_RoutesEachCategoryToItsOwnFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, false)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	l.Log(LogEntry{Level: LevelInfo, Category: CategorySync, Action: "a", Message: "sync event"})
	l.Log(LogEntry{Level: LevelInfo, Category: CategoryNotify, Action: "b", Message: "notify event"})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var sawSync, sawNotify bool
	for _, e := range entries {
		switch {
		case matchesCategory(e.Name(), CategorySync):
			sawSync = true
		case matchesCategory(e.Name(), CategoryNotify):
			sawNotify = true
		}
	}
	assert.True(t, sawSync, "expected a sync category log file")
	assert.True(t, sawNotify, "expected a notify category log file")
}

func TestLog_WritesValidJSONLines(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, false)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	l.Log(LogEntry{Level: LevelError, Category: CategoryEmbed, Action: "embed_failed", Message: "boom", Error: "timeout"})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var got LogEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	assert.Equal(t, LevelError, got.Level)
	assert.Equal(t, CategoryEmbed, got.Category)
	assert.Equal(t, "timeout", got.Error)
}

func matchesCategory(filename string, category Category) bool {
	prefix := string(category) + "_"
	return len(filename) >= len(prefix) && filename[:len(prefix)] == prefix
}
