package sync_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	syncpkg "github.com/MarkoPoloResearchLab/dirsync/internal/sync"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func setModTime(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func requireMissing(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.ErrorIs(t, err, os.ErrNotExist, "%s should not exist", path)
}

// writeConfig writes a .dirsync.json into dir.
func writeConfig(t *testing.T, dir string, patterns []string, maxFileSize *uint64) {
	t.Helper()
	doc := map[string]any{
		"configVersion":     map[string]int{"major": 0, "minor": 0, "patch": 0},
		"exclusionPatterns": patterns,
	}
	if maxFileSize != nil {
		doc["maxFileSize"] = *maxFileSize
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, ".dirsync.json"), string(data))
}

func maxSize(n uint64) *uint64 {
	return &n
}

func testTime(sec int64) time.Time {
	return time.Unix(1_700_000_000+sec, 0)
}

func defaultOptions(source, target string, out *bytes.Buffer) syncpkg.Options {
	return syncpkg.Options{
		SourcePath:   source,
		TargetPath:   target,
		Verbose:      true,
		ConflictMode: syncpkg.ConflictOverwrite,
		Output:       out,
	}
}
