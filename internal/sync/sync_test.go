package sync_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncpkg "github.com/MarkoPoloResearchLab/dirsync/internal/sync"
)

func TestRunSyncOneWay(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T, source, target string)
	}{
		{
			name: "CopiesNewFilesRecursively",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "root.txt"), "root")
				writeFile(t, filepath.Join(source, "Personal", "Deep", "Note.md"), "hello")
				require.NoError(t, os.MkdirAll(filepath.Join(source, "empty"), 0o755))

				var out bytes.Buffer
				res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "root", readFile(t, filepath.Join(target, "root.txt")))
				assert.Equal(t, "hello", readFile(t, filepath.Join(target, "Personal", "Deep", "Note.md")))
				assert.DirExists(t, filepath.Join(target, "empty"))
				assert.Equal(t, 2, res.ActionCounters[string(syncpkg.ActionCopy)])
				assert.Contains(t, out.String(), "Copying ")
			},
		},
		{
			name: "ExcludesByRootPattern",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, source, []string{"*.ignored.txt", "ignored-directory"}, maxSize(100))
				writeFile(t, filepath.Join(source, "a.ignored.txt"), "a")
				writeFile(t, filepath.Join(source, "b.txt"), "b")
				writeFile(t, filepath.Join(source, "first", "second", "recursive.ignored.txt"), "r")
				writeFile(t, filepath.Join(source, "first", "second", "kept.txt"), "k")
				writeFile(t, filepath.Join(source, "ignored-directory", "ignored-by-parent.txt"), "p")

				var out bytes.Buffer
				_, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "a.ignored.txt"))
				requireMissing(t, filepath.Join(target, "first", "second", "recursive.ignored.txt"))
				requireMissing(t, filepath.Join(target, "ignored-directory"))
				assert.Equal(t, "b", readFile(t, filepath.Join(target, "b.txt")))
				assert.Equal(t, "k", readFile(t, filepath.Join(target, "first", "second", "kept.txt")))
			},
		},
		{
			name: "NestedConfigurationCannotReadmit",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, source, []string{"*.log"}, nil)
				writeConfig(t, filepath.Join(source, "sub"), []string{"*.tmp"}, nil)
				writeFile(t, filepath.Join(source, "sub", "a.log"), "log")
				writeFile(t, filepath.Join(source, "sub", "b.tmp"), "tmp")
				writeFile(t, filepath.Join(source, "c.tmp"), "root tmp")

				var out bytes.Buffer
				_, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "sub", "a.log"))
				requireMissing(t, filepath.Join(target, "sub", "b.tmp"))
				assert.Equal(t, "root tmp", readFile(t, filepath.Join(target, "c.tmp")), "a nested rule does not reach siblings of its directory")
			},
		},
		{
			name: "TargetSizeLimit",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, target, nil, maxSize(5))
				writeFile(t, filepath.Join(source, "big.txt"), "0123456789")
				writeFile(t, filepath.Join(source, "nested", "big.bin"), "0123456789")
				writeFile(t, filepath.Join(source, "small.txt"), "0123")

				var out bytes.Buffer
				_, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "big.txt"))
				requireMissing(t, filepath.Join(target, "nested", "big.bin"))
				assert.Equal(t, "0123", readFile(t, filepath.Join(target, "small.txt")))
			},
		},
		{
			name: "NewerSourceOverwrites",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(target, "conflicts", "different.txt"), "old version")
				writeFile(t, filepath.Join(source, "conflicts", "different.txt"), "new version")
				setModTime(t, filepath.Join(target, "conflicts", "different.txt"), testTime(0))
				setModTime(t, filepath.Join(source, "conflicts", "different.txt"), testTime(60))

				var out bytes.Buffer
				res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "new version", readFile(t, filepath.Join(target, "conflicts", "different.txt")))
				assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionOverwrite)])
			},
		},
		{
			name: "OlderSourceIsSkipped",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "skip-older.txt"), "old version")
				writeFile(t, filepath.Join(target, "skip-older.txt"), "new version")
				setModTime(t, filepath.Join(source, "skip-older.txt"), testTime(0))
				setModTime(t, filepath.Join(target, "skip-older.txt"), testTime(60))

				var out bytes.Buffer
				res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "new version", readFile(t, filepath.Join(target, "skip-older.txt")))
				assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionSkipOlder)])
				assert.Contains(t, out.String(), "Skipped copying older version of")
			},
		},
		{
			name: "SkipModeLeavesConflictsAlone",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "a.txt"), "new")
				writeFile(t, filepath.Join(target, "a.txt"), "old")
				setModTime(t, filepath.Join(target, "a.txt"), testTime(0))
				setModTime(t, filepath.Join(source, "a.txt"), testTime(60))
				writeFile(t, filepath.Join(source, "fresh.txt"), "fresh")

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.ConflictMode = syncpkg.ConflictSkip
				res, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "old", readFile(t, filepath.Join(target, "a.txt")))
				assert.Equal(t, "fresh", readFile(t, filepath.Join(target, "fresh.txt")))
				assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionSkipConflict)])
			},
		},
		{
			name: "RenameRoundTrip",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "common.txt"), "source content")
				writeFile(t, filepath.Join(target, "common.txt"), "target content")
				oldTargetTime := testTime(0)
				setModTime(t, filepath.Join(target, "common.txt"), oldTargetTime)
				setModTime(t, filepath.Join(source, "common.txt"), testTime(3600))

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.ConflictMode = syncpkg.ConflictRename
				_, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "target content", readFile(t, filepath.Join(target, "common.txt")))
				renamed := filepath.Join(target, "common-"+oldTargetTime.Local().Format("2006-01-02-15-04-05")+".txt")
				assert.Equal(t, "source content", readFile(t, renamed))
			},
		},
		{
			name: "SecondRunIsIdempotent",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "a.txt"), "a")
				writeFile(t, filepath.Join(source, "dir", "b.txt"), "b")
				writeFile(t, filepath.Join(target, "dir", "b.txt"), "stale")
				setModTime(t, filepath.Join(target, "dir", "b.txt"), testTime(0))
				setModTime(t, filepath.Join(source, "dir", "b.txt"), testTime(10))

				var out bytes.Buffer
				first, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)
				require.Equal(t, 2, first.ChangedFileCount)

				second, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)
				assert.Equal(t, 0, second.ChangedFileCount)
				assert.Equal(t, 2, second.ActionCounters[string(syncpkg.ActionEqual)])
			},
		},
		{
			name: "ConfigurationFileNotCopiedByDefault",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, source, nil, nil)
				writeFile(t, filepath.Join(source, "b.txt"), "b")

				var out bytes.Buffer
				res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, ".dirsync.json"))
				assert.Equal(t, "b", readFile(t, filepath.Join(target, "b.txt")))
				assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionSkipConfig)])
			},
		},
		{
			name: "ConfigurationFileCopiedWhenEnabled",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, source, []string{"*.log"}, nil)
				writeConfig(t, filepath.Join(source, "has-own"), []string{"*.tmp"}, nil)
				writeConfig(t, filepath.Join(target, "has-own"), []string{"*.bak"}, nil)

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.CopyConfigurationFiles = true
				_, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, readFile(t, filepath.Join(source, ".dirsync.json")), readFile(t, filepath.Join(target, ".dirsync.json")))
				assert.Contains(t, readFile(t, filepath.Join(target, "has-own", ".dirsync.json")), "*.bak", "a target with its own configuration keeps it")
			},
		},
		{
			name: "DeleteExtraTargetEntries",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "keep.txt"), "keep")
				writeFile(t, filepath.Join(source, "dir", "keep.txt"), "keep")
				writeFile(t, filepath.Join(target, "extra.txt"), "extra")
				writeFile(t, filepath.Join(target, "extra-dir", "nested.txt"), "nested")
				writeFile(t, filepath.Join(target, "dir", "extra.txt"), "extra")
				writeConfig(t, target, nil, nil)

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.DeleteExtraTargetFiles = true
				res, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "extra.txt"))
				requireMissing(t, filepath.Join(target, "extra-dir"))
				requireMissing(t, filepath.Join(target, "dir", "extra.txt"))
				assert.FileExists(t, filepath.Join(target, ".dirsync.json"))
				assert.Equal(t, "keep", readFile(t, filepath.Join(target, "dir", "keep.txt")))
				assert.Equal(t, 3, res.ActionCounters[string(syncpkg.ActionDelete)])
				assert.Contains(t, out.String(), "Deleting extra ")
			},
		},
		{
			name: "RenameSurvivesDeleteExtra",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "common.txt"), "source content")
				writeFile(t, filepath.Join(target, "common.txt"), "target content")
				oldTargetTime := testTime(0)
				setModTime(t, filepath.Join(target, "common.txt"), oldTargetTime)
				setModTime(t, filepath.Join(source, "common.txt"), testTime(100))
				renamed := filepath.Join(target, "common-"+syncpkg.FormatTimestamp(oldTargetTime)+".txt")

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.ConflictMode = syncpkg.ConflictRename
				opts.DeleteExtraTargetFiles = true
				res, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "source content", readFile(t, renamed))
				assert.Equal(t, "target content", readFile(t, filepath.Join(target, "common.txt")))
				assert.Zero(t, res.ActionCounters[string(syncpkg.ActionDelete)])
				assert.NotContains(t, out.String(), "Deleting extra ")

				again, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)
				assert.Zero(t, again.ActionCounters[string(syncpkg.ActionDelete)])
				assert.Equal(t, "source content", readFile(t, renamed))
			},
		},
		{
			name: "DeleteExtraKeepsTargetConfiguration",
			run: func(t *testing.T, source, target string) {
				writeConfig(t, target, []string{"*.bak"}, nil)

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.DeleteExtraTargetFiles = true
				_, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)
				assert.FileExists(t, filepath.Join(target, ".dirsync.json"))
			},
		},
		{
			name: "ReadsVersionZeroDocument",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, ".dirsync.json"),
					`{"configVersion":{"major":0,"minor":0,"patch":0},"maxFileSize":100,"exclusionPatterns":["*.ignored.txt","ignored-directory"]}`)
				writeFile(t, filepath.Join(source, "root.txt"), "root")
				writeFile(t, filepath.Join(source, "a.ignored.txt"), "a")
				writeFile(t, filepath.Join(source, "ignored-directory", "f.txt"), "f")

				var out bytes.Buffer
				_, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.NoError(t, err)

				assert.Equal(t, "root", readFile(t, filepath.Join(target, "root.txt")))
				requireMissing(t, filepath.Join(target, "a.ignored.txt"))
				requireMissing(t, filepath.Join(target, "ignored-directory"))
			},
		},
		{
			name: "DryRunReportsWithoutChanges",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "new.txt"), "new")
				writeFile(t, filepath.Join(source, "dir", "nested.txt"), "nested")
				writeFile(t, filepath.Join(target, "extra.txt"), "extra")

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.DryRun = true
				opts.DeleteExtraTargetFiles = true
				res, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "new.txt"))
				requireMissing(t, filepath.Join(target, "dir"))
				assert.FileExists(t, filepath.Join(target, "extra.txt"))
				assert.True(t, res.DryRun)
				assert.Equal(t, 2, res.ActionCounters[string(syncpkg.ActionCopy)])
				assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionDelete)])
				assert.Contains(t, out.String(), "Copying ")
				assert.Contains(t, out.String(), "Deleting extra ")
			},
		},
		{
			name: "QuietWithoutVerbose",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "a.txt"), "a")

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.Verbose = false
				_, err := syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)
				assert.Empty(t, out.String())
			},
		},
		{
			name: "IncompatibleKindsDoNotStopSiblings",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "clash", "inner.txt"), "inner")
				writeFile(t, filepath.Join(target, "clash"), "file")
				writeFile(t, filepath.Join(source, "z.txt"), "z")

				var out bytes.Buffer
				res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
				require.Error(t, err)
				assert.Equal(t, syncpkg.CodeIncompatibleEntries, syncpkg.CodeOf(err))
				assert.ErrorIs(t, err, syncpkg.ErrIncompatibleEntries)
				assert.Equal(t, "z", readFile(t, filepath.Join(target, "z.txt")))
				assert.Equal(t, 1, res.FailureCount)
			},
		},
		{
			name: "IgnoreFileRules",
			run: func(t *testing.T, source, target string) {
				writeFile(t, filepath.Join(source, "node_modules", "pkg", "index.js"), "js")
				writeFile(t, filepath.Join(source, "notes", ".DS_Store"), "trash")
				writeFile(t, filepath.Join(source, "notes", "kept.md"), "K")

				ig, err := syncpkg.LoadIgnoreFile(filepath.Join("testdata", "ignore"))
				require.NoError(t, err)

				var out bytes.Buffer
				opts := defaultOptions(source, target, &out)
				opts.IgnoreMatcher = ig
				_, err = syncpkg.RunSync(opts, zap.NewNop())
				require.NoError(t, err)

				requireMissing(t, filepath.Join(target, "node_modules"))
				requireMissing(t, filepath.Join(target, "notes", ".DS_Store"))
				assert.Equal(t, "K", readFile(t, filepath.Join(target, "notes", "kept.md")))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := t.TempDir()
			target := t.TempDir()
			tc.run(t, source, target)
		})
	}
}

func TestRunSyncSymlinkSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "real.txt"), "real")
	require.NoError(t, os.Symlink(filepath.Join(source, "real.txt"), filepath.Join(source, "link.txt")))

	var out bytes.Buffer
	res, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
	require.NoError(t, err)

	requireMissing(t, filepath.Join(target, "link.txt"))
	assert.Equal(t, "real", readFile(t, filepath.Join(target, "real.txt")))
	assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionSkipUnsupported)])
}

func TestRunSyncFatalErrors(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(t *testing.T, source, target string) (string, string)
		wantCode syncpkg.ErrorCode
	}{
		{
			name: "SourceMissing",
			setup: func(t *testing.T, source, target string) (string, string) {
				return filepath.Join(source, "missing"), target
			},
			wantCode: syncpkg.CodeSourceNotFound,
		},
		{
			name: "SourceIsFile",
			setup: func(t *testing.T, source, target string) (string, string) {
				writeFile(t, filepath.Join(source, "file"), "x")
				return filepath.Join(source, "file"), target
			},
			wantCode: syncpkg.CodeSourceNotDirectory,
		},
		{
			name: "TargetIsFile",
			setup: func(t *testing.T, source, target string) (string, string) {
				writeFile(t, filepath.Join(target, "file"), "x")
				return source, filepath.Join(target, "file")
			},
			wantCode: syncpkg.CodeTargetUnavailable,
		},
		{
			name: "ConfigurationParseError",
			setup: func(t *testing.T, source, target string) (string, string) {
				writeFile(t, filepath.Join(source, "a.txt"), "a")
				writeFile(t, filepath.Join(source, "deep", ".dirsync.json"), "{not json")
				writeFile(t, filepath.Join(source, "deep", "b.txt"), "b")
				return source, target
			},
			wantCode: syncpkg.CodeConfigParse,
		},
		{
			name: "ConfigurationVersionIncompatible",
			setup: func(t *testing.T, source, target string) (string, string) {
				writeFile(t, filepath.Join(target, ".dirsync.json"), `{"configVersion":{"major":3,"minor":0,"patch":0}}`)
				return source, target
			},
			wantCode: syncpkg.CodeConfigVersion,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source, target := tc.setup(t, t.TempDir(), t.TempDir())
			var out bytes.Buffer
			_, err := syncpkg.RunSync(defaultOptions(source, target, &out), zap.NewNop())
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, syncpkg.CodeOf(err))
		})
	}
}

func TestRunSyncCreatesMissingTarget(t *testing.T) {
	source := t.TempDir()
	target := filepath.Join(t.TempDir(), "new", "target")
	writeFile(t, filepath.Join(source, "a.txt"), "a")

	var out bytes.Buffer
	_, err := syncpkg.RunSync(defaultOptions(source, target, &out), nil)
	require.NoError(t, err)
	assert.Equal(t, "a", readFile(t, filepath.Join(target, "a.txt")))
}

func TestRunSyncDryRunMissingTarget(t *testing.T) {
	source := t.TempDir()
	target := filepath.Join(t.TempDir(), "absent")
	writeFile(t, filepath.Join(source, "dir", "a.txt"), "a")

	var out bytes.Buffer
	opts := defaultOptions(source, target, &out)
	opts.DryRun = true
	res, err := syncpkg.RunSync(opts, zap.NewNop())
	require.NoError(t, err)
	requireMissing(t, target)
	assert.Equal(t, 1, res.ActionCounters[string(syncpkg.ActionCopy)])
}

func TestSaveResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "result.json")
	result := syncpkg.SyncResult{
		ChangedFileCount: 2,
		ActionCounters:   map[string]int{"copy": 2, "equal": 1},
	}
	require.NoError(t, syncpkg.SaveResult(path, result))

	var loaded syncpkg.SyncResult
	require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &loaded))
	assert.Equal(t, result.ChangedFileCount, loaded.ChangedFileCount)
	assert.Equal(t, result.ActionCounters, loaded.ActionCounters)
	requireMissing(t, path+".tmp")
}
