package sync

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/sabhiram/go-gitignore"

	"github.com/MarkoPoloResearchLab/dirsync/internal/config"
)

// ConflictMode selects what happens when both trees hold a different version
// of the same file.
type ConflictMode string

const (
	// ConflictOverwrite copies the newer version over the older one.
	ConflictOverwrite ConflictMode = "overwrite"
	// ConflictSkip leaves both versions untouched.
	ConflictSkip ConflictMode = "skip"
	// ConflictRename copies the newer version next to the older one under a
	// timestamped name.
	ConflictRename ConflictMode = "rename"
)

// ParseConflictMode converts a flag value into a ConflictMode. The empty
// string selects ConflictOverwrite.
func ParseConflictMode(value string) (ConflictMode, error) {
	switch mode := ConflictMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "", ConflictOverwrite:
		return ConflictOverwrite, nil
	case ConflictSkip, ConflictRename:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown conflict mode %q (want overwrite, skip or rename)", value)
	}
}

// Options configures a synchronization run.
type Options struct {
	// SourcePath is the source root, or the left peer in two-way runs.
	SourcePath string
	// TargetPath is the target root, or the right peer in two-way runs.
	TargetPath string
	// Bidirectional selects two-way synchronization.
	Bidirectional          bool
	Verbose                bool
	DryRun                 bool
	DeleteExtraTargetFiles bool
	CopyConfigurationFiles bool
	ConflictMode           ConflictMode
	// IgnoreMatcher holds run-wide gitignore-style rules. Optional.
	IgnoreMatcher *ignore.GitIgnore

	// Filesystem defaults to the native filesystem.
	Filesystem billy.Filesystem
	// ConfigProvider defaults to config.NewProvider().
	ConfigProvider config.Provider
	// Output receives verbose progress lines. Defaults to standard output.
	Output io.Writer
}
