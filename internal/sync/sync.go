package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dirsync/internal/config"
)

// SyncResult summarizes a run. Counters are keyed by Action.
type SyncResult struct {
	ChangedFileCount int            `json:"changed"`
	ActionCounters   map[string]int `json:"actions"`
	FailureCount     int            `json:"failures"`
	DryRun           bool           `json:"dry_run"`
}

// RunSync synchronizes options.TargetPath with options.SourcePath, one-way or
// two-way. Fatal setup and configuration errors abort the run. Errors on single
// entries are logged and skipped; the first one is returned once every entry
// has been visited.
func RunSync(options Options, logger *zap.Logger) (SyncResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	result := SyncResult{ActionCounters: map[string]int{}, DryRun: options.DryRun}

	opts := options
	if opts.Filesystem == nil {
		opts.Filesystem = NewOSFS()
		for _, root := range []*string{&opts.SourcePath, &opts.TargetPath} {
			abs, err := filepath.Abs(*root)
			if err != nil {
				return result, newError(CodeFilesystem, *root, err)
			}
			*root = abs
		}
	}
	if opts.ConfigProvider == nil {
		opts.ConfigProvider = config.NewProvider()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	mode, err := ParseConflictMode(string(opts.ConflictMode))
	if err != nil {
		return result, err
	}
	opts.ConflictMode = mode
	if opts.Bidirectional && opts.DeleteExtraTargetFiles {
		logger.Warn("delete-extra is disabled for bidirectional synchronization")
		opts.DeleteExtraTargetFiles = false
	}

	r := &runner{
		opts:    &opts,
		fsys:    opts.Filesystem,
		logger:  logger,
		report:  reporter{out: opts.Output, verbose: opts.Verbose, logger: logger},
		result:  &result,
		renamed: map[string]struct{}{},
	}

	if err := r.verifyRoots(); err != nil {
		logger.Error("verify roots", zap.Error(err))
		return result, err
	}

	stack := &configStack{}
	if opts.Bidirectional {
		err = r.syncTwoWay(stack, opts.SourcePath, opts.TargetPath, "")
	} else {
		err = r.syncOneWay(stack, opts.SourcePath, opts.TargetPath, "")
	}
	if err != nil {
		logger.Error("synchronization aborted", zap.Error(err))
		return result, err
	}
	return result, r.firstErr
}

// runner carries the state of one run through the recursion.
type runner struct {
	opts     *Options
	fsys     billy.Filesystem
	logger   *zap.Logger
	report   reporter
	result   *SyncResult
	firstErr error
	// renamed holds the paths written by rename decisions. Delete-extra
	// keeps them although no source entry carries their name.
	renamed map[string]struct{}
}

func (r *runner) record(action Action) {
	r.result.ActionCounters[string(action)]++
	if action.changes() {
		r.result.ChangedFileCount++
	}
}

// fail records a per-entry error. Traversal goes on; the first error becomes
// the run result.
func (r *runner) fail(action Action, err error) {
	r.logger.Error("entry failed", zap.String("action", string(action)), zap.Error(err))
	r.result.ActionCounters[string(action)]++
	r.result.FailureCount++
	if r.firstErr == nil {
		r.firstErr = err
	}
}

func (r *runner) verifyRoots() error {
	source, err := r.fsys.Stat(r.opts.SourcePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return newError(CodeSourceNotFound, r.opts.SourcePath, err)
	case err != nil:
		return newError(CodeFilesystem, r.opts.SourcePath, err)
	case !source.IsDir():
		return newError(CodeSourceNotDirectory, r.opts.SourcePath, ErrNotDirectory)
	}

	target, err := r.fsys.Stat(r.opts.TargetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.report.printf("Creating directory %s", r.opts.TargetPath)
		if r.opts.DryRun {
			return nil
		}
		if err := makeDir(r.fsys, r.opts.TargetPath); err != nil {
			return newError(CodeTargetUnavailable, r.opts.TargetPath, err)
		}
		return nil
	case err != nil:
		return newError(CodeTargetUnavailable, r.opts.TargetPath, err)
	case !target.IsDir():
		return newError(CodeTargetUnavailable, r.opts.TargetPath, ErrNotDirectory)
	}
	return nil
}

// loadPair loads the configurations of two directories compared at the same
// level. Any error is fatal for the run.
func (r *runner) loadPair(first, second string) (*config.Directory, *config.Directory, error) {
	firstCfg, err := r.loadConfig(first)
	if err != nil {
		return nil, nil, err
	}
	secondCfg, err := r.loadConfig(second)
	if err != nil {
		return nil, nil, err
	}
	return firstCfg, secondCfg, nil
}

func (r *runner) loadConfig(dir string) (*config.Directory, error) {
	cfg, err := r.opts.ConfigProvider.Load(r.fsys, dir)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, config.ErrIncompatibleVersion) {
		return nil, newError(CodeConfigVersion, dir, err)
	}
	return nil, newError(CodeConfigParse, dir, err)
}

// admits applies the run-wide ignore rules. Per-directory configuration is
// checked by the stack.
func (r *runner) admits(entry Entry, rel string) bool {
	return !shouldIgnore(rel, entry.Kind == KindDirectory, r.opts.IgnoreMatcher)
}

// syncFile brings second in line with first. A missing second receives a
// plain copy; otherwise the conflict resolver decides.
func (r *runner) syncFile(first, second Entry, policy Policy) {
	if !second.Exists {
		r.copy(ActionCopy, first, second.Path)
		return
	}

	decision := Resolve(first, second, policy)
	switch decision.Action {
	case ActionOverwrite, ActionRename:
		r.copy(decision.Action, decision.From, decision.To)
	case ActionSkipOlder:
		r.report.printf("Skipped copying older version of %s", first.Path)
		r.record(decision.Action)
	default:
		r.record(decision.Action)
	}
}

func (r *runner) copy(action Action, from Entry, to string) {
	r.report.printf("Copying %s to %s", from.Path, to)
	if action == ActionRename {
		r.renamed[to] = struct{}{}
	}
	if r.opts.DryRun {
		r.record(action)
		return
	}
	if err := copyFile(r.fsys, from.Path, to, from.ModTime, from.Mode.Perm()); err != nil {
		r.fail(ActionError, newError(CodeFilesystem, to, err))
		return
	}
	r.record(action)
}

func (r *runner) incompatible(first, second Entry) {
	err := fmt.Errorf("%w: %s is a %s, %s is a %s", ErrIncompatibleEntries, first.Path, first.Kind, second.Path, second.Kind)
	r.fail(ActionIncompatible, newError(CodeIncompatibleEntries, first.Path, err))
}

func (r *runner) unsupported(entry Entry) {
	r.logger.Warn("unsupported entry type, skipping", zap.String("path", entry.Path))
	r.report.printf("Skipping unsupported entry %s", entry.Path)
	r.record(ActionSkipUnsupported)
}
