package sync

import (
	"os"

	"github.com/MarkoPoloResearchLab/dirsync/internal/config"
)

// syncOneWay makes targetDir match sourceDir, recursively. rel is the path of
// both directories relative to the run roots. Only fatal errors are returned.
func (r *runner) syncOneWay(stack *configStack, sourceDir, targetDir, rel string) error {
	sourceCfg, targetCfg, err := r.loadPair(sourceDir, targetDir)
	if err != nil {
		return err
	}
	stack.push(sourceCfg, targetCfg)
	defer stack.pop()

	children, err := listDir(r.fsys, sourceDir)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, sourceDir, err))
		return nil
	}

	for _, child := range children {
		name := child.Name()
		sourcePath := r.fsys.Join(sourceDir, name)
		targetPath := r.fsys.Join(targetDir, name)
		if err := r.syncOneWayChild(stack, sourcePath, targetPath, relativeChild(rel, name)); err != nil {
			return err
		}
	}

	if r.opts.DeleteExtraTargetFiles {
		r.deleteExtra(children, targetDir)
	}
	return nil
}

// syncOneWayChild synchronizes a single source entry onto targetPath. The top
// frame of stack belongs to the parent directories of both paths.
func (r *runner) syncOneWayChild(stack *configStack, sourcePath, targetPath, rel string) error {
	source, err := statEntry(r.fsys, sourcePath)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, sourcePath, err))
		return nil
	}
	if !source.Exists {
		return nil
	}

	if source.Kind == KindFile && config.IsConfigFile(source.Name) {
		r.syncConfigFile(stack, source, targetPath)
		return nil
	}
	if source.Kind == KindOther {
		r.unsupported(source)
		return nil
	}

	if !stack.allows(source, sourceSide) || !stack.allows(source, targetSide) || !r.admits(source, rel) {
		r.report.printf("Skipping excluded %s", source.Path)
		r.record(ActionSkipExcluded)
		return nil
	}

	target, err := statEntry(r.fsys, targetPath)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, targetPath, err))
		return nil
	}
	if target.Exists && target.Kind != source.Kind {
		r.incompatible(source, target)
		return nil
	}

	if source.Kind == KindDirectory {
		if !target.Exists {
			r.report.printf("Creating directory %s", targetPath)
			if !r.opts.DryRun {
				if err := makeDir(r.fsys, targetPath); err != nil {
					r.fail(ActionError, newError(CodeFilesystem, targetPath, err))
					return nil
				}
			}
			r.record(ActionMkdir)
		}
		return r.syncOneWay(stack, sourcePath, targetPath, rel)
	}

	r.syncFile(source, target, r.oneWayPolicy())
	return nil
}

// syncConfigFile copies a local configuration file, which is never subject to
// exclusion rules. It is copied only when enabled and only into a directory
// that has no configuration of its own.
func (r *runner) syncConfigFile(stack *configStack, source Entry, targetPath string) {
	if !r.opts.CopyConfigurationFiles || stack.current(targetSide) != nil {
		r.record(ActionSkipConfig)
		return
	}
	target, err := statEntry(r.fsys, targetPath)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, targetPath, err))
		return
	}
	if target.Exists && target.Kind != KindFile {
		r.incompatible(source, target)
		return
	}
	r.syncFile(source, target, r.oneWayPolicy())
}

// deleteExtra removes target entries whose names are absent from the source
// directory. Configuration files of the target and copies written by the
// rename conflict mode are kept.
func (r *runner) deleteExtra(sourceChildren []os.FileInfo, targetDir string) {
	sourceNames := childNames(sourceChildren)
	targetChildren, err := listDir(r.fsys, targetDir)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, targetDir, err))
		return
	}

	for _, child := range targetChildren {
		name := child.Name()
		if _, ok := sourceNames[name]; ok || config.IsConfigFile(name) {
			continue
		}
		path := r.fsys.Join(targetDir, name)
		if _, ok := r.renamed[path]; ok {
			continue
		}
		r.report.printf("Deleting extra %s", path)
		if r.opts.DryRun {
			r.record(ActionDelete)
			continue
		}
		if err := removeAll(r.fsys, path); err != nil {
			r.fail(ActionError, newError(CodeFilesystem, path, err))
			continue
		}
		r.record(ActionDelete)
	}
}

func (r *runner) oneWayPolicy() Policy {
	return Policy{
		Mode:                   r.opts.ConflictMode,
		CopyConfigurationFiles: r.opts.CopyConfigurationFiles,
		OneWay:                 true,
	}
}
