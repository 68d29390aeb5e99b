package sync

import (
	"sort"

	"github.com/MarkoPoloResearchLab/dirsync/internal/config"
)

// syncTwoWay reconciles two peer directories, recursively. Names present on a
// single side are handed to the one-way walk; files present on both sides go
// to the conflict resolver.
func (r *runner) syncTwoWay(stack *configStack, leftDir, rightDir, rel string) error {
	leftCfg, rightCfg, err := r.loadPair(leftDir, rightDir)
	if err != nil {
		return err
	}
	stack.push(leftCfg, rightCfg)
	defer stack.pop()

	left := r.admissible(stack, leftDir, leftSide, rel)
	right := r.admissible(stack, rightDir, rightSide, rel)

	names := make([]string, 0, len(left)+len(right))
	for name := range left {
		names = append(names, name)
	}
	for name := range right {
		if _, ok := left[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		leftEntry, inLeft := left[name]
		rightEntry, inRight := right[name]
		childRel := relativeChild(rel, name)

		switch {
		case inLeft && !inRight:
			err = r.delegate(stack, leftEntry, r.fsys.Join(rightDir, name), childRel, false)
		case inRight && !inLeft:
			err = r.delegate(stack, rightEntry, r.fsys.Join(leftDir, name), childRel, true)
		default:
			err = r.syncPeers(stack, leftEntry, rightEntry, childRel)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// admissible lists the children of dir that the configuration of side sd lets
// take part in the run. Configuration files are always admissible.
func (r *runner) admissible(stack *configStack, dir string, sd side, rel string) map[string]Entry {
	children, err := listDir(r.fsys, dir)
	if err != nil {
		r.fail(ActionError, newError(CodeFilesystem, dir, err))
		return nil
	}

	entries := make(map[string]Entry, len(children))
	for _, child := range children {
		path := r.fsys.Join(dir, child.Name())
		entry, err := statEntry(r.fsys, path)
		if err != nil {
			r.fail(ActionError, newError(CodeFilesystem, path, err))
			continue
		}
		if !entry.Exists {
			continue
		}
		if entry.Kind == KindFile && config.IsConfigFile(entry.Name) {
			entries[entry.Name] = entry
			continue
		}
		if !stack.allows(entry, sd) || !r.admits(entry, relativeChild(rel, entry.Name)) {
			continue
		}
		entries[entry.Name] = entry
	}
	return entries
}

// delegate copies an entry that exists on one side only. The one-way walk gets
// its own stack seeded with the frames loaded so far, oriented so the existing
// side is the source, which keeps ancestor exclusions in force below this
// point without touching the two-way stack.
func (r *runner) delegate(stack *configStack, source Entry, targetPath, rel string, fromRight bool) error {
	return r.syncOneWayChild(stack.oriented(fromRight), source.Path, targetPath, rel)
}

// syncPeers handles a name present on both sides.
func (r *runner) syncPeers(stack *configStack, left, right Entry, rel string) error {
	switch {
	case left.Kind == KindOther:
		r.unsupported(left)
	case right.Kind == KindOther:
		r.unsupported(right)
	case left.Kind == KindFile && right.Kind == KindFile:
		r.syncFile(left, right, Policy{
			Mode:                   r.opts.ConflictMode,
			CopyConfigurationFiles: r.opts.CopyConfigurationFiles,
		})
	case left.Kind == KindDirectory && right.Kind == KindDirectory:
		return r.syncTwoWay(stack, left.Path, right.Path, rel)
	default:
		r.incompatible(left, right)
	}
	return nil
}
