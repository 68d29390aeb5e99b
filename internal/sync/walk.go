package sync

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// listDir returns the direct children of dir sorted by name. A missing
// directory has no children.
func listDir(fsys billy.Filesystem, dir string) ([]os.FileInfo, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})
	return infos, nil
}

// childNames collects the names of infos.
func childNames(infos []os.FileInfo) map[string]struct{} {
	names := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		names[info.Name()] = struct{}{}
	}
	return names
}

// relativeChild extends a slash-separated path relative to the run roots.
func relativeChild(rel, name string) string {
	if rel == "" {
		return name
	}
	return path.Join(rel, name)
}
