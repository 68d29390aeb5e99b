package sync

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Kind is the type of a directory entry as far as synchronization cares.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	// KindOther covers symbolic links, devices, sockets and pipes.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Entry describes one side of a comparison. It is built per comparison and
// never stored.
type Entry struct {
	Path    string
	Name    string
	Kind    Kind
	Exists  bool
	ModTime time.Time
	Size    int64
	Mode    os.FileMode
}

func entryFromInfo(path string, info os.FileInfo) Entry {
	entry := Entry{
		Path:    path,
		Name:    filepath.Base(path),
		Exists:  true,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Mode:    info.Mode(),
	}
	switch {
	case info.Mode().IsRegular():
		entry.Kind = KindFile
	case info.IsDir():
		entry.Kind = KindDirectory
	default:
		entry.Kind = KindOther
	}
	return entry
}

// statEntry describes path without following symbolic links. A missing path
// yields an entry with Exists unset and no error.
func statEntry(fsys billy.Filesystem, path string) (Entry, error) {
	info, err := fsys.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{Path: path, Name: filepath.Base(path)}, nil
		}
		return Entry{}, err
	}
	return entryFromInfo(path, info), nil
}
