package sync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// OSFS is a billy.Filesystem that acts like the native filesystem. Paths are
// used as given, so callers pass absolute paths.
type OSFS struct {
	osfs.ChrootOS
}

// NewOSFS returns the native filesystem.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Chroot returns a new filesystem rooted at the provided path.
//
//nolint:ireturn // billy.Filesystem is an interface; signature is dictated by upstream.
func (o *OSFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (o *OSFS) Root() string {
	return "/"
}

// Chtimes sets the access and modification times of name.
func (o *OSFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

type timesChanger interface {
	Chtimes(name string, atime time.Time, mtime time.Time) error
}

// copyFile copies from into to, creating missing parent directories, and
// carries the modification time over so later runs see both as equal. A
// partially written destination is removed.
func copyFile(fsys billy.Filesystem, from string, to string, modTime time.Time, perm os.FileMode) error {
	if err := fsys.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(to), err)
	}

	src, err := fsys.Open(from)
	if err != nil {
		return fmt.Errorf("open %q: %w", from, err)
	}
	defer src.Close()

	if perm == 0 {
		perm = 0o644
	}
	dst, err := fsys.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %q: %w", to, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = fsys.Remove(to)
		return fmt.Errorf("copy %q to %q: %w", from, to, err)
	}
	if err := dst.Close(); err != nil {
		_ = fsys.Remove(to)
		return fmt.Errorf("close %q: %w", to, err)
	}

	if changer, ok := fsys.(timesChanger); ok {
		if err := changer.Chtimes(to, modTime, modTime); err != nil {
			return fmt.Errorf("chtimes %q: %w", to, err)
		}
	}
	return nil
}

func removeAll(fsys billy.Filesystem, path string) error {
	if err := util.RemoveAll(fsys, path); err != nil {
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return nil
}

func makeDir(fsys billy.Filesystem, path string) error {
	if err := fsys.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", path, err)
	}
	return nil
}
