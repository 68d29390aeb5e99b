package config

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Provider returns the configuration of a directory. A nil configuration with
// a nil error means the directory has no configuration file.
type Provider interface {
	Load(fsys billy.Filesystem, dir string) (*Directory, error)
}

// FileProvider tries each reader in order and returns the first configuration
// file found.
type FileProvider struct {
	Readers []Reader
}

// NewProvider returns a provider for every supported file format.
func NewProvider() *FileProvider {
	return &FileProvider{Readers: []Reader{JSONReader{}, YAMLReader{}}}
}

// Load implements Provider.
func (p *FileProvider) Load(fsys billy.Filesystem, dir string) (*Directory, error) {
	for _, reader := range p.Readers {
		path := fsys.Join(dir, reader.FileName())
		data, err := util.ReadFile(fsys, path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		}
		cfg, err := reader.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return nil, nil
}
