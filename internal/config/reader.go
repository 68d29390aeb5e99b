package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Reader decodes one configuration file format.
type Reader interface {
	// FileName is the name of the file the reader looks for in a directory.
	FileName() string
	Parse(data []byte) (*Directory, error)
}

// document mirrors the on-disk layout shared by every format.
type document struct {
	ConfigVersion     *Version `json:"configVersion" yaml:"configVersion"`
	ExclusionPatterns []string `json:"exclusionPatterns" yaml:"exclusionPatterns"`
	MaxFileSize       *uint64  `json:"maxFileSize" yaml:"maxFileSize"`
}

func (d document) directory() (*Directory, error) {
	if d.ConfigVersion == nil {
		return nil, fmt.Errorf("%w: missing configVersion", ErrParse)
	}
	if !d.ConfigVersion.Compatible() {
		return nil, fmt.Errorf("%w: declared %s, supported %s", ErrIncompatibleVersion, d.ConfigVersion, CompatibleVersions)
	}
	patterns := make([]string, len(d.ExclusionPatterns))
	copy(patterns, d.ExclusionPatterns)
	return &Directory{
		ConfigVersion:     *d.ConfigVersion,
		ExclusionPatterns: patterns,
		MaxFileSize:       d.MaxFileSize,
	}, nil
}

// JSONReader reads .dirsync.json files.
type JSONReader struct{}

func (JSONReader) FileName() string { return Prefix + ".json" }

func (JSONReader) Parse(data []byte) (*Directory, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc.directory()
}

// YAMLReader reads .dirsync.yaml files.
type YAMLReader struct{}

func (YAMLReader) FileName() string { return Prefix + ".yaml" }

func (YAMLReader) Parse(data []byte) (*Directory, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc.directory()
}
