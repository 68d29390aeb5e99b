// Package config loads the per-directory synchronization configuration.
//
// A directory may carry a local configuration file whose name starts with
// Prefix. The file lists filename patterns and a size limit that exclude
// entries of that directory and of every directory below it.
package config

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/MarkoPoloResearchLab/dirsync/internal/match"
)

// Prefix is the reserved filename prefix of local configuration files.
const Prefix = ".dirsync"

// FormatVersion is the configuration format version written by this build.
const FormatVersion = "0.0.0"

// CompatibleVersions is the semver constraint a declared version has to meet.
// Every format before 1.0.0 shares the same layout.
const CompatibleVersions = ">=" + FormatVersion + ", <1.0.0"

var (
	// ErrParse reports a configuration file that exists but cannot be decoded.
	ErrParse = errors.New("configuration parse error")
	// ErrIncompatibleVersion reports a configuration file written for an
	// unsupported format version.
	ErrIncompatibleVersion = errors.New("configuration version incompatible")
	// ErrUnreadable reports a configuration file that exists but cannot be read.
	ErrUnreadable = errors.New("configuration unreadable")
)

// Version is the declared configuration format version.
type Version struct {
	Major uint64 `json:"major" yaml:"major"`
	Minor uint64 `json:"minor" yaml:"minor"`
	Patch uint64 `json:"patch" yaml:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether v can be read by this build.
func (v Version) Compatible() bool {
	constraint, err := semver.NewConstraint(CompatibleVersions)
	if err != nil {
		return false
	}
	return constraint.Check(semver.New(v.Major, v.Minor, v.Patch, "", ""))
}

// Directory is the configuration of a single directory. It is immutable once
// loaded.
type Directory struct {
	ConfigVersion     Version
	ExclusionPatterns []string
	// MaxFileSize is nil when regular files of any size are allowed.
	MaxFileSize *uint64
}

// Excludes reports whether an entry named name is excluded by d. The size
// limit only applies to regular files.
func (d *Directory) Excludes(name string, regular bool, size int64) bool {
	if d == nil {
		return false
	}
	if regular && d.MaxFileSize != nil && size >= 0 && uint64(size) > *d.MaxFileSize {
		return true
	}
	return match.Any(d.ExclusionPatterns, name)
}

// IsConfigFile reports whether name carries the reserved configuration prefix.
func IsConfigFile(name string) bool {
	return len(name) >= len(Prefix) && name[:len(Prefix)] == Prefix
}
