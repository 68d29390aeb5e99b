package sync

import (
	"errors"
	"io/fs"

	"github.com/sabhiram/go-gitignore"
)

// LoadIgnoreFile compiles a gitignore-style file of run-wide ignore rules. An
// empty path or a missing file yields a matcher that ignores nothing.
func LoadIgnoreFile(path string) (*ignore.GitIgnore, error) {
	if path == "" {
		return ignore.CompileIgnoreLines(), nil
	}
	ig, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ignore.CompileIgnoreLines(), nil
		}
		return nil, err
	}
	return ig, nil
}

// shouldIgnore matches rel, a slash-separated path relative to the run roots,
// against the run-wide rules.
func shouldIgnore(rel string, isDir bool, ig *ignore.GitIgnore) bool {
	if ig == nil || rel == "" {
		return false
	}
	if isDir {
		rel += "/"
	}
	return ig.MatchesPath(rel)
}
