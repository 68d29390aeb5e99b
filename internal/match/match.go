// Package match implements the filename matcher used by directory exclusion
// patterns. A '*' in a pattern matches any run of characters, including the
// empty one. Every other character matches itself, and the whole filename has
// to be covered by the pattern.
package match

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// metaReplacer escapes every doublestar metacharacter except '*'.
var metaReplacer = strings.NewReplacer(
	`\`, `\\`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// Matches reports whether filename is fully matched by pattern.
func Matches(pattern, filename string) bool {
	matched, err := doublestar.Match(metaReplacer.Replace(pattern), filename)
	if err != nil {
		return false
	}
	return matched
}

// Any reports whether filename matches at least one of patterns.
func Any(patterns []string, filename string) bool {
	for _, pattern := range patterns {
		if Matches(pattern, filename) {
			return true
		}
	}
	return false
}
