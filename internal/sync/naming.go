package sync

import (
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout formats the timestamp inserted into renamed files.
const TimestampLayout = "2006-01-02-15-04-05"

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// splitExtension splits name into stem and extension. The extension starts
// at the last dot; a leading dot alone does not start one.
func splitExtension(name string) (string, string) {
	index := strings.LastIndexByte(name, '.')
	if index <= 0 {
		return name, ""
	}
	return name[:index], name[index:]
}

// TimestampedName returns <stem>-<timestamp><extension> for name.
func TimestampedName(name string, t time.Time) string {
	stem, extension := splitExtension(name)
	return stem + "-" + FormatTimestamp(t) + extension
}

// renamedPath places the timestamped variant of path next to it.
func renamedPath(path string, t time.Time) string {
	return filepath.Join(filepath.Dir(path), TimestampedName(filepath.Base(path), t))
}

// sameSecond compares modification times at one-second precision.
func sameSecond(a, b time.Time) bool {
	return a.Unix() == b.Unix()
}
