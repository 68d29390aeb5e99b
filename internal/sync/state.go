package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SaveResult writes result to path as indented JSON. The file is replaced
// atomically.
func SaveResult(path string, result SyncResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	data, marshalErr := json.MarshalIndent(result, "", "  ")
	if marshalErr != nil {
		return marshalErr
	}
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
