//go:build !windows

package updates

import (
	"errors"
	"os"
)

// removeBackupDir deletes a sandbox backup directory.
func removeBackupDir(path string) error {
	if path == "" {
		return nil
	}
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
