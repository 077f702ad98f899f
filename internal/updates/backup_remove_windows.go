//go:build windows

package updates

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// removeBackupDir deletes a sandbox backup directory.
//
// On Windows, antivirus/indexers can temporarily hold a handle to files in
// the backup; we retry for a short period and fall back to scheduling
// deletion of the remaining directory at next reboot.
func removeBackupDir(path string) error {
	if path == "" {
		return nil
	}

	tryRemove := func() error {
		err := os.RemoveAll(path)
		if err == nil {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var lastErr error
	for i := 0; i < 15; i++ {
		if err := tryRemove(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(200 * time.Millisecond)
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return lastErr
	}
	if err := windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
		return lastErr
	}
	return nil
}
