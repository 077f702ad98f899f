package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FileSHA256 returns the hex-encoded sha256 digest of the file at path.
// The file is streamed through the hash, not read into memory.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cannot hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyIntegrity compares the file's sha256 digest against the manifest's
// recorded hash and returns an IntegrityError on mismatch.
func verifyIntegrity(path, expected, segment string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return &IntegrityError{
			Segment:  segment,
			Expected: expected,
			Actual:   actual,
			Path:     path,
		}
	}
	return nil
}
