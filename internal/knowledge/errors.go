package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrManifestMissing indicates the manifest file is absent from the base path.
var ErrManifestMissing = errors.New("knowledge manifest not found")

// IntegrityError indicates a package file's content hash does not match the
// hash recorded in the manifest. The package is never cached when this is
// returned.
type IntegrityError struct {
	Segment  string
	Expected string
	Actual   string
	Path     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for segment %q: expected %s, got %s (file: %s)",
		e.Segment, e.Expected, e.Actual, e.Path)
}

// PackageFileMissingError indicates a package file listed in the manifest does
// not exist on disk.
type PackageFileMissingError struct {
	Segment string
	Path    string
}

func (e *PackageFileMissingError) Error() string {
	return fmt.Sprintf("package file not found for segment %q: %s", e.Segment, e.Path)
}

// UnknownSegmentError indicates a segment name that is not declared in the
// manifest. Available lists the declared segments to help the caller.
type UnknownSegmentError struct {
	Segment   string
	Available []string
}

func (e *UnknownSegmentError) Error() string {
	return fmt.Sprintf("segment %q not found in manifest (available: %s)",
		e.Segment, strings.Join(e.Available, ", "))
}

// InvalidComplexityError indicates a complexity value outside the known enum.
type InvalidComplexityError struct {
	Value string
}

func (e *InvalidComplexityError) Error() string {
	return fmt.Sprintf("invalid complexity %q (allowed: %s)",
		e.Value, strings.Join(ComplexityLevels(), ", "))
}
