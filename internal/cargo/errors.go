package cargo

import "errors"

var (
	// ErrCargoNotFound indicates the cargo executable was not found.
	ErrCargoNotFound = errors.New("cargo binary not found")
	// ErrCargoFailed indicates cargo exited with a non-zero status.
	ErrCargoFailed = errors.New("cargo doc failed")
	// ErrTimedOut indicates the build exceeded its configured timeout.
	ErrTimedOut = errors.New("cargo doc timed out")
)
