package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FingerprintDir is where the build engine keeps per-unit freshness records.
func FingerprintDir(targetDir string) string {
	return filepath.Join(targetDir, "debug", ".fingerprint")
}

// CleanFingerprints removes every doc-* entry under the target's fingerprint
// directory so the next build regenerates documentation even when sources are
// unchanged. It returns the number of entries removed; a missing directory is
// not an error.
func CleanFingerprints(targetDir string) (int, error) {
	dir := FingerprintDir(targetDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "doc-") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
