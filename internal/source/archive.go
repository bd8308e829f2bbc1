package source

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// extractCrate unpacks a .crate archive (gzip'd tar with a single top-level
// "<name>-<version>/" directory) below dest. Entries outside that prefix or
// escaping dest are rejected.
func extractCrate(r io.Reader, dest, topLevel string) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	prefix := topLevel + "/"
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		name := filepath.ToSlash(filepath.Clean(hdr.Name))
		if name != topLevel && !strings.HasPrefix(name, prefix) {
			return fmt.Errorf("archive entry %q outside %s", hdr.Name, prefix)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeArchiveFile(tr, target, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Links and devices never appear in published crates.
			continue
		}
	}
}

func writeArchiveFile(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := mode.Perm() | 0o600
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
