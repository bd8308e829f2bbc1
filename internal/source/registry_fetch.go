package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// RegistryFetcher downloads and unpacks registry archives into the cache.
type RegistryFetcher struct {
	client *RegistryClient
	logger *slog.Logger
	locks  keyedMutex
}

func NewRegistryFetcher(client *RegistryClient, logger *slog.Logger) *RegistryFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryFetcher{client: client, logger: logger}
}

func (f *RegistryFetcher) Fetch(ctx context.Context, pkg ResolvedPackage) (LocalPackage, error) {
	if pkg.LocalPath == "" {
		return LocalPackage{}, derrors.InternalError("resolved package has no local path", nil)
	}
	unlock := f.locks.lock(pkg.LocalPath)
	defer unlock()

	if _, err := os.Stat(filepath.Join(pkg.LocalPath, ManifestName)); err == nil {
		f.logger.Debug("Package already present", logfields.Package(pkg.Name), logfields.Path(pkg.LocalPath))
		return localPackage(pkg), nil
	}

	version := pkg.Version.String()
	dl, err := f.client.DownloadURL(ctx, pkg.Name, version, pkg.Checksum)
	if err != nil {
		return LocalPackage{}, err
	}

	start := time.Now()
	archive, err := f.download(ctx, dl, pkg.Checksum)
	if err != nil {
		return LocalPackage{}, err
	}
	defer func() { _ = os.Remove(archive) }()

	parent := filepath.Dir(pkg.LocalPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return LocalPackage{}, derrors.WorkspaceError("create cache dir", err)
	}
	tmp, err := os.MkdirTemp(parent, ".extract-*")
	if err != nil {
		return LocalPackage{}, derrors.WorkspaceError("create extract dir", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	topLevel := pkg.Name + "-" + version
	file, err := os.Open(archive)
	if err != nil {
		return LocalPackage{}, derrors.WorkspaceError("open archive", err)
	}
	err = extractCrate(file, tmp, topLevel)
	_ = file.Close()
	if err != nil {
		return LocalPackage{}, derrors.FetchError(dl, err)
	}
	if err := os.Rename(filepath.Join(tmp, topLevel), pkg.LocalPath); err != nil {
		// Another process may have unpacked the same package first.
		if _, serr := os.Stat(filepath.Join(pkg.LocalPath, ManifestName)); serr == nil {
			return localPackage(pkg), nil
		}
		return LocalPackage{}, derrors.WorkspaceError("move extracted package", err)
	}

	f.logger.Info("Fetched package",
		logfields.Package(pkg.Name),
		logfields.Version(version),
		logfields.Path(pkg.LocalPath),
		logfields.Duration(time.Since(start)))
	return localPackage(pkg), nil
}

// download streams dl into a temp file and verifies its sha256 when a checksum is known.
func (f *RegistryFetcher) download(ctx context.Context, dl, checksum string) (string, error) {
	body, status, err := f.client.get(ctx, dl)
	if err != nil {
		return "", derrors.FetchError(dl, err)
	}
	defer body.Close()
	if status != http.StatusOK {
		return "", derrors.FetchError(dl, fmt.Errorf("download returned HTTP %d", status))
	}

	tmp, err := os.CreateTemp("", "youmu-crate-*")
	if err != nil {
		return "", derrors.WorkspaceError("create download file", err)
	}
	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, h), body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", derrors.FetchError(dl, err)
	}
	if checksum != "" {
		if got := hex.EncodeToString(h.Sum(nil)); got != checksum {
			_ = os.Remove(tmp.Name())
			return "", derrors.FetchError(dl, fmt.Errorf("checksum mismatch: want %s, got %s", checksum, got))
		}
	}
	return tmp.Name(), nil
}
