// Package storage holds uploaded segment blobs. The workflow only ever
// needs three things from a backend: save bytes under a name, read them
// back, and mint a caller-facing locator.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trendle/internal/config"
)

// Store is a blob backend. Save returns the locator later passed to
// Open and Presign.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Presign(ctx context.Context, locator string, expiry time.Duration) (string, error)
}

// New picks the backend from config.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocal(cfg.Storage.Dir)
	case "minio":
		return NewMinIO(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Local stores blobs as plain files under a root directory. Locators
// are paths relative to that root.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root}, nil
}

func (l *Local) path(locator string) (string, error) {
	clean := filepath.Clean(locator)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	dst, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func (l *Local) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	p, err := l.path(locator)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Presign for local storage is just the absolute path; there is nothing
// to sign.
func (l *Local) Presign(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	p, err := l.path(locator)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

// AbsolutePath resolves a locator to a filesystem path for handing to
// the media toolchain.
func (l *Local) AbsolutePath(locator string) (string, error) {
	p, err := l.path(locator)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

// ContentType guesses from the filename extension. Unknown extensions
// fall back to a generic binary type.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
