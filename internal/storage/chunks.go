package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Uploader assembles chunked uploads. Chunks land in a .part file in a
// scratch directory; Finalize streams the assembled file into the blob
// store under a fresh name and removes the scratch file. Chunks must
// arrive in index order.
type Uploader struct {
	Store   Store
	WorkDir string

	mu      sync.Mutex
	pending map[string]*partial
}

type partial struct {
	path string
	next int
}

func NewUploader(store Store, workDir string) *Uploader {
	return &Uploader{Store: store, WorkDir: workDir, pending: map[string]*partial{}}
}

// Begin registers an upload and creates its scratch file.
func (u *Uploader) Begin(uploadID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.pending[uploadID]; ok {
		return fmt.Errorf("upload %s already started", uploadID)
	}
	if err := os.MkdirAll(u.WorkDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(u.WorkDir, uploadID+".part")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	f.Close()
	u.pending[uploadID] = &partial{path: path}
	return nil
}

// AppendChunk writes chunk number index. An unknown upload id starts
// one implicitly at index 0.
func (u *Uploader) AppendChunk(uploadID string, index int, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.pending[uploadID]
	if !ok {
		if index != 0 {
			return fmt.Errorf("upload %s not started", uploadID)
		}
		if err := os.MkdirAll(u.WorkDir, 0o755); err != nil {
			return err
		}
		p = &partial{path: filepath.Join(u.WorkDir, uploadID+".part")}
		u.pending[uploadID] = p
	}
	if index != p.next {
		return fmt.Errorf("upload %s: chunk %d out of order, want %d", uploadID, index, p.next)
	}
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	p.next++
	return nil
}

// Finalize moves the assembled bytes into the store and returns the
// final locator. The stored name keeps the original extension but gets
// a fresh uuid stem so uploads never collide.
func (u *Uploader) Finalize(ctx context.Context, uploadID, originalName string) (string, error) {
	u.mu.Lock()
	p, ok := u.pending[uploadID]
	if ok {
		delete(u.pending, uploadID)
	}
	u.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("upload %s not started", uploadID)
	}
	defer os.Remove(p.path)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + filepath.Ext(originalName)
	return u.Store.Save(ctx, name, bytes.NewReader(data), int64(len(data)))
}
