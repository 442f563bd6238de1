package mocks

import (
	"context"
	"io"
	"io/fs"
	"sync"

	"github.com/Skryldev/stereomerge/infrastructure/storage"
)

// MockStorageProvider is a test double for ports.StorageProvider. Calls
// without a Func fall through to the local filesystem, so tests only stub
// the operation they want to break.
type MockStorageProvider struct {
	ReadDirFunc   func(ctx context.Context, dir string) ([]fs.DirEntry, error)
	ReadFileFunc  func(ctx context.Context, path string) ([]byte, error)
	WriteFileFunc func(ctx context.Context, path string, write func(w io.Writer) error) error
	RemoveFunc    func(ctx context.Context, path string) error
	StatFunc      func(ctx context.Context, path string) (fs.FileInfo, error)

	mu      sync.Mutex
	Removed []string
	Written []string

	local storage.LocalStorage
}

func (m *MockStorageProvider) ReadDir(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	if m.ReadDirFunc != nil {
		return m.ReadDirFunc(ctx, dir)
	}
	return m.local.ReadDir(ctx, dir)
}

func (m *MockStorageProvider) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(ctx, path)
	}
	return m.local.ReadFile(ctx, path)
}

func (m *MockStorageProvider) WriteFile(ctx context.Context, path string, write func(w io.Writer) error) error {
	m.mu.Lock()
	m.Written = append(m.Written, path)
	m.mu.Unlock()
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, path, write)
	}
	return m.local.WriteFile(ctx, path, write)
}

func (m *MockStorageProvider) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, path)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}
	return m.local.Remove(ctx, path)
}

func (m *MockStorageProvider) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if m.StatFunc != nil {
		return m.StatFunc(ctx, path)
	}
	return m.local.Stat(ctx, path)
}

// RemovedPaths returns a snapshot of the paths passed to Remove
func (m *MockStorageProvider) RemovedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Removed...)
}
