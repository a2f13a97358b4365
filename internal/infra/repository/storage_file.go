package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ファイル実装のローカルストレージ。キーごとに1ファイル。
// 書き込みは一時ファイルに全量を書いてからrenameで置き換える。
// 途中で落ちてもパース不能な中間状態は残らない。
type FileStorageRepository struct {
	dir string
	mu  sync.Mutex
}

// DI。dirが無ければ作る。
func NewFileStorageRepository(dir string) (*FileStorageRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir storage dir: %w", err)
	}
	return &FileStorageRepository{dir: dir}, nil
}

func (r *FileStorageRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(raw), true, nil
}

func (r *FileStorageRepository) SetItem(ctx context.Context, key string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), r.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (r *FileStorageRepository) RemoveItem(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (r *FileStorageRepository) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}
