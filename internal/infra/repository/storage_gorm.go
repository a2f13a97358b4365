package repository

import (
	"context"
	"errors"
	"fmt"

	"bookstore/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB実装のローカルストレージ（storage_entriesテーブル）。
// 1キー=1行で、書き込みは行まるごとのupsert。
type StorageGormRepository struct {
	db *gorm.DB
}

// DI
func NewStorageGormRepository(db *gorm.DB) *StorageGormRepository {
	return &StorageGormRepository{db: db}
}

func (r *StorageGormRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var entry model.StorageEntry

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (r *StorageGormRepository) SetItem(ctx context.Context, key string, value string) error {
	entry := model.StorageEntry{Key: key, Value: value}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error

	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (r *StorageGormRepository) RemoveItem(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&model.StorageEntry{}).Error

	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
