package model

import "time"

// ローカルストレージ相当のKVエントリ（DBドライバ用）。
// valueはシリアライズ済みJSONをまるごと置き換える。
type StorageEntry struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
