package repository

import (
	"context"
)

// ブラウザのlocalStorage相当の約束。
// 値はシリアライズ済み文字列で、書き込みはキー単位でまるごと置き換える。
// 複数プロセスから同じキーを書くとlast-write-winsで片方が消える（仕様として許容）。
type StorageRepository interface {
	// 無ければ ok=false（エラーにしない）
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// ストレージキー（ブラウザ版のlocalStorageと同じキー名）
const (
	StorageKeyCart          = "cart"
	StorageKeyGuestCart     = "guestCart"
	StorageKeyPendingAction = "pendingAction"
)
