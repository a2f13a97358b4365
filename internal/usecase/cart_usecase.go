package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"bookstore/internal/domain/model"
	"bookstore/internal/metrics"
	repo "bookstore/internal/repository"

	log "github.com/sirupsen/logrus"
)

// CartUsecase はゲストカートとユーザーカートの保存を担当する。
// 保存形式はlocalStorageと同じ2キー:
//
//	cart:      {userId: {bookId: {quantity, author, title, price, image}}}
//	guestCart: {bookId: {quantity, author, title, price, image}}
//
// ストレージが壊れていても空カート扱いにして呼び出し側へはエラーを返さない。
// プロセス内の読み書きはmuで直列化する（並行リクエストで明細を落とさないため）。
// 別プロセスとの同時書き込みはキー単位のlast-write-wins（仕様として許容）。
type CartUsecase struct {
	storage repo.StorageRepository
	metrics *metrics.CartMetrics

	mu sync.Mutex // load→save の区間を守る
}

// DI
func NewCartUsecase(storage repo.StorageRepository, m *metrics.CartMetrics) *CartUsecase {
	return &CartUsecase{
		storage: storage,
		metrics: m,
	}
}

// マージの結果。Truncatedは上限で数量を切り詰めたbookId。
type MergeReport struct {
	Merged    int
	Truncated []string
}

// Get は現在の利用者のカートを返す。
// 無い・読めない・壊れている、のいずれも空カート（エラーにしない）。
func (u *CartUsecase) Get(ctx context.Context, identity model.Identity) model.Cart {
	if identity.IsAnonymous() {
		return u.loadGuestCart(ctx)
	}

	carts := u.loadUserCarts(ctx)
	cart, ok := carts[identity.UserID]
	if !ok {
		return model.Cart{}
	}
	return cart
}

// AddItem はカートに追加する（同一書籍は数量加算、上限8で切り詰め）。
// スナップショット（著者・タイトル・価格・画像）は追加時点の値を保存する。
// 戻り値clampedは上限で切り詰めたかどうか。
func (u *CartUsecase) AddItem(ctx context.Context, identity model.Identity, bookID string, qty int, snapshot model.CartItem) (bool, error) {
	if bookID == "" {
		return false, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	if qty < 1 {
		return false, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	clamped := false

	err := u.mutate(ctx, identity, func(cart model.Cart) {
		item, ok := cart[bookID]
		if !ok {
			item = snapshot
			item.Quantity = 0
		}

		item.Quantity += qty
		if item.Quantity > model.MaxQuantity {
			item.Quantity = model.MaxQuantity
			clamped = true
		}
		cart[bookID] = item
	})
	if err != nil {
		return false, err
	}

	u.metrics.ObserveMutation("add")
	if clamped {
		u.metrics.ObserveQuantityRejected()
	}
	return clamped, nil
}

// SetQuantity は数量を変更する。
//   - 8超: 保存状態は変えず ErrQuantityLimit
//   - 0以下: 保存状態は変えず ErrRemovalRequired（確認後にRemoveを呼ぶ）
//   - 1..8: 上書き保存
func (u *CartUsecase) SetQuantity(ctx context.Context, identity model.Identity, bookID string, qty int) error {
	if qty > model.MaxQuantity {
		u.metrics.ObserveQuantityRejected()
		return ErrQuantityLimit
	}
	if qty <= 0 {
		return ErrRemovalRequired
	}

	found := false
	err := u.mutate(ctx, identity, func(cart model.Cart) {
		item, ok := cart[bookID]
		if !ok {
			return
		}
		found = true
		item.Quantity = qty
		cart[bookID] = item
	})
	if err != nil {
		return err
	}
	if !found {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	u.metrics.ObserveMutation("set_quantity")
	return nil
}

// Remove は明細を削除する。カート自体は空になっても残す。
func (u *CartUsecase) Remove(ctx context.Context, identity model.Identity, bookID string) error {
	err := u.mutate(ctx, identity, func(cart model.Cart) {
		delete(cart, bookID)
	})
	if err != nil {
		return err
	}

	u.metrics.ObserveMutation("remove")
	return nil
}

// MergeGuestIntoUser はゲストカートをユーザーカートへ1回だけ取り込む。
// 同一書籍は min(既存+ゲスト, 8)。取り込み後はguestCartキーごと削除する。
// ゲストカートが空なら何もしない（2回呼ばれても安全）。
func (u *CartUsecase) MergeGuestIntoUser(ctx context.Context, userID string) (MergeReport, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var report MergeReport

	guest := u.loadGuestCart(ctx)
	if len(guest) == 0 {
		// 空でもキーだけ残っているかもしれないので消しておく
		if err := u.storage.RemoveItem(ctx, repo.StorageKeyGuestCart); err != nil {
			return report, err
		}
		return report, nil
	}

	carts := u.loadUserCarts(ctx)
	cart, ok := carts[userID]
	if !ok {
		cart = model.Cart{}
	}

	for _, bookID := range sortedKeys(guest) {
		guestItem := guest[bookID]

		existing, ok := cart[bookID]
		if !ok {
			cart[bookID] = guestItem
			report.Merged++
			continue
		}

		merged := existing.Quantity + guestItem.Quantity
		if merged > model.MaxQuantity {
			merged = model.MaxQuantity
			report.Truncated = append(report.Truncated, bookID)
			u.metrics.ObserveMergeTruncation()
		}
		existing.Quantity = merged
		cart[bookID] = existing
		report.Merged++
	}

	carts[userID] = cart
	if err := u.saveUserCarts(ctx, carts); err != nil {
		return report, err
	}
	if err := u.storage.RemoveItem(ctx, repo.StorageKeyGuestCart); err != nil {
		return report, err
	}

	u.metrics.ObserveMutation("merge")
	return report, nil
}

// Clear はカートをまるごと削除する（チェックアウト後・ログアウト時）。
func (u *CartUsecase) Clear(ctx context.Context, identity model.Identity) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if identity.IsAnonymous() {
		if err := u.storage.RemoveItem(ctx, repo.StorageKeyGuestCart); err != nil {
			return err
		}
	} else {
		carts := u.loadUserCarts(ctx)
		delete(carts, identity.UserID)
		if err := u.saveUserCarts(ctx, carts); err != nil {
			return err
		}
	}

	u.metrics.ObserveMutation("clear")
	return nil
}

// mutate は該当カートを読み、fnで書き換えて保存する。
// 保存はシリアライズしてからキーまるごと置き換え（中間状態を残さない）。
// muで直列化しないと並行する load→save が互いの書き込みを潰す。
func (u *CartUsecase) mutate(ctx context.Context, identity model.Identity, fn func(cart model.Cart)) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if identity.IsAnonymous() {
		cart := u.loadGuestCart(ctx)
		fn(cart)
		return u.saveGuestCart(ctx, cart)
	}

	carts := u.loadUserCarts(ctx)
	cart, ok := carts[identity.UserID]
	if !ok {
		cart = model.Cart{}
	}
	fn(cart)
	carts[identity.UserID] = cart
	return u.saveUserCarts(ctx, carts)
}

func (u *CartUsecase) loadGuestCart(ctx context.Context) model.Cart {
	raw, ok, err := u.storage.GetItem(ctx, repo.StorageKeyGuestCart)
	if err != nil {
		log.WithError(err).Warn("guest cart storage unavailable, treating as empty")
		return model.Cart{}
	}
	if !ok {
		return model.Cart{}
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		log.WithError(err).Warn("guest cart corrupted, treating as empty")
		return model.Cart{}
	}
	if cart == nil {
		cart = model.Cart{}
	}
	return cart
}

func (u *CartUsecase) loadUserCarts(ctx context.Context) map[string]model.Cart {
	raw, ok, err := u.storage.GetItem(ctx, repo.StorageKeyCart)
	if err != nil {
		log.WithError(err).Warn("user cart storage unavailable, treating as empty")
		return map[string]model.Cart{}
	}
	if !ok {
		return map[string]model.Cart{}
	}

	var carts map[string]model.Cart
	if err := json.Unmarshal([]byte(raw), &carts); err != nil {
		log.WithError(err).Warn("user cart corrupted, treating as empty")
		return map[string]model.Cart{}
	}
	if carts == nil {
		carts = map[string]model.Cart{}
	}
	return carts
}

func (u *CartUsecase) saveGuestCart(ctx context.Context, cart model.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return u.storage.SetItem(ctx, repo.StorageKeyGuestCart, string(raw))
}

func (u *CartUsecase) saveUserCarts(ctx context.Context, carts map[string]model.Cart) error {
	raw, err := json.Marshal(carts)
	if err != nil {
		return err
	}
	return u.storage.SetItem(ctx, repo.StorageKeyCart, string(raw))
}

// マージ順を安定させる
func sortedKeys(cart model.Cart) []string {
	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
