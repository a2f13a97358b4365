package usecase

import (
	"context"
	"math"
	"net/http"
	"sync"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/metrics"
	"bookstore/internal/notifier"

	log "github.com/sirupsen/logrus"
)

// カタログ未解決時のプレースホルダ
const unknownBookTitle = "Unknown Book"

// 表示用の明細。totalは表示時に2桁へ丸める。
type DisplayLineItem struct {
	BookID     string  `json:"book_id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Image      string  `json:"image"`
	LineTotal  float64 `json:"line_total"`
	Unresolved bool    `json:"unresolved"`
}

// 表示用のカート全体。合計は毎回作り直す（キャッシュしない）。
type CartView struct {
	Items      []DisplayLineItem `json:"items"`
	GrandTotal float64           `json:"grand_total"`
	ItemCount  int               `json:"item_count"`
}

// 削除確認の状態。nil（Idle）か1件のPendingRemovalだけ。
type PendingRemoval struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
}

// 保持用。確認を出した利用者以外からは操作できないようにuserIDを併せて持つ。
type pendingRemoval struct {
	PendingRemoval
	userID string // ゲストは空
}

// CartViewUsecase はカートの保存内容とカタログを突き合わせて表示用のビューを作る。
// あわせて削除確認（Idle ⇄ PendingRemoval）の状態を持つ。
type CartViewUsecase struct {
	cartUC   *CartUsecase
	catalog  gateway.CatalogGateway
	notifier *notifier.CartNotifier
	metrics  *metrics.CartMetrics

	mu      sync.Mutex
	pending *pendingRemoval
}

// DI
func NewCartViewUsecase(
	cartUC *CartUsecase,
	catalog gateway.CatalogGateway,
	n *notifier.CartNotifier,
	m *metrics.CartMetrics,
) *CartViewUsecase {
	return &CartViewUsecase{
		cartUC:   cartUC,
		catalog:  catalog,
		notifier: n,
		metrics:  m,
	}
}

// BuildView は表示用のビューを作る。
// カタログ参照は書籍ごとに並行で投げて全件そろってから組み立てる。
// 解決できなかった書籍も消さずにプレースホルダ表示で残す
// （カートの数量と並び順はカタログの状態に依存させない）。
// 金額は保存済みスナップショットの価格で計算する（商品が消えても壊れない）。
func (u *CartViewUsecase) BuildView(ctx context.Context, identity model.Identity) CartView {
	cart := u.cartUC.Get(ctx, identity)

	books := u.resolveBooks(ctx, cart)

	view := CartView{Items: make([]DisplayLineItem, 0, len(cart))}
	for _, bookID := range sortedKeys(cart) {
		item := cart[bookID]
		book, resolved := books[bookID]

		display := DisplayLineItem{
			BookID:     bookID,
			Title:      item.Title,
			Author:     item.Author,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Image:      item.Image,
			Unresolved: !resolved,
		}

		// スナップショットに無い項目だけカタログで補う
		if resolved {
			if display.Title == "" {
				display.Title = book.BookTitle
			}
			if display.Author == "" {
				display.Author = book.Author.AuthorName
			}
			if display.Image == "" {
				display.Image = book.BookCoverPhoto
			}
			if display.Price == 0 {
				display.Price = book.EffectivePrice()
			}
		}
		if display.Title == "" {
			display.Title = unknownBookTitle
		}

		display.LineTotal = roundMoney(display.Price * float64(display.Quantity))
		view.Items = append(view.Items, display)
		view.GrandTotal += display.LineTotal
	}

	view.GrandTotal = roundMoney(view.GrandTotal)
	view.ItemCount = cart.ItemCount()
	return view
}

// RequestRemoval は削除確認を開始する。
// すでに別の確認が出ていれば対象を置き換える（確認は積まない）。
func (u *CartViewUsecase) RequestRemoval(ctx context.Context, identity model.Identity, bookID string) (PendingRemoval, error) {
	cart := u.cartUC.Get(ctx, identity)
	item, ok := cart[bookID]
	if !ok {
		return PendingRemoval{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	title := item.Title
	if title == "" {
		title = unknownBookTitle
	}

	pending := PendingRemoval{BookID: bookID, Title: title}

	u.mu.Lock()
	u.pending = &pendingRemoval{PendingRemoval: pending, userID: identity.UserID}
	u.mu.Unlock()

	return pending, nil
}

// ConfirmRemoval は確認済みの削除を実行して通知を出す。
// 確認を出した利用者以外からの実行は409（状態は消費しない）。
func (u *CartViewUsecase) ConfirmRemoval(ctx context.Context, identity model.Identity) error {
	u.mu.Lock()
	if u.pending == nil || u.pending.userID != identity.UserID {
		u.mu.Unlock()
		return NewHTTPError(http.StatusConflict, "no removal pending")
	}
	pending := u.pending
	u.pending = nil
	u.mu.Unlock()

	if err := u.cartUC.Remove(ctx, identity, pending.BookID); err != nil {
		return err
	}

	u.notifier.Publish()
	return nil
}

// CancelRemoval は確認を取り下げる。保存内容は変更しない。
// 出した本人以外の取り下げは無視する。
func (u *CartViewUsecase) CancelRemoval(identity model.Identity) {
	u.mu.Lock()
	if u.pending != nil && u.pending.userID == identity.UserID {
		u.pending = nil
	}
	u.mu.Unlock()
}

// Pending は現在の削除確認（あれば）を返す。
func (u *CartViewUsecase) Pending() (PendingRemoval, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.pending == nil {
		return PendingRemoval{}, false
	}
	return u.pending.PendingRemoval, true
}

// カタログを書籍ごとに並行で引く。書き込み先のキーは互いに素なので
// 1本のロックで十分。失敗した書籍はマップに入れない（未解決扱い）。
func (u *CartViewUsecase) resolveBooks(ctx context.Context, cart model.Cart) map[string]model.Book {
	books := make(map[string]model.Book, len(cart))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for bookID := range cart {
		wg.Add(1)
		go func(bookID string) {
			defer wg.Done()

			book, err := u.catalog.GetBook(ctx, bookID)
			if err != nil {
				log.WithError(err).WithField("book_id", bookID).Warn("catalog lookup failed")
				u.metrics.ObserveUnresolvedLookup()
				return
			}

			mu.Lock()
			books[bookID] = book
			mu.Unlock()
		}(bookID)
	}

	wg.Wait()
	return books
}

// 表示用の2桁丸め。保存している値は丸めない。
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
