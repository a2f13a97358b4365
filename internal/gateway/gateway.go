package gateway

import (
	"context"
	"errors"
	"fmt"

	"bookstore/internal/domain/model"
)

// 認証切れ・無効トークン
var ErrUnauthorized = errors.New("unauthorized")

// 対象が存在しない（削除済みの書籍など）
var ErrNotFound = errors.New("not found")

// APIが返したエラー。detailはサーバー側のメッセージそのまま。
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d detail=%s", e.Status, e.Detail)
}

// GET /books の検索条件（絞り込みとソートはAPI側に委譲）。
type BookListQuery struct {
	FilterBy   string // discount_desc / popular_desc / final_price_asc / final_price_desc
	AuthorID   int64
	CategoryID int64
	Star       float64
	Limit      int
	Offset     int
}

// GET /reviews/{bookId} の検索条件。
type ReviewListQuery struct {
	SortBy     string
	Limit      int
	Offset     int
	RatingStar int
}

// POST /users の入力。
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// カタログ参照の約束。
// 失敗はエラーで返し、カート表示側が「未解決」の劣化表示に変換する。
type CatalogGateway interface {
	GetBook(ctx context.Context, bookID string) (model.Book, error)
	ListBooks(ctx context.Context, q BookListQuery) ([]model.Book, error)
}

// 認証・ユーザー情報の約束。
type AuthGateway interface {
	// form-encodedの username/password でトークン発行
	IssueToken(ctx context.Context, email string, password string) (model.TokenResponse, error)
	GetCurrentUser(ctx context.Context, token string) (model.User, error)
	Register(ctx context.Context, in RegisterInput) error
}

// 注文送信の約束。
type OrderGateway interface {
	CreateOrder(ctx context.Context, token string, amount float64) (model.OrderCreated, error)
	CreateOrderItem(ctx context.Context, token string, item model.OrderItemCreate) error
}

// レビューの約束。
type ReviewGateway interface {
	ListReviews(ctx context.Context, bookID string, q ReviewListQuery) (model.ReviewPage, error)
	CreateReview(ctx context.Context, token string, in model.ReviewCreate) error
}
