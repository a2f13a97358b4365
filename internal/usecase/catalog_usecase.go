package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/validator"
)

// CatalogUsecase はカタログ閲覧とレビューの業務ロジック。
// 検索・絞り込み・集計はAPI側に委譲し、ここでは入力の検証だけする。
type CatalogUsecase struct {
	catalog gateway.CatalogGateway
	reviews gateway.ReviewGateway
}

// DI
func NewCatalogUsecase(catalog gateway.CatalogGateway, reviews gateway.ReviewGateway) *CatalogUsecase {
	return &CatalogUsecase{
		catalog: catalog,
		reviews: reviews,
	}
}

type ListBooksInput struct {
	FilterBy   string
	AuthorID   int64
	CategoryID int64
	Star       float64
	Limit      int
	Offset     int
}

// APIが受け付けるソート指定
var validFilterBy = map[string]bool{
	"":                 true,
	"discount_desc":    true,
	"popular_desc":     true,
	"final_price_asc":  true,
	"final_price_desc": true,
}

// ListBooks は一覧検索。
func (u *CatalogUsecase) ListBooks(ctx context.Context, in ListBooksInput) ([]model.Book, error) {
	if !validFilterBy[in.FilterBy] {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid filterBy")
	}
	if in.Limit < 0 || in.Limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if in.Star < 0 || in.Star > 5 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid star")
	}

	books, err := u.catalog.ListBooks(ctx, gateway.BookListQuery{
		FilterBy:   in.FilterBy,
		AuthorID:   in.AuthorID,
		CategoryID: in.CategoryID,
		Star:       in.Star,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, fromGatewayError(err)
	}
	return books, nil
}

// GetBook は詳細表示用の1件取得。
func (u *CatalogUsecase) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	if bookID == "" {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}

	book, err := u.catalog.GetBook(ctx, bookID)
	if err != nil {
		return model.Book{}, fromGatewayError(err)
	}
	return book, nil
}

type ListReviewsInput struct {
	SortBy     string
	Limit      int
	Offset     int
	RatingStar int
}

// ListReviews は書籍に付いたレビューの一覧（集計込み）。
func (u *CatalogUsecase) ListReviews(ctx context.Context, bookID string, in ListReviewsInput) (model.ReviewPage, error) {
	if bookID == "" {
		return model.ReviewPage{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	if in.Limit < 0 || in.Limit > 100 {
		return model.ReviewPage{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.RatingStar < 0 || in.RatingStar > 5 {
		return model.ReviewPage{}, NewHTTPError(http.StatusBadRequest, "invalid rating_star")
	}

	page, err := u.reviews.ListReviews(ctx, bookID, gateway.ReviewListQuery{
		SortBy:     in.SortBy,
		Limit:      in.Limit,
		Offset:     in.Offset,
		RatingStar: in.RatingStar,
	})
	if err != nil {
		return model.ReviewPage{}, fromGatewayError(err)
	}
	return page, nil
}

// CreateReview はレビュー投稿。ログイン必須。
func (u *CatalogUsecase) CreateReview(ctx context.Context, token string, in model.ReviewCreate) error {
	if token == "" {
		return ErrLoginRequired
	}
	if err := validator.ValidateReview(in.Title, in.Rating); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid review")
	}

	if err := u.reviews.CreateReview(ctx, token, in); err != nil {
		return fromGatewayError(err)
	}
	return nil
}
