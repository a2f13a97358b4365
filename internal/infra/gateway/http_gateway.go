package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	gw "bookstore/internal/gateway"
)

// 書店REST APIのHTTPクライアント実装。
// baseURLは /api まで含む（例: http://localhost:8000/api）。
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// DI。httpClientがnilならタイムアウト付きの既定クライアントを使う。
func NewHTTPGateway(baseURL string, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &HTTPGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

var _ gw.CatalogGateway = (*HTTPGateway)(nil)
var _ gw.AuthGateway = (*HTTPGateway)(nil)
var _ gw.OrderGateway = (*HTTPGateway)(nil)
var _ gw.ReviewGateway = (*HTTPGateway)(nil)

// GET /books/{id}
func (g *HTTPGateway) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	var book model.Book
	if err := g.doJSON(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID), "", nil, &book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

// GET /books（絞り込み・ソートはAPI側に委譲）
func (g *HTTPGateway) ListBooks(ctx context.Context, q gw.BookListQuery) ([]model.Book, error) {
	params := url.Values{}
	if q.FilterBy != "" {
		params.Set("filterBy", q.FilterBy)
	}
	if q.AuthorID > 0 {
		params.Set("author_id", strconv.FormatInt(q.AuthorID, 10))
	}
	if q.CategoryID > 0 {
		params.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.Star > 0 {
		params.Set("star", strconv.FormatFloat(q.Star, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	path := "/books"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var books []model.Book
	if err := g.doJSON(ctx, http.MethodGet, path, "", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// POST /token（form-encoded。emailはusernameとして送る）
func (g *HTTPGateway) IssueToken(ctx context.Context, email string, password string) (model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("post token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.TokenResponse{}, responseError(resp)
	}

	var token model.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return model.TokenResponse{}, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

// GET /users/me（Bearer）
func (g *HTTPGateway) GetCurrentUser(ctx context.Context, token string) (model.User, error) {
	var user model.User
	if err := g.doJSON(ctx, http.MethodGet, "/users/me", token, nil, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// POST /users（会員登録）
func (g *HTTPGateway) Register(ctx context.Context, in gw.RegisterInput) error {
	return g.doJSON(ctx, http.MethodPost, "/users", "", in, nil)
}

// POST /orders（Bearer）。order_id を受け取る。
func (g *HTTPGateway) CreateOrder(ctx context.Context, token string, amount float64) (model.OrderCreated, error) {
	var created model.OrderCreated
	if err := g.doJSON(ctx, http.MethodPost, "/orders", token, model.OrderCreate{OrderAmount: amount}, &created); err != nil {
		return model.OrderCreated{}, err
	}
	return created, nil
}

// POST /order-items（Bearer、1明細ずつ）
func (g *HTTPGateway) CreateOrderItem(ctx context.Context, token string, item model.OrderItemCreate) error {
	return g.doJSON(ctx, http.MethodPost, "/order-items", token, item, nil)
}

// GET /reviews/{bookId}
func (g *HTTPGateway) ListReviews(ctx context.Context, bookID string, q gw.ReviewListQuery) (model.ReviewPage, error) {
	params := url.Values{}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.RatingStar > 0 {
		params.Set("rating_star", strconv.Itoa(q.RatingStar))
	}

	path := "/reviews/" + url.PathEscape(bookID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page model.ReviewPage
	if err := g.doJSON(ctx, http.MethodGet, path, "", nil, &page); err != nil {
		return model.ReviewPage{}, err
	}
	return page, nil
}

// POST /reviews（Bearer）
func (g *HTTPGateway) CreateReview(ctx context.Context, token string, in model.ReviewCreate) error {
	return g.doJSON(ctx, http.MethodPost, "/reviews", token, in, nil)
}

// JSONリクエストを送ってJSONレスポンスを受ける共通処理。
// outがnilならボディは読み捨てる。
func (g *HTTPGateway) doJSON(ctx context.Context, method string, path string, token string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ステータスコードをエラーに変換する。
// detailフィールドはサーバーのメッセージをそのまま保持する。
func responseError(resp *http.Response) error {
	detail := "unknown server error"

	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.Detail != "" {
		detail = parsed.Detail
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return gw.ErrUnauthorized
	case http.StatusNotFound:
		return gw.ErrNotFound
	}

	return &gw.APIError{Status: resp.StatusCode, Detail: detail}
}
