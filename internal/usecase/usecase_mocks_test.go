package usecase_test

import (
	"context"
	"errors"
	"sync"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Storage fake（mockより読み書き両方の検証がしやすい）
// =====================

type memStorage struct {
	mu      sync.Mutex
	data    map[string]string
	failing bool
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

var _ repo.StorageRepository = (*memStorage)(nil)

func (s *memStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.failing {
		return "", false, errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStorage) SetItem(ctx context.Context, key string, value string) error {
	if s.failing {
		return errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStorage) RemoveItem(ctx context.Context, key string) error {
	if s.failing {
		return errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func (s *memStorage) put(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// =====================
// Gateway mocks
// =====================

type AuthGatewayMock struct{ mock.Mock }

func (m *AuthGatewayMock) IssueToken(ctx context.Context, email string, password string) (model.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	t, _ := args.Get(0).(model.TokenResponse)
	return t, args.Error(1)
}

func (m *AuthGatewayMock) GetCurrentUser(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthGatewayMock) Register(ctx context.Context, in gateway.RegisterInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

type CatalogGatewayMock struct{ mock.Mock }

func (m *CatalogGatewayMock) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	args := m.Called(ctx, bookID)
	b, _ := args.Get(0).(model.Book)
	return b, args.Error(1)
}

func (m *CatalogGatewayMock) ListBooks(ctx context.Context, q gateway.BookListQuery) ([]model.Book, error) {
	args := m.Called(ctx, q)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Error(1)
}

type OrderGatewayMock struct{ mock.Mock }

func (m *OrderGatewayMock) CreateOrder(ctx context.Context, token string, amount float64) (model.OrderCreated, error) {
	args := m.Called(ctx, token, amount)
	o, _ := args.Get(0).(model.OrderCreated)
	return o, args.Error(1)
}

func (m *OrderGatewayMock) CreateOrderItem(ctx context.Context, token string, item model.OrderItemCreate) error {
	args := m.Called(ctx, token, item)
	return args.Error(0)
}

type ReviewGatewayMock struct{ mock.Mock }

func (m *ReviewGatewayMock) ListReviews(ctx context.Context, bookID string, q gateway.ReviewListQuery) (model.ReviewPage, error) {
	args := m.Called(ctx, bookID, q)
	p, _ := args.Get(0).(model.ReviewPage)
	return p, args.Error(1)
}

func (m *ReviewGatewayMock) CreateReview(ctx context.Context, token string, in model.ReviewCreate) error {
	args := m.Called(ctx, token, in)
	return args.Error(0)
}

// =====================
// 共通ヘルパー
// =====================

func authedIdentity(userID string) model.Identity {
	return model.Identity{
		UserID:    userID,
		Email:     "taro@example.com",
		FirstName: "Taro",
		LastName:  "Yamada",
	}
}

func snapshotFor(title string, price float64) model.CartItem {
	return model.CartItem{
		Author: "Some Author",
		Title:  title,
		Price:  price,
		Image:  "/covers/" + title + ".jpg",
	}
}
