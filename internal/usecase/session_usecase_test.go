package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/notifier"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type sessionFixture struct {
	authGW    *AuthGatewayMock
	storage   *memStorage
	cartUC    *usecase.CartUsecase
	sessionUC *usecase.SessionUsecase
	published *int
}

func newSessionFixture() *sessionFixture {
	authGW := &AuthGatewayMock{}
	storage := newMemStorage()
	cartUC := newCartUC(storage)

	n := notifier.New()
	published := 0
	n.Subscribe(func() { published++ })

	return &sessionFixture{
		authGW:    authGW,
		storage:   storage,
		cartUC:    cartUC,
		sessionUC: usecase.NewSessionUsecase(authGW, cartUC, storage, n),
		published: &published,
	}
}

func (f *sessionFixture) expectLogin(userID int64) {
	f.authGW.On("IssueToken", mock.Anything, "taro@example.com", "password123").
		Return(model.TokenResponse{AccessToken: "tok", UserID: userID}, nil)
	f.authGW.On("GetCurrentUser", mock.Anything, "tok").
		Return(model.User{ID: userID, Email: "taro@example.com", FirstName: "Taro", LastName: "Yamada"}, nil)
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	assert.NoError(t, err)
	return signed
}

func TestSessionUsecase_Login_MergesGuestCart(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	_, err := f.cartUC.AddItem(ctx, model.Anonymous, "42", 2, snapshotFor("A", 10))
	assert.NoError(t, err)
	_, err = f.cartUC.AddItem(ctx, authedIdentity("7"), "42", 3, snapshotFor("A", 10))
	assert.NoError(t, err)

	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "7", out.Identity.UserID)
	assert.Equal(t, "tok", out.Token)
	assert.Equal(t, 1, out.Merge.Merged)

	assert.Equal(t, 5, f.cartUC.Get(ctx, out.Identity)["42"].Quantity)
	assert.False(t, f.storage.has(repo.StorageKeyGuestCart))
	assert.Equal(t, 1, *f.published)
}

func TestSessionUsecase_Login_SameUserAgainDoesNotRemerge(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	first, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)

	// 1回目のログイン後に紛れ込んだゲストカートは、
	// 資格情報を持ったままの同一ユーザー再ログインでは取り込まれない
	_, err = f.cartUC.AddItem(ctx, model.Anonymous, "99", 1, snapshotFor("B", 20))
	assert.NoError(t, err)

	out, err := f.sessionUC.Login(ctx, first.Identity, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Zero(t, out.Merge.Merged)
	assert.True(t, f.storage.has(repo.StorageKeyGuestCart))
	assert.NotContains(t, f.cartUC.Get(ctx, out.Identity), "99")
}

// cookieを失った（ゲストとして届いた）再ログインは同一ユーザーでもマージされる。
func TestSessionUsecase_Login_AfterCookieLossMergesForSameUser(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	_, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)

	_, err = f.cartUC.AddItem(ctx, model.Anonymous, "99", 1, snapshotFor("B", 20))
	assert.NoError(t, err)

	// 資格情報が無いリクエストはAnonymousとして届く
	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Merge.Merged)
	assert.False(t, f.storage.has(repo.StorageKeyGuestCart))
	assert.Equal(t, 1, f.cartUC.Get(ctx, out.Identity)["99"].Quantity)
}

func TestSessionUsecase_Login_AfterLogoutMergesAgain(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.NoError(t, f.sessionUC.Logout(ctx, out.Identity))

	_, err = f.cartUC.AddItem(ctx, model.Anonymous, "99", 1, snapshotFor("B", 20))
	assert.NoError(t, err)

	out, err = f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Merge.Merged)
	assert.Equal(t, 1, f.cartUC.Get(ctx, out.Identity)["99"].Quantity)
}

func TestSessionUsecase_RelogAfterLogoutDoesNotResurrectCart(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)

	_, err = f.cartUC.AddItem(ctx, out.Identity, "42", 2, snapshotFor("A", 10))
	assert.NoError(t, err)

	assert.NoError(t, f.sessionUC.Logout(ctx, out.Identity))

	// ログアウトのクリアは取り消せない。再ログインしても空のまま
	out, err = f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Empty(t, f.cartUC.Get(ctx, out.Identity))
}

func TestSessionUsecase_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.authGW.On("IssueToken", mock.Anything, "taro@example.com", "wrong-password").
		Return(model.TokenResponse{}, gateway.ErrUnauthorized)

	_, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "wrong-password")
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 401, he.Status)
	assert.Zero(t, *f.published)
}

func TestSessionUsecase_Login_ReplaysPendingAction(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)

	action := model.PendingAction{Type: model.PendingActionAddToCart, BookID: "42", Quantity: 2}
	assert.NoError(t, f.sessionUC.StorePendingAction(ctx, action))

	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.NotNil(t, out.ReplayedAction)
	assert.Equal(t, action, *out.ReplayedAction)

	assert.Equal(t, 2, f.cartUC.Get(ctx, out.Identity)["42"].Quantity)

	// consume-once（2回目のログインでは再実行されない）
	assert.False(t, f.storage.has(repo.StorageKeyPendingAction))
}

func TestSessionUsecase_Logout_ClearsLocalUserCartOnly(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	identity := authedIdentity("7")
	_, err := f.cartUC.AddItem(ctx, identity, "42", 2, snapshotFor("A", 10))
	assert.NoError(t, err)
	_, err = f.cartUC.AddItem(ctx, model.Anonymous, "99", 1, snapshotFor("B", 20))
	assert.NoError(t, err)

	assert.NoError(t, f.sessionUC.Logout(ctx, identity))

	assert.Empty(t, f.cartUC.Get(ctx, identity))
	assert.Equal(t, 1, f.cartUC.Get(ctx, model.Anonymous)["99"].Quantity)
	assert.Equal(t, 1, *f.published)
}

func TestSessionUsecase_ResolveIdentity_EmptyToken(t *testing.T) {
	f := newSessionFixture()

	identity := f.sessionUC.ResolveIdentity(context.Background(), "")
	assert.True(t, identity.IsAnonymous())
	f.authGW.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}

func TestSessionUsecase_ResolveIdentity_ExpiredTokenSkipsLookup(t *testing.T) {
	f := newSessionFixture()
	token := signedToken(t, time.Now().Add(-time.Hour))

	identity := f.sessionUC.ResolveIdentity(context.Background(), token)
	assert.True(t, identity.IsAnonymous())
	f.authGW.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}

func TestSessionUsecase_ResolveIdentity_LookupFailureFallsBackToGuest(t *testing.T) {
	f := newSessionFixture()
	token := signedToken(t, time.Now().Add(time.Hour))
	f.authGW.On("GetCurrentUser", mock.Anything, token).
		Return(model.User{}, gateway.ErrUnauthorized)

	identity := f.sessionUC.ResolveIdentity(context.Background(), token)
	assert.True(t, identity.IsAnonymous())
}

func TestSessionUsecase_ResolveIdentity_ValidToken(t *testing.T) {
	f := newSessionFixture()
	token := signedToken(t, time.Now().Add(time.Hour))
	f.authGW.On("GetCurrentUser", mock.Anything, token).
		Return(model.User{ID: 7, Email: "taro@example.com", FirstName: "Taro", LastName: "Yamada"}, nil)

	identity := f.sessionUC.ResolveIdentity(context.Background(), token)
	assert.Equal(t, "7", identity.UserID)
	assert.Equal(t, "taro@example.com", identity.Email)
}

func TestSessionUsecase_Login_CorruptPendingActionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLogin(7)
	f.storage.put(repo.StorageKeyPendingAction, "{not json")

	out, err := f.sessionUC.Login(ctx, model.Anonymous, "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Nil(t, out.ReplayedAction)
	assert.False(t, f.storage.has(repo.StorageKeyPendingAction))
}

func TestSessionUsecase_StorePendingAction_RoundTrips(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	action := model.PendingAction{Type: model.PendingActionAddToCart, BookID: "42", Quantity: 1}
	assert.NoError(t, f.sessionUC.StorePendingAction(ctx, action))

	raw, ok, err := f.storage.GetItem(ctx, repo.StorageKeyPendingAction)
	assert.NoError(t, err)
	assert.True(t, ok)

	var stored model.PendingAction
	assert.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, action, stored)
}
