package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/notifier"
	repo "bookstore/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
)

// SessionUsecase は現在の利用者（ゲスト/ログイン済み）の切り替えを担当する。
//
// 状態遷移は Anonymous ⇄ Authenticated(userId) の2状態だけ。
//   - Anonymous → Authenticated: ゲストカートのマージを必ず1回行う
//   - Authenticated → Anonymous: ローカルのユーザーカートを必ず消す
//
// ログアウトを挟まず同じユーザーで再ログインしても、マージもクリアもしない。
// 「今が誰か」はリクエストの資格情報から解決した値を受け取る（プロセス内に持たない）。
type SessionUsecase struct {
	authGW   gateway.AuthGateway
	cartUC   *CartUsecase
	storage  repo.StorageRepository
	notifier *notifier.CartNotifier
}

// DI
func NewSessionUsecase(
	authGW gateway.AuthGateway,
	cartUC *CartUsecase,
	storage repo.StorageRepository,
	n *notifier.CartNotifier,
) *SessionUsecase {
	return &SessionUsecase{
		authGW:   authGW,
		cartUC:   cartUC,
		storage:  storage,
		notifier: n,
	}
}

// ログイン結果。handlerがcookieに詰める値もここに含む。
type LoginOutput struct {
	Identity model.Identity
	Token    string
	Merge    MergeReport
	// ログインで中断されていた操作を再実行したかどうか
	ReplayedAction *model.PendingAction
}

// ResolveIdentity は資格情報から現在の利用者を判定する。
// トークンが無い・期限切れ・プロフィール取得失敗、のいずれもゲストに落とす。
// ゲストに落ちた場合でもエラーにはしない（UIは常にどちらかのカートを表示できる）。
func (u *SessionUsecase) ResolveIdentity(ctx context.Context, token string) model.Identity {
	if token == "" {
		return model.Anonymous
	}

	// 期限切れが読み取れるならAPIを呼ばずに落とす（検証自体は発行元に任せる）
	if tokenExpired(token) {
		log.Debug("credential expired, falling back to guest")
		return model.Anonymous
	}

	user, err := u.authGW.GetCurrentUser(ctx, token)
	if err != nil {
		// 無効トークンも一時的な失敗も等しくゲスト扱い（ハードエラーにしない）
		log.WithError(err).Debug("profile lookup failed, falling back to guest")
		return model.Anonymous
	}

	return model.Identity{
		UserID:    strconv.FormatInt(user.ID, 10),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// Login はトークン発行→プロフィール解決→ゲストカートのマージ→保留操作の再実行、を行う。
// currentはこのリクエストの資格情報から解決した利用者。cookieを失って
// ゲストとして買い物した後の再ログインはAnonymousから来るので必ずマージされる。
// マージは Anonymous → Authenticated の遷移時だけ。ゲストカートが無くても安全。
func (u *SessionUsecase) Login(ctx context.Context, current model.Identity, email string, password string) (LoginOutput, error) {
	var out LoginOutput

	token, err := u.authGW.IssueToken(ctx, email, password)
	if err != nil {
		if err == gateway.ErrUnauthorized {
			return out, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		if apiErr, ok := err.(*gateway.APIError); ok {
			return out, NewHTTPError(apiErr.Status, apiErr.Detail)
		}
		return out, NewHTTPError(http.StatusBadGateway, "login failed")
	}

	identity, err := u.resolveAfterLogin(ctx, token)
	if err != nil {
		return out, err
	}

	out.Identity = identity
	out.Token = token.AccessToken

	// ログアウトを挟まない同一ユーザーの再ログインではマージしない
	if !current.IsAnonymous() && current.UserID == identity.UserID {
		return out, nil
	}

	report, err := u.cartUC.MergeGuestIntoUser(ctx, identity.UserID)
	if err != nil {
		return out, NewHTTPError(http.StatusInternalServerError, "cart merge failed")
	}
	out.Merge = report

	if action, ok := u.takePendingAction(ctx); ok {
		out.ReplayedAction = &action
		u.replayPendingAction(ctx, identity, action)
	}

	u.notifier.Publish()
	return out, nil
}

// Logout はローカルのユーザーカートを消して（サーバー側の注文履歴は触らない）、
// ゲスト状態へ戻す。資格情報のcookie削除はhandler側。
func (u *SessionUsecase) Logout(ctx context.Context, identity model.Identity) error {
	if !identity.IsAnonymous() {
		if err := u.cartUC.Clear(ctx, identity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "cart clear failed")
		}
	}

	u.notifier.Publish()
	return nil
}

// StorePendingAction はログインで中断された操作を保存する。
// クロージャではなく値として保存し、ログイン成功時に1回だけ消費される。
func (u *SessionUsecase) StorePendingAction(ctx context.Context, action model.PendingAction) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return err
	}
	return u.storage.SetItem(ctx, repo.StorageKeyPendingAction, string(raw))
}

// 保留中の操作を取り出して消す（consume-once）。
func (u *SessionUsecase) takePendingAction(ctx context.Context) (model.PendingAction, bool) {
	raw, ok, err := u.storage.GetItem(ctx, repo.StorageKeyPendingAction)
	if err != nil || !ok {
		return model.PendingAction{}, false
	}

	var action model.PendingAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		log.WithError(err).Warn("pending action corrupted, discarding")
		_ = u.storage.RemoveItem(ctx, repo.StorageKeyPendingAction)
		return model.PendingAction{}, false
	}

	_ = u.storage.RemoveItem(ctx, repo.StorageKeyPendingAction)
	return action, true
}

// 保留操作の再実行。失敗してもログインは成功扱い（ログだけ残す）。
func (u *SessionUsecase) replayPendingAction(ctx context.Context, identity model.Identity, action model.PendingAction) {
	switch action.Type {
	case model.PendingActionAddToCart:
		snapshot := model.CartItem{}
		if _, err := u.cartUC.AddItem(ctx, identity, action.BookID, action.Quantity, snapshot); err != nil {
			log.WithError(err).WithField("book_id", action.BookID).Warn("pending add to cart failed")
		}
	default:
		log.WithField("type", action.Type).Warn("unknown pending action, discarding")
	}
}

func (u *SessionUsecase) resolveAfterLogin(ctx context.Context, token model.TokenResponse) (model.Identity, error) {
	user, err := u.authGW.GetCurrentUser(ctx, token.AccessToken)
	if err == nil {
		return model.Identity{
			UserID:    strconv.FormatInt(user.ID, 10),
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		}, nil
	}

	// プロフィール取得に失敗してもトークンレスポンスにIDがあればそれで続行する
	if token.UserID > 0 {
		return model.Identity{
			UserID:    strconv.FormatInt(token.UserID, 10),
			Email:     token.UserEmail,
			FirstName: token.FirstName,
			LastName:  token.LastName,
		}, nil
	}

	return model.Identity{}, NewHTTPError(http.StatusBadGateway, "profile lookup failed")
}

// トークンの期限だけ未検証で読む。署名の検証は発行元のAPIがやる。
// 読めない形式はここでは判定せず /users/me の結果に任せる。
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
