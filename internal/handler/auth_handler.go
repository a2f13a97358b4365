package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"
	"bookstore/internal/validator"

	"github.com/labstack/echo/v4"
)

// /authのHTTP。資格情報cookieの読み書きはここで完結させる。
type AuthHandler struct {
	sessionUC *usecase.SessionUsecase
	authGW    gateway.AuthGateway
	cfg       config.Config
}

// DI
func NewAuthHandler(sessionUC *usecase.SessionUsecase, authGW gateway.AuthGateway, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		sessionUC: sessionUC,
		authGW:    authGW,
		cfg:       cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type PendingActionRequest struct {
	Type     string `json:"type"`
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

type UserResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResponse struct {
	User           UserResponse         `json:"user"`
	MergedItems    int                  `json:"merged_items"`
	Truncated      []string             `json:"truncated,omitempty"`
	ReplayedAction *model.PendingAction `json:"replayed_action,omitempty"`
}

type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// /auth/* を登録
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")

	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.POST("/register", h.register)
	g.GET("/session", h.session)
	g.POST("/pending-action", h.storePendingAction)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateLogin(req.Email, req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	out, err := h.sessionUC.Login(c.Request().Context(), middleware.IdentityFromContext(c), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	middleware.SetCredentialCookies(c, h.cfg, out.Token, out.Identity)

	return c.JSON(http.StatusOK, LoginResponse{
		User:           toUserResponse(out.Identity),
		MergedItems:    out.Merge.Merged,
		Truncated:      out.Merge.Truncated,
		ReplayedAction: out.ReplayedAction,
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)

	if err := h.sessionUC.Logout(c.Request().Context(), identity); err != nil {
		return writeError(c, err)
	}

	middleware.ClearCredentialCookies(c, h.cfg)
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateRegister(req.Email, req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	err := h.authGW.Register(c.Request().Context(), gateway.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return writeGatewayError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{Message: "registered"})
}

// 現在の利用者。ゲストでも200（UIはゲストカート表示に切り替える）。
func (h *AuthHandler) session(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity.IsAnonymous() {
		return c.JSON(http.StatusOK, SessionResponse{Authenticated: false})
	}

	user := toUserResponse(identity)
	return c.JSON(http.StatusOK, SessionResponse{Authenticated: true, User: &user})
}

// ログインが必要で中断された操作を保存する。ログイン成功時に1回だけ再実行される。
func (h *AuthHandler) storePendingAction(c echo.Context) error {
	var req PendingActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Type != model.PendingActionAddToCart || req.BookID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pending action"})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	err := h.sessionUC.StorePendingAction(c.Request().Context(), model.PendingAction{
		Type:     req.Type,
		BookID:   req.BookID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "pending action stored"})
}

func toUserResponse(identity model.Identity) UserResponse {
	return UserResponse{
		UserID:    identity.UserID,
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
	}
}
