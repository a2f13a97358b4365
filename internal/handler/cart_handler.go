package handler

import (
	"net/http"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/middleware"
	"bookstore/internal/notifier"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// /cartのHTTP
type CartHandler struct {
	cartUC   *usecase.CartUsecase
	viewUC   *usecase.CartViewUsecase
	catalog  gateway.CatalogGateway
	notifier *notifier.CartNotifier
}

// DI
func NewCartHandler(
	cartUC *usecase.CartUsecase,
	viewUC *usecase.CartViewUsecase,
	catalog gateway.CatalogGateway,
	n *notifier.CartNotifier,
) *CartHandler {
	return &CartHandler{
		cartUC:   cartUC,
		viewUC:   viewUC,
		catalog:  catalog,
		notifier: n,
	}
}

type AddCartRequest struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

type AddCartResponse struct {
	Clamped bool             `json:"clamped"`
	Cart    usecase.CartView `json:"cart"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartCountResponse struct {
	Count int `json:"count"`
}

type PendingRemovalResponse struct {
	PendingRemoval usecase.PendingRemoval `json:"pending_removal"`
}

// /cart, /cart/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.GET("/count", h.count)
	g.POST("", h.addItem)
	g.PATCH("/:id", h.patchItem)
	g.DELETE("/:id", h.requestRemoval)
	g.POST("/removal/confirm", h.confirmRemoval)
	g.POST("/removal/cancel", h.cancelRemoval)
}

func (h *CartHandler) getCart(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	view := h.viewUC.BuildView(c.Request().Context(), identity)
	return c.JSON(http.StatusOK, view)
}

// ナビバッジ用。毎回ストレージから数え直す（状態は持たない）。
func (h *CartHandler) count(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	cart := h.cartUC.Get(c.Request().Context(), identity)
	return c.JSON(http.StatusOK, CartCountResponse{Count: cart.ItemCount()})
}

func (h *CartHandler) addItem(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	// 追加時点の書誌情報をスナップショットとして保存する
	snapshot, err := h.lookupSnapshot(c, req.BookID)
	if err != nil {
		return writeGatewayError(c, err)
	}

	clamped, err := h.cartUC.AddItem(c.Request().Context(), identity, req.BookID, req.Quantity, snapshot)
	if err != nil {
		return writeError(c, err)
	}

	h.notifier.Publish()
	return c.JSON(http.StatusOK, AddCartResponse{
		Clamped: clamped,
		Cart:    h.viewUC.BuildView(c.Request().Context(), identity),
	})
}

func (h *CartHandler) patchItem(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	bookID := c.Param("id")

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.cartUC.SetQuantity(c.Request().Context(), identity, bookID, req.Quantity)
	if err == usecase.ErrQuantityLimit {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity limit exceeded"})
	}
	if err == usecase.ErrRemovalRequired {
		// 0以下への変更は即削除せず確認フローへ回す
		pending, reqErr := h.viewUC.RequestRemoval(c.Request().Context(), identity, bookID)
		if reqErr != nil {
			return writeError(c, reqErr)
		}
		return c.JSON(http.StatusConflict, PendingRemovalResponse{PendingRemoval: pending})
	}
	if err != nil {
		return writeError(c, err)
	}

	h.notifier.Publish()
	return c.JSON(http.StatusOK, h.viewUC.BuildView(c.Request().Context(), identity))
}

func (h *CartHandler) requestRemoval(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)

	pending, err := h.viewUC.RequestRemoval(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, PendingRemovalResponse{PendingRemoval: pending})
}

func (h *CartHandler) confirmRemoval(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)

	if err := h.viewUC.ConfirmRemoval(c.Request().Context(), identity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.viewUC.BuildView(c.Request().Context(), identity))
}

func (h *CartHandler) cancelRemoval(c echo.Context) error {
	h.viewUC.CancelRemoval(middleware.IdentityFromContext(c))
	return c.JSON(http.StatusOK, SuccessResponse{Message: "removal cancelled"})
}

// カタログから追加時スナップショットを引く。
// 書籍が存在しないときだけエラー。一時的な失敗は空スナップショットで続行する
// （表示時にカタログから補完される）。
func (h *CartHandler) lookupSnapshot(c echo.Context, bookID string) (model.CartItem, error) {
	book, err := h.catalog.GetBook(c.Request().Context(), bookID)
	if err == gateway.ErrNotFound {
		return model.CartItem{}, err
	}
	if err != nil {
		log.WithError(err).WithField("book_id", bookID).Warn("snapshot lookup failed, adding without snapshot")
		return model.CartItem{}, nil
	}

	return model.CartItem{
		Author: book.Author.AuthorName,
		Title:  book.BookTitle,
		Price:  book.EffectivePrice(),
		Image:  book.BookCoverPhoto,
	}, nil
}
