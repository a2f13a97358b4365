package handler

import (
	"net/http"

	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkoutのHTTP
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// /checkout を登録
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout", h.placeOrder)
}

func (h *CheckoutHandler) placeOrder(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	token := middleware.TokenFromContext(c)

	out, err := h.uc.PlaceOrder(c.Request().Context(), identity, token)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
