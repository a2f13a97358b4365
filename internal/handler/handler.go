package handler

import (
	"net/http"

	"bookstore/internal/gateway"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのHTTPErrorをそのまま返す。それ以外は詳細を隠して500。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if err == usecase.ErrLoginRequired {
		// 送信前に弾いてログイン画面へ誘導する
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "login required"})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	// 想定外。中身はログに残してクライアントには出さない
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// gatewayのエラーをHTTPへ写す（APIのステータスは素通し）。
func writeGatewayError(c echo.Context, err error) error {
	switch {
	case err == gateway.ErrUnauthorized:
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case err == gateway.ErrNotFound:
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
	if apiErr, ok := err.(*gateway.APIError); ok {
		return c.JSON(apiErr.Status, ErrorResponse{Error: apiErr.Detail})
	}
	return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream error"})
}
