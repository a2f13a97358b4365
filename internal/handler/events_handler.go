package handler

import (
	"fmt"
	"net/http"

	"bookstore/internal/notifier"

	"github.com/labstack/echo/v4"
)

// /eventsのHTTP。カート更新通知をSSEで配る。
// 過去分の再送はしない（つなぎ直した側がGET /cartで読み直す）。
type EventsHandler struct {
	notifier *notifier.CartNotifier
}

// DI
func NewEventsHandler(n *notifier.CartNotifier) *EventsHandler {
	return &EventsHandler{notifier: n}
}

// /events/cart を登録
func (h *EventsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/events/cart", h.stream)
}

func (h *EventsHandler) stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-store")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	// 通知はチャネル容量1でつぶす。中身のないイベントなので連続分は1回で足りる
	updates := make(chan struct{}, 1)
	id := h.notifier.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer h.notifier.Unsubscribe(id)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			if _, err := fmt.Fprint(res, "event: cart-updated\ndata: {}\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
