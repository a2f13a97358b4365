package usecase

import (
	"context"
	"errors"
	"net/http"

	"bookstore/internal/domain/model"
	"bookstore/internal/gateway"
	"bookstore/internal/notifier"

	log "github.com/sirupsen/logrus"
)

// CheckoutUsecase はカートの内容を注文としてAPIへ送る。
type CheckoutUsecase struct {
	cartUC   *CartUsecase
	viewUC   *CartViewUsecase
	orders   gateway.OrderGateway
	notifier *notifier.CartNotifier
}

// DI
func NewCheckoutUsecase(
	cartUC *CartUsecase,
	viewUC *CartViewUsecase,
	orders gateway.OrderGateway,
	n *notifier.CartNotifier,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cartUC:   cartUC,
		viewUC:   viewUC,
		orders:   orders,
		notifier: n,
	}
}

type CheckoutOutput struct {
	OrderID int64   `json:"order_id"`
	Total   float64 `json:"total"`
}

// PlaceOrder は注文ヘッダを作ってから明細を1件ずつ送る。
//
// 明細の一部が失敗した場合は最初の失敗のメッセージをそのまま返す。
// 作成済みの注文ヘッダや受理済みの明細は取り消さず、カートも消さない
// （不整合は隠さず利用者に報告する）。
// 全件成功したときだけカートを消して通知を出す。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, identity model.Identity, token string) (CheckoutOutput, error) {
	var out CheckoutOutput

	// 未ログインの注文はAPIに送らずその場で弾く（ログイン誘導）
	if token == "" || identity.IsAnonymous() {
		return out, ErrLoginRequired
	}

	view := u.viewUC.BuildView(ctx, identity)
	if len(view.Items) == 0 {
		return out, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	created, err := u.orders.CreateOrder(ctx, token, view.GrandTotal)
	if err != nil {
		return out, fromGatewayError(err)
	}

	// 失敗してもそこで止めず全明細を送る。報告するのは最初の失敗だけ。
	var firstErr error
	for _, item := range view.Items {
		err := u.orders.CreateOrderItem(ctx, token, model.OrderItemCreate{
			OrderID:  created.OrderID,
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		log.WithError(firstErr).WithField("order_id", created.OrderID).
			Warn("order partially submitted, leaving cart in place")
		return out, fromGatewayError(firstErr)
	}

	if err := u.cartUC.Clear(ctx, identity); err != nil {
		return out, NewHTTPError(http.StatusInternalServerError, "cart clear failed")
	}
	u.notifier.Publish()

	out.OrderID = created.OrderID
	out.Total = view.GrandTotal
	return out, nil
}

// 外部APIのエラーをHTTPErrorへ変換する。detailはサーバーのメッセージそのまま。
func fromGatewayError(err error) error {
	if errors.Is(err, gateway.ErrUnauthorized) {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if errors.Is(err, gateway.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return NewHTTPError(apiErr.Status, apiErr.Detail)
	}

	return NewHTTPError(http.StatusBadGateway, "upstream request failed")
}
