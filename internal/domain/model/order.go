package model

// POST /orders のリクエスト。
type OrderCreate struct {
	OrderAmount float64 `json:"order_amount"`
}

// POST /orders のレスポンス。order_id だけ使う。
type OrderCreated struct {
	OrderID int64 `json:"order_id"`
}

// POST /order-items のリクエスト（1明細ずつ送る）。
type OrderItemCreate struct {
	OrderID  int64   `json:"order_id"`
	BookID   string  `json:"book_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
