package model

// ログイン後に再実行する操作の種類
const PendingActionAddToCart = "add_to_cart"

// ログイン要求で中断された操作。
// クロージャではなく値として保存し、ログイン成功時に1回だけ消費する。
type PendingAction struct {
	Type     string `json:"type"`
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}
