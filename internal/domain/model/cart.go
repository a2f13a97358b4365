package model

// 1商品あたりの数量上限
const MaxQuantity = 8

// カートの明細。
// 追加時点のスナップショット（著者・タイトル・価格・画像）を必ず保存。
type CartItem struct {
	Quantity int     `json:"quantity"`
	Author   string  `json:"author"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

// Cart は bookId -> 明細 のマップ。
type Cart map[string]CartItem

// 明細の種類数（バッジ表示用）
func (c Cart) ItemCount() int {
	return len(c)
}
