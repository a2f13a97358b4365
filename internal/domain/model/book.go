package model

// 書店APIの著者
type Author struct {
	AuthorName string `json:"author_name"`
}

// 割引。先頭の1件だけを有効価格として使う。
type Discount struct {
	DiscountPrice   float64 `json:"discount_price"`
	DiscountEndDate string  `json:"discount_end_date,omitempty"`
}

// GET /books/{id} のレスポンス形。
type Book struct {
	ID             int64      `json:"id"`
	BookTitle      string     `json:"book_title"`
	BookSummary    string     `json:"book_summary,omitempty"`
	BookPrice      float64    `json:"book_price"`
	BookCoverPhoto string     `json:"book_cover_photo"`
	Author         Author     `json:"author"`
	Discounts      []Discount `json:"discounts"`
}

// 割引があれば割引価格、無ければ定価。
func (b Book) EffectivePrice() float64 {
	if len(b.Discounts) > 0 && b.Discounts[0].DiscountPrice > 0 {
		return b.Discounts[0].DiscountPrice
	}
	return b.BookPrice
}
