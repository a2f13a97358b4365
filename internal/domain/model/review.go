package model

// レビュー1件。
type Review struct {
	ID            int64  `json:"id"`
	BookID        int64  `json:"book_id"`
	ReviewTitle   string `json:"review_title"`
	ReviewDetails string `json:"review_details"`
	RatingStar    int    `json:"rating_star"`
	ReviewDate    string `json:"review_date"`
}

// GET /reviews/{bookId} のレスポンス（集計付き）。
type ReviewPage struct {
	Reviews       []Review `json:"reviews"`
	TotalCount    int64    `json:"total_count"`
	AverageRating float64  `json:"average_rating"`
}

// POST /reviews のリクエスト。
type ReviewCreate struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}
