package model

// POST /token のレスポンス。access_token以外は表示用。
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	UserEmail   string `json:"user_email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}
