package model

// 現在の利用者。UserIDが空ならゲスト扱い。
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

// ゲスト（未ログイン）
var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}
