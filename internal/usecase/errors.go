package usecase

import (
	"errors"
	"fmt"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 数量が上限（8）を超える変更。保存状態は変えずに呼び出し側へ知らせる。
var ErrQuantityLimit = errors.New("quantity limit exceeded")

// 数量0以下への変更は削除要求。確認を経てRemoveを呼ぶこと。
var ErrRemovalRequired = errors.New("removal requires confirmation")

// ログインが必要な操作
var ErrLoginRequired = errors.New("login required")
