package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDATABASE_URLでDBに接続して *gorm.DB を返す。
// カート保存をファイルではなくDBに置きたいときだけ呼ぶ。
func Connect(databaseURL string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
}
