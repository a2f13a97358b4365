package config

import (
	"fmt"
	"os"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	APIBaseURL string // 書店APIのベースURL（/apiまで含む）
	StorageDir string // ファイルストレージの保存先

	DatabaseURL string // 任意。設定されていればカート保存にDBを使う

	GoEnv string // dev/prod（prodはcookieをsecure+strictにする）
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		APIBaseURL: os.Getenv("API_BASE_URL"),
		StorageDir: os.Getenv("STORAGE_DIR"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		GoEnv: os.Getenv("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.StorageDir == "" {
		return Config{}, fmt.Errorf("STORAGE_DIR is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	return cfg, nil
}

// 本番環境かどうか
func (c Config) IsProduction() bool {
	return c.GoEnv == "prod"
}
