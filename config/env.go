package env

import "os"

const (
	Key        = "APP_ENV"
	DefaultEnv = "tst001"
)

// GetAppEnv 環境変数取得。未設定の場合はデフォルト環境名を返す
func GetAppEnv() string {
	env := os.Getenv(Key)
	if env == "" {
		return DefaultEnv
	}
	return env
}
