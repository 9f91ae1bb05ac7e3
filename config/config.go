package env

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"rsacore-pkg/rsa"
)

const (
	cmdDir    = "cmd"
	configDir = "configs"
)

// RsaConfig はRSAコアと鍵保存先の設定。
// widthが素数・平文のビット幅Wで、レガシーハードウェアのデフォルトは32。
// 実運用では素数1つあたり512〜2048を想定
type RsaConfig struct {
	Width          int    `mapstructure:"width"`
	CandidateLimit int    `mapstructure:"candidate_limit"`
	CompatTruncate bool   `mapstructure:"compat_truncate"`
	RedisAddr      string `mapstructure:"redis_addr"`
	MysqlDsn       string `mapstructure:"mysql_dsn"`
	KeyDir         string `mapstructure:"key_dir"`
}

// Core RSAコア向けの設定値だけを切り出す
func (c *RsaConfig) Core() rsa.Config {
	return rsa.Config{
		Width:          c.Width,
		CandidateLimit: c.CandidateLimit,
		CompatTruncate: c.CompatTruncate,
	}
}

// ReadRsa は環境変数とYAMLファイルからRSAコアの設定を取得。
// ファイルが無い項目はデフォルト値で埋める
func ReadRsa(cfgDirPath string) (*RsaConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("width", rsa.DefaultWidth)
	v.SetDefault("candidate_limit", 0)
	v.SetDefault("compat_truncate", false)

	v.SetConfigName(GetAppEnv())
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDirPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Errorf("read cfg error: %w", err)
	}

	cfg := &RsaConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Errorf("parse cfg error: %w", err)
	}
	return cfg, nil
}

// Read は環境変数とYAMLファイルから任意の構造体へ新規のコンフィグを取得
func Read(config any) error {
	return read(config, GetAppEnv(), getConfigDirPath(2))
}

// read はconfigの読み込みを実施
func read(cfg any, cfgName string, cfgDirPath string) error {
	v := viper.New()
	v.AutomaticEnv()

	v.SetConfigName(cfgName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDirPath)

	if err := v.ReadInConfig(); err != nil {
		return errors.Errorf("read cfg error: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return errors.Errorf("parse cfg error: %w", err)
	}
	return nil
}

// getConfigDirPath configディレクトリの取得(readでのみ使用)
func getConfigDirPath(skip int) string {
	// クロスプラットフォーム対策
	_, file, _, _ := runtime.Caller(skip)
	dirList := strings.Split(filepath.ToSlash(filepath.Dir(file)), "/")
	dirPath := "./"

	for i, dir := range dirList {
		if dir == cmdDir {
			dirPath = filepath.Join(configDir, filepath.Join(dirList[i+1:]...))
			break
		}
	}
	return dirPath
}
