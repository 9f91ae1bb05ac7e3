package rsa

import (
	"math/big"

	"github.com/cockroachdb/errors"

	"rsacore-pkg/keyderive"
	"rsacore-pkg/modexp"
	"rsacore-pkg/numeric"
)

// Mode は変換の向きを表す
type Mode int8

const (
	// Encrypt 公開指数eで暗号化
	Encrypt Mode = iota + 1
	// Decrypt 秘密指数dで復号
	Decrypt
)

// IsAMode モード値が正しいか
func (m Mode) IsAMode() bool {
	return m == Encrypt || m == Decrypt
}

// DefaultWidth 素数・平文のビット幅のデフォルト値
const DefaultWidth = 32

// ErrPrimeWidth 素数がビット幅Wに収まらない場合のエラー
var ErrPrimeWidth = errors.New("prime does not fit in width")

// ErrRangeViolation メッセージが法n以上の場合のエラー。
// そのまま計算すると数値として無意味な結果になるため事前に弾く
var ErrRangeViolation = errors.New("message is out of modulus range")

// ErrMode モード値が不正な場合のエラー
var ErrMode = errors.New("transform mode is unsupported")

// ErrKeysNotReady 鍵導出の完了前に鍵が参照された場合のエラー
var ErrKeysNotReady = errors.New("key pair is not ready")

// Config はRSAコア全体へ引き回す設定。
// Widthが素数と平文のビット幅Wで、法・指数・鍵は2Wビットになる
type Config struct {
	Width          int  // 素数・平文のビット幅W
	CandidateLimit int  // 公開指数の候補数上限。0は無制限
	CompatTruncate bool // 冪剰余の積切り詰め(ハードウェア互換モード)
}

// DefaultConfig デフォルト設定(W=32)
func DefaultConfig() Config {
	return Config{Width: DefaultWidth}
}

func (c Config) width() int {
	if c.Width <= 0 {
		return DefaultWidth
	}
	return c.Width
}

// KeyWidth 法・指数・鍵のビット幅(2W)
func (c Config) KeyWidth() int {
	return c.width() * 2
}

// KeyPair は導出済みの鍵ペア。
// 導出後は読み取り専用なので、複数の変換からロックなしで共有できる
type KeyPair struct {
	N     *big.Int // 法 n = p*q
	E     *big.Int // 公開指数
	D     *big.Int // 秘密指数
	Width int      // 素数・平文のビット幅W
}

// DeriveKeys は素数p, qから鍵ペアを導出する。
// p, qが実際に素数であるかは検証しない(呼び出し側の責務)
func DeriveKeys(p, q *big.Int, cfg Config) (*KeyPair, error) {
	w := cfg.width()
	if !numeric.Fits(p, w) || !numeric.Fits(q, w) {
		return nil, ErrPrimeWidth
	}

	n := new(big.Int).Mul(p, q)
	totient := new(big.Int).Sub(p, big.NewInt(1))
	totient.Mul(totient, new(big.Int).Sub(q, big.NewInt(1)))

	e, d, err := keyderive.Derive(totient, cfg.KeyWidth(), cfg.CandidateLimit)
	if err != nil {
		return nil, errors.Errorf("failed to derive exponent pair: %w", err)
	}

	return &KeyPair{N: n, E: e, D: d, Width: w}, nil
}

// ModPow は base^exponent mod modulus を求める
func ModPow(base, exponent, modulus *big.Int, cfg Config) (*big.Int, error) {
	engine := modexp.NewEngine(cfg.KeyWidth(), cfg.CompatTruncate)
	if err := engine.Start(base, exponent, modulus); err != nil {
		return nil, err
	}
	return engine.Run()
}

// Transform は鍵導出と冪剰余を直列に実行する。
// 鍵を使い回す場合は Session を使うこと
func Transform(message, p, q *big.Int, mode Mode, cfg Config) (*big.Int, error) {
	keys, err := DeriveKeys(p, q, cfg)
	if err != nil {
		return nil, err
	}
	return keys.Transform(message, mode, cfg)
}

// Transform はモードに応じた指数でメッセージを変換する。
// メッセージはWビットから2Wビットへゼロ拡張されて冪剰余に渡る
func (k *KeyPair) Transform(message *big.Int, mode Mode, cfg Config) (*big.Int, error) {
	exponent, err := k.exponent(mode)
	if err != nil {
		return nil, err
	}
	if message == nil || message.Sign() < 0 || message.Cmp(k.N) >= 0 {
		return nil, ErrRangeViolation
	}
	return ModPow(message, exponent, k.N, cfg)
}

// exponent モードに応じた指数の選択
func (k *KeyPair) exponent(mode Mode) (*big.Int, error) {
	switch mode {
	case Encrypt:
		return k.E, nil
	case Decrypt:
		return k.D, nil
	}
	return nil, ErrMode
}
