package rsa

import (
	"github.com/cockroachdb/errors"

	"rsacore-pkg/numeric"
)

// Crypter はbyte列の暗号化・復号のインターフェース
type Crypter interface {
	EnCrypt(plainText []byte) ([]byte, error)
	DeCrypt(cipherText []byte) ([]byte, error)
}

type blockCrypter struct {
	keys *KeyPair
	cfg  Config
}

// NewCrypter コンストラクタ。導出済みの鍵ペアからbyte列向けのCrypterを作る。
// 平文はWビット1ブロック、暗号文は2Wビット1ブロックの固定長
func NewCrypter(keys *KeyPair, cfg Config) (Crypter, error) {
	if keys == nil || keys.N == nil {
		return nil, ErrKeysNotReady
	}
	return &blockCrypter{keys: keys, cfg: cfg}, nil
}

// EnCrypt 暗号化。平文byte列を整数へ変換し、2W幅の固定長byte列を返す
func (bc *blockCrypter) EnCrypt(plainText []byte) ([]byte, error) {
	m, err := numeric.FromBytes(plainText, bc.cfg.width())
	if err != nil {
		return nil, errors.Errorf("failed to read plain text: %w", err)
	}

	c, err := bc.keys.Transform(m, Encrypt, bc.cfg)
	if err != nil {
		return nil, err
	}
	return numeric.ToBytes(c, bc.cfg.KeyWidth())
}

// DeCrypt 復号。2W幅の暗号文byte列からW幅の平文byte列へ戻す
func (bc *blockCrypter) DeCrypt(cipherText []byte) ([]byte, error) {
	c, err := numeric.FromBytes(cipherText, bc.cfg.KeyWidth())
	if err != nil {
		return nil, errors.Errorf("failed to read cipher text: %w", err)
	}

	m, err := bc.keys.Transform(c, Decrypt, bc.cfg)
	if err != nil {
		return nil, err
	}
	return numeric.ToBytes(m, bc.cfg.width())
}
