package keystore

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rsacore-pkg/rsa"
)

// ErrNotFound 指定IDの鍵ペアが存在しない場合のエラー
var ErrNotFound = errors.New("key pair not found")

// ErrRecord 保存されている鍵データが壊れている場合のエラー
var ErrRecord = errors.New("stored key record is broken")

var logger = logrus.WithFields(logrus.Fields{
	"component": "keystore",
})

// KeyStore 鍵ペアの保存・取得用インターフェース
type KeyStore interface {
	Save(ctx context.Context, keys *rsa.KeyPair) (string, error)
	Load(ctx context.Context, id string) (*rsa.KeyPair, error)
}

// Record は鍵ペアの保存形式。
// 法や指数はビット幅の上限が設定次第なので10進文字列で持つ
type Record struct {
	Id    string `json:"id" db:"id"`
	Width int    `json:"width" db:"width"`
	N     string `json:"n" db:"n"`
	E     string `json:"e" db:"e"`
	D     string `json:"d" db:"d"`
}

// NewRecord は鍵ペアから保存形式を作る。IDは新規UUID
func NewRecord(keys *rsa.KeyPair) *Record {
	return &Record{
		Id:    uuid.New().String(),
		Width: keys.Width,
		N:     keys.N.Text(10),
		E:     keys.E.Text(10),
		D:     keys.D.Text(10),
	}
}

// KeyPair は保存形式から鍵ペアを復元する
func (r *Record) KeyPair() (*rsa.KeyPair, error) {
	n, ok := new(big.Int).SetString(r.N, 10)
	if !ok {
		return nil, ErrRecord
	}
	e, ok := new(big.Int).SetString(r.E, 10)
	if !ok {
		return nil, ErrRecord
	}
	d, ok := new(big.Int).SetString(r.D, 10)
	if !ok {
		return nil, ErrRecord
	}
	return &rsa.KeyPair{N: n, E: e, D: d, Width: r.Width}, nil
}
