package numeric

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// ErrConvertToBytes byte列への変換エラー
var ErrConvertToBytes = errors.New("convert to bytes error")

// ErrConvertFromBytes byte列からの変換エラー
var ErrConvertFromBytes = errors.New("convert from bytes error")

// ToBytes は値を固定長のビッグエンディアンbyte列へ変換する。
// 長さは常に ByteLen(width) になる。
func ToBytes(v *big.Int, width int) ([]byte, error) {
	if !Fits(v, width) {
		return nil, ErrConvertToBytes
	}

	b := make([]byte, ByteLen(width))
	v.FillBytes(b)
	return b, nil
}

// FromBytes はビッグエンディアンbyte列を値へ変換する。
// 値が width ビットに収まらない場合はエラー。
func FromBytes(b []byte, width int) (*big.Int, error) {
	if len(b) < 1 {
		return nil, ErrConvertFromBytes
	}

	v := new(big.Int).SetBytes(b)
	if !Fits(v, width) {
		return nil, ErrConvertFromBytes
	}
	return v, nil
}
