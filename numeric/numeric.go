package numeric

import (
	"math/big"
)

// Fits は v が非負かつ width ビットに収まるかを返す
func Fits(v *big.Int, width int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	return v.BitLen() <= width
}

// Mask 下位 width ビットのマスクを返す
func Mask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

// Truncate は v の下位 width ビットを切り出した新しい値を返す。
// 元の v は変更しない。
func Truncate(v *big.Int, width int) *big.Int {
	return new(big.Int).And(v, Mask(width))
}

// ByteLen width ビットの値を格納するのに必要なバイト数
func ByteLen(width int) int {
	return (width + 7) / 8
}
