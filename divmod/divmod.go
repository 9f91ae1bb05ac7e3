package divmod

import (
	"math/big"

	"github.com/cockroachdb/errors"

	"rsacore-pkg/numeric"
)

// ErrDivideByZero 除数が0の場合のエラー
var ErrDivideByZero = errors.New("divide by zero")

// ErrOperandWidth オペランドが指定のビット幅に収まらない場合のエラー
var ErrOperandWidth = errors.New("operand does not fit in width")

// Divide は回復型除算(restoring division)で a ÷ n の商と余りを求める。
// 上位ビットから width 回、部分剰余を1ビット広げて被除数の次のビットを
// 取り込み、除数を仮に引いてみて、負になれば引く前に戻す(商ビット0)、
// ならなければそのまま(商ビット1)。
// 内部状態を持たない純粋関数なので、並行呼び出しは常に安全。
func Divide(a, n *big.Int, width int) (*big.Int, *big.Int, error) {
	if n == nil || n.Sign() == 0 {
		return nil, nil, ErrDivideByZero
	}
	if !numeric.Fits(a, width) || !numeric.Fits(n, width) {
		return nil, nil, ErrOperandWidth
	}

	quotient := new(big.Int)
	remainder := new(big.Int)
	tentative := new(big.Int)

	for i := width - 1; i >= 0; i-- {
		remainder.Lsh(remainder, 1)
		remainder.SetBit(remainder, 0, a.Bit(i))

		tentative.Sub(remainder, n)
		if tentative.Sign() >= 0 {
			// 引けたのでそのまま採用
			remainder.Set(tentative)
			quotient.SetBit(quotient, i, 1)
		}
	}

	return quotient, remainder, nil
}
