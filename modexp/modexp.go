package modexp

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"rsacore-pkg/divmod"
	"rsacore-pkg/numeric"
)

// State は冪剰余エンジンの状態を表す
type State int8

const (
	// Loading 入力の取り込み待ち
	Loading State = iota
	// Reducing 反復計算中
	Reducing
	// Done 計算完了。次のStartまで結果を保持する
	Done
)

// ErrNotStarted Startの前にStepが呼ばれた場合のエラー
var ErrNotStarted = errors.New("modexp engine is not started")

// ErrNotDone 計算完了前に結果が読まれた場合のエラー
var ErrNotDone = errors.New("modexp result is not ready")

var logger = logrus.WithFields(logrus.Fields{
	"component": "modexp",
})

// Engine は繰り返し二乗法による冪剰余 base^exponent mod modulus の状態機械。
// 1回のStepが指数1ビット分の反復に相当する。
type Engine struct {
	width          int  // オペランドのビット幅(鍵幅 2W)
	compatTruncate bool // 積を下位 width ビットへ切り詰めてから剰余を取る(ハードウェア互換動作)

	state   State
	modulus *big.Int
	result  *big.Int
	base    *big.Int // runningBase
	exp     *big.Int // runningExponent
}

// NewEngine コンストラクタ
func NewEngine(width int, compatTruncate bool) *Engine {
	return &Engine{width: width, compatTruncate: compatTruncate, state: Loading}
}

// Start は入力を取り込み、作業状態を初期化する。
// 実行中のエンジンに対して呼ばれた場合、進行中の計算は破棄される。
func (e *Engine) Start(base, exponent, modulus *big.Int) error {
	e.reset()

	if modulus == nil || modulus.Sign() == 0 {
		return divmod.ErrDivideByZero
	}
	if !numeric.Fits(base, e.width) || !numeric.Fits(exponent, e.width) || !numeric.Fits(modulus, e.width) {
		return divmod.ErrOperandWidth
	}

	e.modulus = new(big.Int).Set(modulus)
	e.result = big.NewInt(1)
	e.base = new(big.Int).Set(base)
	e.exp = new(big.Int).Set(exponent)

	// 指数0は反復なしで完了(結果は初期値の1)
	if e.exp.Sign() == 0 {
		e.state = Done
		return nil
	}

	logger.Debugf("start: width=%d exponent_bits=%d", e.width, e.exp.BitLen())
	e.state = Reducing
	return nil
}

// Step は指数1ビット分の反復を進める。完了時にtrueを返す。
// 途中で演算エラーが起きた場合、作業状態は破棄され初期状態に戻る。
func (e *Engine) Step() (bool, error) {
	switch e.state {
	case Done:
		return true, nil
	case Loading:
		return false, ErrNotStarted
	}

	// 指数の最下位ビットが1のときだけ結果に乗算する
	if e.exp.Bit(0) == 1 {
		r, err := e.mulMod(e.result, e.base)
		if err != nil {
			e.reset()
			return false, err
		}
		e.result = r
	}

	b, err := e.mulMod(e.base, e.base)
	if err != nil {
		e.reset()
		return false, err
	}
	e.base = b
	e.exp.Rsh(e.exp, 1)

	if e.exp.Sign() == 0 {
		e.state = Done
	}
	return e.state == Done, nil
}

// Run は完了まで反復を進めて結果を返す
func (e *Engine) Run() (*big.Int, error) {
	for {
		done, err := e.Step()
		if err != nil {
			return nil, err
		}
		if done {
			return e.Result()
		}
	}
}

// Result は完了後の結果を返す。次のStartまで何度読んでも同じ値を返す。
func (e *Engine) Result() (*big.Int, error) {
	if e.state != Done {
		return nil, ErrNotDone
	}
	return new(big.Int).Set(e.result), nil
}

// State 現在の状態を返す
func (e *Engine) State() State {
	return e.state
}

// reset 作業状態を破棄して初期状態へ戻す
func (e *Engine) reset() {
	e.state = Loading
	e.modulus = nil
	e.result = nil
	e.base = nil
	e.exp = nil
}

// mulMod は x*y mod modulus を除算エンジン経由で求める。
// 通常モードでは 2*width 幅の除算へ積全体を渡すので情報は落ちない。
// 互換モードでは積の下位 width ビットのみを剰余の対象にするため、
// 積が width ビットに収まらない場合は上位ビットが黙って失われる。
func (e *Engine) mulMod(x, y *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(x, y)

	divWidth := e.width * 2
	if e.compatTruncate {
		product = numeric.Truncate(product, e.width)
		divWidth = e.width
	}

	_, r, err := divmod.Divide(product, e.modulus, divWidth)
	if err != nil {
		return nil, errors.Errorf("failed to reduce product: %w", err)
	}
	return r, nil
}

// ModPow は base^exponent mod modulus を完了まで一括計算する
func ModPow(base, exponent, modulus *big.Int, width int) (*big.Int, error) {
	engine := NewEngine(width, false)
	if err := engine.Start(base, exponent, modulus); err != nil {
		return nil, err
	}
	return engine.Run()
}
