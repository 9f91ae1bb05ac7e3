package keyderive

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"rsacore-pkg/divmod"
	"rsacore-pkg/numeric"
)

// State は鍵導出エンジンの状態を表す
type State int8

const (
	// Idle 入力の取り込み待ち
	Idle State = iota
	// CandidateInit 現在の候補で拡張ユークリッドを初期化する
	CandidateInit
	// EuclidStep ユークリッドの除算を1段進める
	EuclidStep
	// GcdCheck 最大公約数を検査して候補の採否を決める
	GcdCheck
	// Done 導出完了。次のStartまで結果を保持する
	Done
)

// ErrInvalidTotient トーシェントが1以下で鍵導出できない場合のエラー
var ErrInvalidTotient = errors.New("totient must be greater than 1")

// ErrCandidateExhausted 候補数の上限まで公開指数が見つからなかった場合のエラー
var ErrCandidateExhausted = errors.New("public exponent candidates exhausted")

// ErrNotStarted Startの前にStepが呼ばれた場合のエラー
var ErrNotStarted = errors.New("keyderive engine is not started")

// ErrNotDone 導出完了前に結果が読まれた場合のエラー
var ErrNotDone = errors.New("keyderive result is not ready")

var logger = logrus.WithFields(logrus.Fields{
	"component": "keyderive",
})

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Engine は拡張ユークリッドの反復探索で公開指数eとその逆元dを求める状態機械。
// 候補は3から始まり、棄却されるたびに+2される。
// Bezout係数は候補側のものだけを追跡する(必要なのはeの逆元dのみ)。
// 係数は一時的に負になるため big.Int の符号付き演算で保持し、
// 固定幅レジスタの折り返しによるあふれを避けている。
type Engine struct {
	width int // トーシェントのビット幅(鍵幅 2W)
	limit int // 検査する候補数の上限。0は無制限

	state     State
	totient   *big.Int
	candidate *big.Int
	tried     int

	// 拡張ユークリッドの作業状態
	a, b  *big.Int
	tPrev *big.Int
	tCurr *big.Int

	e, d *big.Int
}

// NewEngine コンストラクタ
func NewEngine(width, limit int) *Engine {
	return &Engine{width: width, limit: limit, state: Idle}
}

// Start はトーシェントを取り込み、候補探索を初期化する。
// 実行中のエンジンに対して呼ばれた場合、進行中の探索は破棄される。
func (kd *Engine) Start(totient *big.Int) error {
	kd.reset()

	if totient == nil || totient.Cmp(one) <= 0 {
		return ErrInvalidTotient
	}
	if !numeric.Fits(totient, kd.width) {
		return divmod.ErrOperandWidth
	}

	kd.totient = new(big.Int).Set(totient)
	kd.candidate = big.NewInt(3)
	kd.tried = 0
	kd.state = CandidateInit
	return nil
}

// Step は状態機械を1段進める。完了時にtrueを返す。
// 途中でエラーが起きた場合、作業状態は破棄され初期状態に戻る。
func (kd *Engine) Step() (bool, error) {
	switch kd.state {
	case Done:
		return true, nil

	case Idle:
		return false, ErrNotStarted

	case CandidateInit:
		// (a, b) := (totient, candidate)、係数は (0, 1) から
		kd.a = new(big.Int).Set(kd.totient)
		kd.b = new(big.Int).Set(kd.candidate)
		kd.tPrev = big.NewInt(0)
		kd.tCurr = big.NewInt(1)
		kd.state = EuclidStep

	case EuclidStep:
		if kd.b.Sign() == 0 {
			kd.state = GcdCheck
			break
		}

		q, r, err := divmod.Divide(kd.a, kd.b, kd.width)
		if err != nil {
			kd.reset()
			return false, errors.Errorf("failed to run euclid step: %w", err)
		}

		// (a, b) := (b, r)、(tPrev, tCurr) := (tCurr, tPrev - q*tCurr)
		next := new(big.Int).Mul(q, kd.tCurr)
		next.Sub(kd.tPrev, next)

		kd.a, kd.b = kd.b, r
		kd.tPrev, kd.tCurr = kd.tCurr, next

	case GcdCheck:
		// b == 0 に到達したので a が gcd(totient, candidate)
		if kd.a.Cmp(one) == 0 {
			kd.e = new(big.Int).Set(kd.candidate)

			// 負の係数はトーシェントを1回足して [0, totient) へ正規化する
			d := new(big.Int).Set(kd.tPrev)
			if d.Sign() < 0 {
				d.Add(d, kd.totient)
			}
			kd.d = d

			logger.Infof("key derivation finished: e=%s candidates_tried=%d", kd.e.String(), kd.tried+1)
			kd.state = Done
			break
		}

		kd.tried++
		if kd.limit > 0 && kd.tried >= kd.limit {
			kd.reset()
			return false, ErrCandidateExhausted
		}
		kd.candidate.Add(kd.candidate, two)
		kd.state = CandidateInit
	}

	return kd.state == Done, nil
}

// Run は完了まで探索を進めて結果を返す
func (kd *Engine) Run() (*big.Int, *big.Int, error) {
	for {
		done, err := kd.Step()
		if err != nil {
			return nil, nil, err
		}
		if done {
			return kd.Result()
		}
	}
}

// Result は導出済みの (e, d) を返す。次のStartまで何度読んでも同じ値を返す。
func (kd *Engine) Result() (*big.Int, *big.Int, error) {
	if kd.state != Done {
		return nil, nil, ErrNotDone
	}
	return new(big.Int).Set(kd.e), new(big.Int).Set(kd.d), nil
}

// State 現在の状態を返す
func (kd *Engine) State() State {
	return kd.state
}

// reset 作業状態を破棄して初期状態へ戻す
func (kd *Engine) reset() {
	kd.state = Idle
	kd.totient = nil
	kd.candidate = nil
	kd.tried = 0
	kd.a, kd.b = nil, nil
	kd.tPrev, kd.tCurr = nil, nil
	kd.e, kd.d = nil, nil
}

// Derive はトーシェントから (e, d) を完了まで一括導出する
func Derive(totient *big.Int, width, limit int) (*big.Int, *big.Int, error) {
	engine := NewEngine(width, limit)
	if err := engine.Start(totient); err != nil {
		return nil, nil, err
	}
	return engine.Run()
}
