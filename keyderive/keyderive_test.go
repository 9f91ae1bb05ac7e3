package keyderive

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name    string
		totient int64
		e       int64
		d       int64
	}{
		{
			// p=53, q=59 の古典例
			name:    "古典例のトーシェント3016",
			totient: 3016,
			e:       3,
			d:       2011,
		},
		{
			// p=61, q=53。3と5は棄却されて7が採用される
			name:    "候補の棄却を挟むトーシェント3120",
			totient: 3120,
			e:       7,
			d:       1783,
		},
		{
			// 3,5は約数なので7まで進む
			name:    "小さいトーシェント15",
			totient: 15,
			e:       7,
			d:       13,
		},
		{
			name:    "トーシェント2",
			totient: 2,
			e:       3,
			d:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, d, err := Derive(big.NewInt(tt.totient), 64, 0)

			assert.NoError(t, err)
			assert.Equal(t, tt.e, e.Int64(), "公開指数が期待値と一致しません")
			assert.Equal(t, tt.d, d.Int64(), "秘密指数が期待値と一致しません")
		})
	}
}

// 返るeは条件を満たす最小の奇数であること、dがeの逆元であることを確認する
func TestDerive_Properties(t *testing.T) {
	totients := []int64{3016, 3120, 20, 100, 9973 * 2, 104729 - 1}

	for _, phi := range totients {
		totient := big.NewInt(phi)

		e, d, err := Derive(totient, 64, 0)
		if err != nil {
			t.Fatalf("Derive(%d) error: %v", phi, err)
		}

		// eより小さい奇数候補は全てgcd != 1 であること
		for c := int64(3); c < e.Int64(); c += 2 {
			g := new(big.Int).GCD(nil, nil, big.NewInt(c), totient)
			if g.Cmp(big.NewInt(1)) == 0 {
				t.Fatalf("e=%s is not minimal for totient=%d: candidate %d is coprime", e, phi, c)
			}
		}

		// (e*d) mod totient == 1
		prod := new(big.Int).Mul(e, d)
		prod.Mod(prod, totient)
		if prod.Cmp(big.NewInt(1)) != 0 {
			t.Fatalf("e*d mod totient != 1: totient=%d e=%s d=%s", phi, e, d)
		}

		// 0 <= d < totient
		if d.Sign() < 0 || d.Cmp(totient) >= 0 {
			t.Fatalf("d out of range: totient=%d d=%s", phi, d)
		}
	}
}

func TestDerive_Error(t *testing.T) {
	tests := []struct {
		name     string
		totient  *big.Int
		limit    int
		expected error
	}{
		{
			name:     "トーシェントが1",
			totient:  big.NewInt(1),
			expected: ErrInvalidTotient,
		},
		{
			name:     "トーシェントが0",
			totient:  big.NewInt(0),
			expected: ErrInvalidTotient,
		},
		{
			name:     "トーシェントがnil",
			totient:  nil,
			expected: ErrInvalidTotient,
		},
		{
			// 15に対して3,5は棄却されるので、上限2では7に届かない
			name:     "候補数の上限超過",
			totient:  big.NewInt(15),
			limit:    2,
			expected: ErrCandidateExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Derive(tt.totient, 64, tt.limit)

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

// 上限が足りていれば棄却を挟んでも導出できることを確認する
func TestDerive_LimitEnough(t *testing.T) {
	e, d, err := Derive(big.NewInt(15), 64, 3)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), e.Int64())
	assert.Equal(t, int64(13), d.Int64())
}

// 状態機械を1段ずつ進めても同じ結果になることを確認する
func TestEngine_Step(t *testing.T) {
	engine := NewEngine(64, 0)

	_, err := engine.Step()
	assert.ErrorIs(t, err, ErrNotStarted)

	err = engine.Start(big.NewInt(3016))
	assert.NoError(t, err)
	assert.Equal(t, CandidateInit, engine.State())

	_, _, err = engine.Result()
	assert.ErrorIs(t, err, ErrNotDone)

	for {
		done, err := engine.Step()
		assert.NoError(t, err)
		if done {
			break
		}
	}

	assert.Equal(t, Done, engine.State())

	// 完了後は何度読んでも同じ値
	for i := 0; i < 3; i++ {
		e, d, err := engine.Result()
		assert.NoError(t, err)
		assert.Equal(t, int64(3), e.Int64())
		assert.Equal(t, int64(2011), d.Int64())
	}

	// 完了後のStepは何も進めない
	done, err := engine.Step()
	assert.NoError(t, err)
	assert.True(t, done)
}

// 実行中にStartし直すと前の探索が破棄されることを確認する
func TestEngine_Restart(t *testing.T) {
	engine := NewEngine(64, 0)

	err := engine.Start(big.NewInt(3120))
	assert.NoError(t, err)

	_, err = engine.Step()
	assert.NoError(t, err)

	err = engine.Start(big.NewInt(3016))
	assert.NoError(t, err)

	e, d, err := engine.Run()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), e.Int64())
	assert.Equal(t, int64(2011), d.Int64())
}
