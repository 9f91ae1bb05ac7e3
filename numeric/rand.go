package numeric

import (
	"crypto/rand"
	"math/big"

	"github.com/cockroachdb/errors"
)

// RandomBelow は [0, bound) のランダム値を生成します
func RandomBelow(bound *big.Int) (*big.Int, error) {
	if bound == nil || bound.Sign() <= 0 {
		return nil, errors.Errorf("bound must be a positive integer: %v", bound)
	}

	// crypto/randを使用して乱数を生成
	v, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return nil, errors.Errorf("failed to generate random value: %w", err)
	}
	return v, nil
}
