package keystore

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"rsacore-pkg/rsa"
)

func deriveTestKeys(t *testing.T) *rsa.KeyPair {
	t.Helper()

	keys, err := rsa.DeriveKeys(big.NewInt(53), big.NewInt(59), rsa.DefaultConfig())
	if err != nil {
		t.Fatalf("derive keys: %v", err)
	}
	return keys
}

func TestFileKeyStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileKeyStore(t.TempDir())
	keys := deriveTestKeys(t)

	id, err := store.Save(ctx, keys)
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	loaded, err := store.Load(ctx, id)
	assert.NoError(t, err)

	assert.Equal(t, 0, loaded.N.Cmp(keys.N))
	assert.Equal(t, 0, loaded.E.Cmp(keys.E))
	assert.Equal(t, 0, loaded.D.Cmp(keys.D))
	assert.Equal(t, keys.Width, loaded.Width)
}

// 保存のたびに別のIDが割り当てられることを確認する
func TestFileKeyStore_UniqueIds(t *testing.T) {
	ctx := context.Background()
	store := NewFileKeyStore(t.TempDir())
	keys := deriveTestKeys(t)

	id1, err := store.Save(ctx, keys)
	assert.NoError(t, err)

	id2, err := store.Save(ctx, keys)
	assert.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestFileKeyStore_NotFound(t *testing.T) {
	store := NewFileKeyStore(t.TempDir())

	_, err := store.Load(context.Background(), "unknown-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecord_Broken(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{
			name: "法が数値でない",
			rec:  Record{N: "abc", E: "3", D: "2011"},
		},
		{
			name: "公開指数が空",
			rec:  Record{N: "3127", E: "", D: "2011"},
		},
		{
			name: "秘密指数が数値でない",
			rec:  Record{N: "3127", E: "3", D: "20x11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.KeyPair()

			assert.ErrorIs(t, err, ErrRecord)
		})
	}
}
