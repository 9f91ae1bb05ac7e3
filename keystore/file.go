package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"rsacore-pkg/rsa"
)

// FileKeyStore はJSONファイルによる鍵保存。1鍵1ファイル
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore コンストラクタ。dirは作成済みであること
func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{dir: dir}
}

// Save は鍵ペアをjson形式でファイル出力し、割り当てたIDを返す
func (f *FileKeyStore) Save(_ context.Context, keys *rsa.KeyPair) (string, error) {
	rec := NewRecord(keys)

	b, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Errorf("failed to json marshal: %w", err)
	}

	// - 書き込み専用
	// - ファイルが存在しない場合、新規ファイル作成
	// - ファイルが存在する場合、内容を全削除してから書き込み
	if err := os.WriteFile(f.path(rec.Id), b, 0o644); err != nil {
		return "", errors.Errorf("failed to write key file: %w", err)
	}
	return rec.Id, nil
}

// Load はファイルから読み込んだjsonを鍵ペアに復元する
func (f *FileKeyStore) Load(_ context.Context, id string) (*rsa.KeyPair, error) {
	b, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Errorf("failed to read key file: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, errors.Errorf("failed to json unmarshal: %w", err)
	}
	return rec.KeyPair()
}

func (f *FileKeyStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}
