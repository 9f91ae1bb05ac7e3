package keystore

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"rsacore-pkg/rsa"
)

const (
	insertKeySQL = "INSERT INTO rsa_keys (id, width, n, e, d) VALUES (?, ?, ?, ?, ?)"
	selectKeySQL = "SELECT id, width, n, e, d FROM rsa_keys WHERE id = ?"
)

// MysqlKeyStore はMySQLによる鍵保存
type MysqlKeyStore struct {
	db *sqlx.DB
}

// NewMysqlKeyStore コンストラクタ
func NewMysqlKeyStore(dsn string) (*MysqlKeyStore, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Errorf("failed to open mysql: %w", err)
	}

	// プール設定は任意（推奨）
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &MysqlKeyStore{db: db}, nil
}

// NewMysqlKeyStoreWithDB は既存のDBハンドルから作る(テスト用)
func NewMysqlKeyStoreWithDB(db *sqlx.DB) *MysqlKeyStore {
	return &MysqlKeyStore{db: db}
}

// Save は鍵ペアを1行としてINSERTし、割り当てたIDを返す
func (s *MysqlKeyStore) Save(ctx context.Context, keys *rsa.KeyPair) (string, error) {
	rec := NewRecord(keys)

	if _, err := s.db.ExecContext(ctx, insertKeySQL, rec.Id, rec.Width, rec.N, rec.E, rec.D); err != nil {
		return "", errors.Errorf("failed to insert key record: %w", err)
	}
	return rec.Id, nil
}

// Load は保存済みの鍵ペアを復元する
func (s *MysqlKeyStore) Load(ctx context.Context, id string) (*rsa.KeyPair, error) {
	rec := &Record{}
	if err := s.db.GetContext(ctx, rec, selectKeySQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Errorf("failed to select key record: %w", err)
	}
	return rec.KeyPair()
}
