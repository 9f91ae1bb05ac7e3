package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"rsacore-pkg/rsa"
)

// RedisKeyStore はRedisによる鍵保存
type RedisKeyStore struct {
	client *redis.Client
	expire time.Duration
}

// NewRedisKeyStore コンストラクタ。接続確認はバックオフ付きでリトライする
func NewRedisKeyStore(ctx context.Context, addr string, expire time.Duration) (*RedisKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  10 * time.Second, // Redisサーバーへの新規接続時のタイムアウト
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
	})

	// 起動直後はRedis側の準備ができていないことがあるのでPingをリトライ
	exponentialBackOff := backoff.NewExponentialBackOff()
	exponentialBackOff.InitialInterval = 500 * time.Millisecond
	exponentialBackOff.Multiplier = 2

	op := func() (any, error) {
		return nil, client.Ping(ctx).Err()
	}
	options := []backoff.RetryOption{backoff.WithBackOff(exponentialBackOff), backoff.WithMaxTries(3)}

	if _, err := backoff.Retry(ctx, op, options...); err != nil {
		return nil, errors.Errorf("failed to connect to redis: %w", err)
	}

	logger.Infof("connected to redis: %s", addr)
	return &RedisKeyStore{client: client, expire: expire}, nil
}

// Close クライアントのクローズ処理
func (r *RedisKeyStore) Close() error {
	logger.Infof("close redis key store")
	return r.client.Close()
}

// Save は鍵ペアをjson形式の文字列として保存し、割り当てたIDを返す
func (r *RedisKeyStore) Save(ctx context.Context, keys *rsa.KeyPair) (string, error) {
	rec := NewRecord(keys)

	b, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Errorf("failed to json marshal: %w", err)
	}

	if err := r.client.Set(ctx, keyOf(rec.Id), b, r.expire).Err(); err != nil {
		return "", errors.Errorf("failed to set key record: %w", err)
	}
	return rec.Id, nil
}

// Load は保存済みの鍵ペアを復元する
func (r *RedisKeyStore) Load(ctx context.Context, id string) (*rsa.KeyPair, error) {
	result, err := r.client.Get(ctx, keyOf(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Errorf("failed to get key record: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal([]byte(result), rec); err != nil {
		return nil, errors.Errorf("failed to json unmarshal: %w", err)
	}
	return rec.KeyPair()
}

func keyOf(id string) string {
	return fmt.Sprintf("rsakey:%s", id)
}
