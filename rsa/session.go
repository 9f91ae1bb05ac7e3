package rsa

import (
	"context"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithFields(logrus.Fields{
	"component": "rsa",
})

// batchWorkers 一括変換の並行数
const batchWorkers = 4

// Session は鍵導出と変換を独立に起動できるオーケストレーター。
// 一度導出した鍵で何度でも変換できる。
// 変換は鍵導出の完了ゲート(Ready)を通ってからでないと鍵に触れないので、
// 導出中の値を拾ってしまうことはない。
type Session struct {
	cfg Config

	mu    sync.Mutex
	ready chan struct{}
	keys  *KeyPair
	err   error
	gen   int // StartDeriveの世代。再スタートで古い結果を破棄する
}

// NewSession コンストラクタ
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// StartDerive は鍵導出をバックグラウンドで開始する。
// 実行中の導出があれば、その結果は破棄される(部分結果の引き継ぎはない)
func (s *Session) StartDerive(p, q *big.Int) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.ready != nil {
		select {
		case <-s.ready:
		default:
			// 進行中の導出を破棄する。古いチャネルで待っている側は
			// 起こされてErrKeysNotReadyを受け取る
			close(s.ready)
		}
	}
	s.keys, s.err = nil, nil
	ready := make(chan struct{})
	s.ready = ready
	s.mu.Unlock()

	go func() {
		keys, err := DeriveKeys(p, q, s.cfg)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			// 新しいStartDeriveに追い越された結果は捨てる
			return
		}
		s.keys, s.err = keys, err
		close(ready)

		if err != nil {
			logger.Infof("key derivation failed: %v", err)
		}
	}()
}

// Ready は現在の鍵導出の完了チャネルを返す。
// StartDeriveの前はnil(受信すると永遠にブロックする)
func (s *Session) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Keys は導出済みの鍵ペアを返す。完了前はErrKeysNotReady
func (s *Session) Keys() (*KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready == nil {
		return nil, ErrKeysNotReady
	}
	select {
	case <-s.ready:
	default:
		return nil, ErrKeysNotReady
	}

	if s.err != nil {
		return nil, s.err
	}
	return s.keys, nil
}

// WaitKeys は鍵導出の完了かコンテキストのキャンセルまで待つ
func (s *Session) WaitKeys(ctx context.Context) (*KeyPair, error) {
	ready := s.Ready()
	if ready == nil {
		return nil, ErrKeysNotReady
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ready:
	}
	return s.Keys()
}

// Encrypt は導出済みの公開指数でメッセージを暗号化する
func (s *Session) Encrypt(message *big.Int) (*big.Int, error) {
	return s.transform(message, Encrypt)
}

// Decrypt は導出済みの秘密指数で暗号文を復号する
func (s *Session) Decrypt(message *big.Int) (*big.Int, error) {
	return s.transform(message, Decrypt)
}

func (s *Session) transform(message *big.Int, mode Mode) (*big.Int, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	return keys.Transform(message, mode, s.cfg)
}

// TransformBatch は導出済みの鍵で複数メッセージを並行に変換する。
// 鍵素材は読み取り専用なのでロックなしで共有できる。
// 結果は入力と同じ並び。どれか1つでも失敗すれば全体が失敗する
func (s *Session) TransformBatch(ctx context.Context, messages []*big.Int, mode Mode) ([]*big.Int, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	results := make([]*big.Int, len(messages))
	errCh := make(chan error, len(messages))
	sem := make(chan struct{}, batchWorkers)

	var wg sync.WaitGroup
	for i, m := range messages {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, m *big.Int) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := keys.Transform(m, mode, s.cfg)
			if err != nil {
				errCh <- err
				return
			}
			results[i] = out
		}(i, m)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return results, nil
}
