package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 作成中を表す値（注文IDが決まる前）
const pending = "pending"

// Store は Idempotency-Key → 注文ID を Redis に保存する
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(key string) string {
	return fmt.Sprintf("idem:order:%s", key)
}

// Reserve はSETNXでキーを確保する。
// 確保できなければ既存の値を返す（作成中なら orderID=0）。
func (s *Store) Reserve(ctx context.Context, key string) (int64, bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.Key(key), pending, s.ttl).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	v, err := s.rdb.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		//確保とGETの間に期限切れ。作成中として扱う
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return parseOrderID(v)
}

// 確保済みのキーに注文IDを書く
func (s *Store) Remember(ctx context.Context, key string, orderID int64) error {
	return s.rdb.Set(ctx, s.Key(key), strconv.FormatInt(orderID, 10), s.ttl).Err()
}

// 作成に失敗したキーを手放す（作成中のものだけ消す）
func (s *Store) Release(ctx context.Context, key string) error {
	v, err := s.rdb.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if v != pending {
		return nil
	}
	return s.rdb.Del(ctx, s.Key(key)).Err()
}

func parseOrderID(v string) (int64, bool, error) {
	if v == pending {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency value %q: %w", v, err)
	}
	return id, false, nil
}
