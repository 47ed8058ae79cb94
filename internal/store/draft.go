// Package store holds the Redis-backed shared state of the console: the
// order draft guard that keeps replicas and reloads from creating a
// second draft for the same booking flow.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-box-office/internal/errs"
)

const (
	draftProcessing = "processing"
	draftCompleted  = "completed"
)

type draftRecord struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
}

// releaseScript deletes the key only while it still holds a processing
// record, so a Release never drops a committed draft.
var releaseScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v and string.find(v, '"status":"processing"', 1, true) then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDraftStore implements booking.DraftStore with SETNX records.  A
// processing record expires after pendingTTL so a crashed creator does
// not block the flow forever; committed records live for ttl.
type RedisDraftStore struct {
	rdb        redis.Cmdable
	prefix     string
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewRedisDraftStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if prefix == "" {
		prefix = "cbo"
	}
	return &RedisDraftStore{rdb: rdb, prefix: prefix, ttl: ttl, pendingTTL: 30 * time.Second}
}

func (s *RedisDraftStore) key(k string) string { return s.prefix + ":" + k }

func (s *RedisDraftStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	rec, _ := json.Marshal(draftRecord{Status: draftProcessing})
	ok, err := s.rdb.SetNX(ctx, s.key(key), string(rec), s.pendingTTL).Result()
	if err != nil {
		return "", false, errs.Wrap(err, "reserve draft")
	}
	if ok {
		return "", true, nil
	}

	raw, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		// expired between SETNX and GET; the caller may retry
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(err, "read draft")
	}
	var existing draftRecord
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return "", false, errs.Wrap(err, "decode draft record")
	}
	if existing.Status == draftCompleted {
		return existing.OrderID, false, nil
	}
	return "", false, nil
}

func (s *RedisDraftStore) Commit(ctx context.Context, key, orderID string) error {
	rec, _ := json.Marshal(draftRecord{Status: draftCompleted, OrderID: orderID})
	return errs.Wrap(s.rdb.Set(ctx, s.key(key), string(rec), s.ttl).Err(), "commit draft")
}

func (s *RedisDraftStore) Release(ctx context.Context, key string) error {
	err := releaseScript.Run(ctx, s.rdb, []string{s.key(key)}).Err()
	if err == redis.Nil {
		return nil
	}
	return errs.Wrap(err, "release draft")
}
