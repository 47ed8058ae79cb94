package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-box-office/internal/errs"
)

// Pinger records that an operator is online.  Only the elected leader of
// a group calls it.
type Pinger interface {
	Ping(ctx context.Context, group, member string) error
}

type nopPinger struct{}

func (nopPinger) Ping(context.Context, string, string) error { return nil }

// RedisPinger stores "<prefix>:online:<group>" = member with a TTL.  The key
// disappears when no leader refreshes it.
type RedisPinger struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisPinger(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisPinger {
	if prefix == "" {
		prefix = "presence"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisPinger{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (p *RedisPinger) Key(group string) string { return p.prefix + ":online:" + group }

func (p *RedisPinger) Ping(ctx context.Context, group, member string) error {
	return errs.Wrap(p.rdb.SetEx(ctx, p.Key(group), member, p.ttl).Err(), "presence ping")
}

// Online reports the member that last pinged for group, if the ping is
// still live.
func (p *RedisPinger) Online(ctx context.Context, group string) (string, bool, error) {
	v, err := p.rdb.Get(ctx, p.Key(group)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(err, "presence lookup")
	}
	return v, true, nil
}
