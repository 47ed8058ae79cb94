package presence

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
)

// Broadcaster delivers messages to every subscriber of a group, the
// sender included.  Handlers run on the broadcaster's goroutines.
type Broadcaster interface {
	Publish(ctx context.Context, m Message) error
	Subscribe(group string, fn func(Message)) (cancel func())
}

type localSub struct {
	ch   chan Message
	done chan struct{}
}

// Local fans messages out in process.  Each subscriber has its own
// buffered queue; messages to a full queue are dropped.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[*localSub]struct{}
}

func NewLocal() *Local {
	return &Local{subs: map[string]map[*localSub]struct{}{}}
}

func (l *Local) Publish(_ context.Context, m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for s := range l.subs[m.Group] {
		select {
		case s.ch <- m:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(group string, fn func(Message)) func() {
	s := &localSub{ch: make(chan Message, 64), done: make(chan struct{})}
	l.mu.Lock()
	if l.subs[group] == nil {
		l.subs[group] = map[*localSub]struct{}{}
	}
	l.subs[group][s] = struct{}{}
	l.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case m := <-s.ch:
				fn(m)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs[group], s)
			if len(l.subs[group]) == 0 {
				delete(l.subs, group)
			}
			l.mu.Unlock()
			close(s.done)
		})
	}
}

// RedisBroadcaster carries messages over Redis pub/sub so sessions on
// different replicas elect one leader per operator.
type RedisBroadcaster struct {
	rdb    *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisBroadcaster(rdb *redis.Client, prefix string, log *zap.Logger) *RedisBroadcaster {
	if prefix == "" {
		prefix = "presence"
	}
	return &RedisBroadcaster{rdb: rdb, prefix: prefix, log: logger.OrNop(log).Named("presence")}
}

func (b *RedisBroadcaster) channel(group string) string { return b.prefix + ":" + group }

func (b *RedisBroadcaster) Publish(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errs.Wrap(err, "encode presence message")
	}
	return errs.Wrap(b.rdb.Publish(ctx, b.channel(m.Group), payload).Err(), "publish presence message")
}

func (b *RedisBroadcaster) Subscribe(group string, fn func(Message)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.rdb.Subscribe(ctx, b.channel(group))
	ch := sub.Channel()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					b.log.Warn("bad presence message", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				fn(m)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
			<-done
		})
	}
}
