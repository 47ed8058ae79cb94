package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/logger"
)

type Options struct {
	Heartbeat     time.Duration
	LeaderTimeout time.Duration
	Clock         clock.Clock
	Log           *zap.Logger
}

// Hub runs one elector per joined member.  Members of the same group
// elect a leader among themselves; the leader pings on every heartbeat.
type Hub struct {
	bc     Broadcaster
	pinger Pinger
	opts   Options
	log    *zap.Logger
}

func NewHub(bc Broadcaster, pinger Pinger, opts Options) *Hub {
	if pinger == nil {
		pinger = nopPinger{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 2 * time.Second
	}
	return &Hub{bc: bc, pinger: pinger, opts: opts, log: logger.OrNop(opts.Log).Named("presence")}
}

// Node is one running member.
type Node struct {
	hub    *Hub
	mu     sync.Mutex
	el     *Elector
	unsub  func()
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Join starts an elector for member in group and returns the function
// that stops it.  It satisfies the session registry's presence hook.
func (h *Hub) Join(group, member string) func() {
	return h.JoinNode(group, member).Leave
}

// JoinNode is Join returning the node itself.
func (h *Hub) JoinNode(group, member string) *Node {
	n := &Node{
		hub:    h,
		el:     NewElector(member, group, h.opts.Heartbeat, h.opts.LeaderTimeout),
		stopCh: make(chan struct{}),
	}
	n.unsub = h.bc.Subscribe(group, n.receive)
	n.wg.Add(1)
	go n.loop()
	return n
}

func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.el.State()
}

func (n *Node) Leader() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.el.Leader()
}

func (n *Node) send(msgs []Message) {
	for _, m := range msgs {
		if err := n.hub.bc.Publish(context.Background(), m); err != nil {
			n.hub.log.Debug("presence publish failed", zap.String("kind", string(m.Kind)), zap.Error(err))
		}
	}
}

func (n *Node) receive(m Message) {
	n.mu.Lock()
	before := n.el.State()
	out := n.el.Handle(m, n.hub.opts.Clock.Now())
	after := n.el.State()
	n.mu.Unlock()
	n.logChange(before, after)
	n.send(out)
}

func (n *Node) step() {
	now := n.hub.opts.Clock.Now()
	n.mu.Lock()
	before := n.el.State()
	out := n.el.Tick(now)
	after := n.el.State()
	group, id := n.el.group, n.el.id
	n.mu.Unlock()
	n.logChange(before, after)
	n.send(out)

	if after == Leader {
		if err := n.hub.pinger.Ping(context.Background(), group, id); err != nil {
			n.hub.log.Warn("presence ping failed", zap.String("group", group), zap.Error(err))
		}
	}
}

func (n *Node) logChange(before, after State) {
	if before != after {
		n.hub.log.Debug("presence state changed",
			zap.String("member", n.el.ID()),
			zap.Stringer("from", before),
			zap.Stringer("to", after))
	}
}

func (n *Node) loop() {
	defer n.wg.Done()
	t := time.NewTicker(n.hub.opts.Heartbeat)
	defer t.Stop()
	n.step()
	for {
		select {
		case <-n.stopCh:
			return
		case <-t.C:
			n.step()
		}
	}
}

// Leave stops the node; a leader announces its resignation so a follower
// takes over without waiting for the timeout.
func (n *Node) Leave() {
	n.once.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
		n.mu.Lock()
		out := n.el.Resign(n.hub.opts.Clock.Now())
		n.mu.Unlock()
		n.unsub()
		n.send(out)
	})
}
