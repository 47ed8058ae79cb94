// Package presence elects one leader among the open sessions of an
// operator; only the leader sends presence pings.  It is independent of
// seat holds.
package presence

import (
	"time"
)

type State int

const (
	Unelected State = iota
	Leader
	Follower
)

func (s State) String() string {
	switch s {
	case Leader:
		return "leader"
	case Follower:
		return "follower"
	default:
		return "unelected"
	}
}

type Kind string

const (
	KindClaim     Kind = "claim"
	KindHeartbeat Kind = "heartbeat"
	KindResign    Kind = "resign"
)

// Message is what electors of one group broadcast to each other.
type Message struct {
	Kind  Kind      `json:"kind"`
	Group string    `json:"group"`
	From  string    `json:"from"`
	At    time.Time `json:"at"`
}

// Elector is the election state machine of one node.  It does no I/O and
// is not safe for concurrent use: Tick and Handle return the messages the
// caller must broadcast.
//
// An unelected node claims, and becomes leader if no lower id claimed and
// no heartbeat arrived within one heartbeat interval.  Leaders heartbeat
// every interval; followers that miss heartbeats for LeaderTimeout drop
// back to unelected and claim again.  Of two leaders, the higher id steps
// down when it hears the lower one.
type Elector struct {
	id        string
	group     string
	interval  time.Duration
	timeout   time.Duration
	state     State
	leader    string
	lastHeard time.Time
	claimedAt time.Time
	claiming  bool
}

func NewElector(id, group string, heartbeat, leaderTimeout time.Duration) *Elector {
	if heartbeat <= 0 {
		heartbeat = 2 * time.Second
	}
	if leaderTimeout <= heartbeat {
		leaderTimeout = 3 * heartbeat
	}
	return &Elector{id: id, group: group, interval: heartbeat, timeout: leaderTimeout}
}

func (e *Elector) ID() string { return e.id }

func (e *Elector) State() State { return e.state }

// Leader returns the id of the known leader, or "" while unelected.
func (e *Elector) Leader() string { return e.leader }

func (e *Elector) IsLeader() bool { return e.state == Leader }

func (e *Elector) msg(k Kind, now time.Time) Message {
	return Message{Kind: k, Group: e.group, From: e.id, At: now}
}

func (e *Elector) claim(now time.Time) []Message {
	e.state = Unelected
	e.leader = ""
	e.claiming = true
	e.claimedAt = now
	return []Message{e.msg(KindClaim, now)}
}

func (e *Elector) follow(leader string, now time.Time) {
	e.state = Follower
	e.leader = leader
	e.lastHeard = now
	e.claiming = false
}

// Tick advances timers.  Call it every heartbeat interval.
func (e *Elector) Tick(now time.Time) []Message {
	switch e.state {
	case Leader:
		return []Message{e.msg(KindHeartbeat, now)}
	case Follower:
		if now.Sub(e.lastHeard) >= e.timeout {
			return e.claim(now)
		}
		return nil
	default:
		if !e.claiming {
			if !e.lastHeard.IsZero() && now.Sub(e.lastHeard) < e.timeout {
				return nil
			}
			return e.claim(now)
		}
		if now.Sub(e.claimedAt) >= e.interval {
			e.state = Leader
			e.leader = e.id
			e.claiming = false
			return []Message{e.msg(KindHeartbeat, now)}
		}
		return nil
	}
}

// Handle applies a message from another node.
func (e *Elector) Handle(m Message, now time.Time) []Message {
	if m.From == e.id || m.Group != e.group {
		return nil
	}
	switch m.Kind {
	case KindClaim:
		switch e.state {
		case Leader:
			return []Message{e.msg(KindHeartbeat, now)}
		case Unelected:
			if e.claiming && m.From < e.id {
				// yield to the lower id; its heartbeat will confirm it
				e.claiming = false
				e.claimedAt = time.Time{}
				e.lastHeard = now
				return nil
			}
			if e.claiming {
				return []Message{e.msg(KindClaim, now)}
			}
		}
		return nil

	case KindHeartbeat:
		switch e.state {
		case Leader:
			if m.From < e.id {
				e.follow(m.From, now)
			}
			return nil
		case Follower:
			if m.From == e.leader || m.From < e.leader || now.Sub(e.lastHeard) >= e.timeout {
				e.follow(m.From, now)
			}
			return nil
		default:
			e.follow(m.From, now)
			return nil
		}

	case KindResign:
		if e.state == Follower && e.leader == m.From {
			return e.claim(now)
		}
		if e.state == Unelected && !e.claiming {
			return e.claim(now)
		}
	}
	return nil
}

// Resign gives up the role when the node leaves.
func (e *Elector) Resign(now time.Time) []Message {
	wasLeader := e.state == Leader
	e.state = Unelected
	e.leader = ""
	e.claiming = false
	if wasLeader {
		return []Message{e.msg(KindResign, now)}
	}
	return nil
}
