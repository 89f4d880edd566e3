package engine

import (
	"sync"

	"classquiz-engine/internal/domain"
)

// LiveSession is the in-process mutable state of one running session: the
// per-student streak counters the scoring path depends on, and the set of
// leaderboard subscribers.
type LiveSession struct {
	sessionID int64

	mu          sync.Mutex
	streaks     map[int64]int
	subscribers map[chan domain.Leaderboard]struct{}
	closed      bool
}

func NewLiveSession(sessionID int64) *LiveSession {
	return &LiveSession{
		sessionID:   sessionID,
		streaks:     make(map[int64]int),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Streak returns the student's current run of consecutive correct answers.
func (l *LiveSession) Streak(studentID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streaks[studentID]
}

func (l *LiveSession) SetStreak(studentID int64, streak int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streaks[studentID] = streak
}

// Subscribe registers a leaderboard update channel. The caller must invoke
// the returned cancel function to avoid leaks.
func (l *LiveSession) Subscribe() (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

// Prime delivers an initial snapshot to a just-subscribed channel. It takes
// the same lock as Broadcast so the two sends cannot interleave between a
// drain and a resend. Unsubscribed or closed channels are skipped.
func (l *LiveSession) Prime(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.subscribers[ch]; !ok {
		return
	}
	select {
	case ch <- lb:
	default:
	}
}

// Broadcast fans a leaderboard snapshot out to all subscribers. Slow
// consumers have their stalest pending update dropped rather than blocking
// the submission path.
func (l *LiveSession) Broadcast(lb domain.Leaderboard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// Close drops all subscribers, closing their channels. Further Subscribe
// calls return an already-closed channel.
func (l *LiveSession) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for ch := range l.subscribers {
		delete(l.subscribers, ch)
		close(ch)
	}
}
