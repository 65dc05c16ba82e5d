package dispatch

import (
	"fmt"
	"strings"
	"sync"
)

// Ordering decides what happens when dispatches to one target overlap.
type Ordering int

const (
	// OrderLatestInvocation keeps the result of the most recently started
	// dispatch; older completions arriving later are discarded as stale.
	OrderLatestInvocation Ordering = iota

	// OrderLastWriter lets every completion write, in completion order.
	OrderLastWriter
)

func (o Ordering) String() string {
	switch o {
	case OrderLatestInvocation:
		return "latest"
	case OrderLastWriter:
		return "last-writer"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering accepts "latest" and "last-writer".
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest", "latest-invocation":
		return OrderLatestInvocation, nil
	case "last-writer", "last-writer-wins", "race":
		return OrderLastWriter, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", s)
	}
}

// targetState tracks the dispatches to one target. Only tokens that were
// not canceled can make an older dispatch stale.
type targetState struct {
	mu      sync.Mutex
	issued  uint64
	pending map[uint64]struct{}
	// settled is the newest token that finished without being canceled.
	settled uint64
}

// newest returns the newest token that is still running or has settled.
func (ts *targetState) newest() uint64 {
	n := ts.settled
	for token := range ts.pending {
		n = max(n, token)
	}
	return n
}

// sequencer hands out per-target tokens and serializes writes per target.
type sequencer struct {
	mu      sync.Mutex
	targets map[string]*targetState
}

func newSequencer() *sequencer {
	return &sequencer{targets: make(map[string]*targetState)}
}

func (s *sequencer) state(target string) *targetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.targets[target]
	if !ok {
		ts = &targetState{pending: make(map[uint64]struct{})}
		s.targets[target] = ts
	}
	return ts
}

func (s *sequencer) next(target string) uint64 {
	ts := s.state(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.issued++
	ts.pending[ts.issued] = struct{}{}
	return ts.issued
}

// retract withdraws a canceled token so it no longer supersedes older
// dispatches to target.
func (s *sequencer) retract(target string, token uint64) {
	ts := s.state(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.pending, token)
}

// write settles token and runs fn unless, under OrderLatestInvocation, a
// newer token for target is still running or has already settled.
func (s *sequencer) write(target string, token uint64, o Ordering, fn func() error) (stale bool, err error) {
	ts := s.state(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.pending, token)
	if o == OrderLatestInvocation && ts.newest() > token {
		return true, nil
	}
	ts.settled = max(ts.settled, token)
	return false, fn()
}
