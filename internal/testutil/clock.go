package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// ManualClock is a game.Clock driven by Advance instead of wall time.
//
// Tasks due at the same instant run in the order they were scheduled.
// Callbacks run without the clock's lock held, so they may schedule more tasks.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int64
	tasks []*manualTask
}

type manualTask struct {
	clock *ManualClock
	at    time.Duration
	seq   int64
	f     func()
	done  bool
}

// NewManualClock creates a clock at offset zero.
func NewManualClock() *ManualClock { return &ManualClock{} }

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) game.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTask{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

// Stop cancels the task. It reports whether the task was still pending.
func (t *manualTask) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward by d, running every task that becomes due,
// including tasks scheduled by callbacks along the way.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.nextDueLocked(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		t.done = true
		c.now = t.at
		c.mu.Unlock()
		t.f()
	}
}

// Pending returns how many tasks have not yet run or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Now returns the clock's offset from its creation.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) nextDueLocked(target time.Duration) *manualTask {
	live := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	c.tasks = live
	sort.SliceStable(c.tasks, func(i, j int) bool {
		if c.tasks[i].at != c.tasks[j].at {
			return c.tasks[i].at < c.tasks[j].at
		}
		return c.tasks[i].seq < c.tasks[j].seq
	})
	if len(c.tasks) == 0 || c.tasks[0].at > target {
		return nil
	}
	return c.tasks[0]
}
