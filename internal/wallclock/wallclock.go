// Package wallclock indirects the timers the console schedules so tests can
// observe and fire them without waiting.
package wallclock

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Ticker schedules fn after d and delivers its message to the update loop.
// tea.Tick satisfies it.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Tick is the production ticker.
var Tick Ticker = tea.Tick

// Scheduled is a timer recorded by Fake.
type Scheduled struct {
	D  time.Duration
	fn func(time.Time) tea.Msg
}

// Msg produces the message the timer would have delivered.
func (s Scheduled) Msg() tea.Msg {
	return s.fn(time.Now())
}

// Fake records timers instead of running them. Its Tick returns a nil
// command; tests deliver the recorded messages themselves.
type Fake struct {
	mu        sync.Mutex
	scheduled []Scheduled
}

// Tick implements Ticker.
func (f *Fake) Tick(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, Scheduled{D: d, fn: fn})
	return nil
}

// All returns a copy of everything recorded so far.
func (f *Fake) All() []Scheduled {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Scheduled(nil), f.scheduled...)
}

// Len returns the number of recorded timers.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// Last returns the most recently recorded timer.
func (f *Fake) Last() (Scheduled, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scheduled) == 0 {
		return Scheduled{}, false
	}
	return f.scheduled[len(f.scheduled)-1], true
}

// Reset forgets every recorded timer.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = nil
}
