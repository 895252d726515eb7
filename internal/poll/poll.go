// Package poll schedules the console's periodic refreshes. Each task owns at
// most one armed timer; ticks carry the generation they were armed with so a
// cancelled or superseded timer is recognised when it fires and dropped.
package poll

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/syntwin/console/internal/wallclock"
)

// Task identifies a periodic refresh.
type Task int

const (
	Health Task = iota
	Suggestions
	State
	Charts
	numTasks
)

func (t Task) String() string {
	switch t {
	case Health:
		return "health"
	case Suggestions:
		return "suggestions"
	case State:
		return "state"
	case Charts:
		return "charts"
	default:
		return "unknown"
	}
}

// Periods are the refresh cadences. ChartsIdle applies while no session is
// active.
type Periods struct {
	Health       time.Duration
	Suggestions  time.Duration
	State        time.Duration
	ChartsActive time.Duration
	ChartsIdle   time.Duration
	FinalDelay   time.Duration
}

// DefaultPeriods returns the stock cadences.
func DefaultPeriods() Periods {
	return Periods{
		Health:       5 * time.Second,
		Suggestions:  15 * time.Second,
		State:        20 * time.Second,
		ChartsActive: 10 * time.Second,
		ChartsIdle:   30 * time.Second,
		FinalDelay:   500 * time.Millisecond,
	}
}

func (p Periods) withDefaults() Periods {
	d := DefaultPeriods()
	if p.Health <= 0 {
		p.Health = d.Health
	}
	if p.Suggestions <= 0 {
		p.Suggestions = d.Suggestions
	}
	if p.State <= 0 {
		p.State = d.State
	}
	if p.ChartsActive <= 0 {
		p.ChartsActive = d.ChartsActive
	}
	if p.ChartsIdle <= 0 {
		p.ChartsIdle = d.ChartsIdle
	}
	if p.FinalDelay <= 0 {
		p.FinalDelay = d.FinalDelay
	}
	return p
}

// TickMsg fires when a task's period elapses.
type TickMsg struct {
	Task Task
	Gen  uint64
}

// FinalMsg fires once after a session stops, for the post-stop chart refresh.
type FinalMsg struct{ Gen uint64 }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTicker replaces the timer used for every task.
func WithTicker(t wallclock.Ticker) Option {
	return func(o *Orchestrator) { o.tick = t }
}

// WithPeriods overrides the cadences. Zero fields keep their default.
func WithPeriods(p Periods) Option {
	return func(o *Orchestrator) { o.periods = p.withDefaults() }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

type timer struct {
	gen    uint64
	armed  bool
	period time.Duration
}

// Orchestrator owns the refresh timers. It is not safe for concurrent use;
// call it from the update loop only.
type Orchestrator struct {
	tick    wallclock.Ticker
	periods Periods
	log     *slog.Logger

	timers [numTasks]timer

	finalGen     uint64
	finalPending bool
}

// New creates an Orchestrator with nothing armed.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tick:    wallclock.Tick,
		periods: DefaultPeriods(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Periods returns the cadences in use.
func (o *Orchestrator) Periods() Periods { return o.periods }

// Armed reports whether task has a live timer and its period.
func (o *Orchestrator) Armed(task Task) (bool, time.Duration) {
	t := o.timers[task]
	return t.armed, t.period
}

// FinalPending reports whether the post-stop refresh is scheduled.
func (o *Orchestrator) FinalPending() bool { return o.finalPending }

// StartAll arms the timers for the given activity. Calling it twice with the
// same argument arms nothing new. Health always polls; suggestions and state
// only while active; charts poll fast while active and slowly otherwise.
func (o *Orchestrator) StartAll(active bool) tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, o.arm(Health, o.periods.Health))
	if active {
		o.cancelFinal()
		cmds = append(cmds,
			o.arm(Suggestions, o.periods.Suggestions),
			o.arm(State, o.periods.State),
			o.arm(Charts, o.periods.ChartsActive),
		)
	} else {
		o.cancel(Suggestions)
		o.cancel(State)
		if !o.finalPending {
			cmds = append(cmds, o.arm(Charts, o.periods.ChartsIdle))
		}
	}
	return tea.Batch(cmds...)
}

// StopAll cancels every timer, including a pending final refresh.
func (o *Orchestrator) StopAll() {
	for task := range o.timers {
		o.cancel(Task(task))
	}
	o.cancelFinal()
}

// ScheduleFinal cancels the chart timer and schedules one chart refresh
// after the final delay. The idle chart cadence resumes after it runs.
func (o *Orchestrator) ScheduleFinal() tea.Cmd {
	o.cancel(Charts)
	o.finalGen++
	o.finalPending = true
	gen := o.finalGen
	return o.tick(o.periods.FinalDelay, func(time.Time) tea.Msg {
		return FinalMsg{Gen: gen}
	})
}

// Handle consumes a tick. fire reports whether the task's refresh should
// run; next re-arms the task and is nil for stale ticks.
func (o *Orchestrator) Handle(msg TickMsg) (fire bool, next tea.Cmd) {
	if msg.Task < 0 || msg.Task >= numTasks {
		return false, nil
	}
	t := &o.timers[msg.Task]
	if !t.armed || t.gen != msg.Gen {
		o.log.Debug("poll: stale tick", "task", msg.Task, "gen", msg.Gen)
		return false, nil
	}
	return true, o.schedule(msg.Task)
}

// HandleFinal consumes the post-stop timer. fire reports whether the chart
// refresh should run; next arms the idle chart cadence.
func (o *Orchestrator) HandleFinal(msg FinalMsg) (fire bool, next tea.Cmd) {
	if !o.finalPending || msg.Gen != o.finalGen {
		return false, nil
	}
	o.finalPending = false
	return true, o.arm(Charts, o.periods.ChartsIdle)
}

// arm starts task at period unless it is already armed at that period.
func (o *Orchestrator) arm(task Task, period time.Duration) tea.Cmd {
	t := &o.timers[task]
	if t.armed && t.period == period {
		return nil
	}
	t.gen++
	t.armed = true
	t.period = period
	o.log.Debug("poll: armed", "task", task, "period", period)
	return o.schedule(task)
}

func (o *Orchestrator) schedule(task Task) tea.Cmd {
	t := o.timers[task]
	return o.tick(t.period, func(time.Time) tea.Msg {
		return TickMsg{Task: task, Gen: t.gen}
	})
}

func (o *Orchestrator) cancel(task Task) {
	t := &o.timers[task]
	if t.armed {
		t.armed = false
		t.gen++
	}
}

func (o *Orchestrator) cancelFinal() {
	if o.finalPending {
		o.finalPending = false
		o.finalGen++
	}
}
