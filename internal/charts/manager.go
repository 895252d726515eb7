package charts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/syntwin/console/internal/client"
)

// ErrStale is returned by Refresh when a newer refresh has already been
// applied.
var ErrStale = errors.New("chart refresh superseded")

// Surface is the outcome of one surface in a refresh.
type Surface struct {
	Kind        Kind
	Placeholder bool
	Err         error
}

// Result is the outcome of a refresh.
type Result struct {
	Ticket   uint64
	Surfaces []Surface
}

// Err joins the per-surface errors.
func (r Result) Err() error {
	var errs []error
	for _, s := range r.Surfaces {
		errs = append(errs, s.Err)
	}
	return errors.Join(errs...)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSize sets the rendered image size in pixels.
func WithSize(width, height int) Option {
	return func(m *Manager) {
		if width > 0 && height > 0 {
			m.width, m.height = width, height
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager owns the live chart on each surface. Refresh may be called from
// any goroutine; calls are serialized. Live is safe to call while a refresh
// is rendering: the surface table has its own lock, held only while a
// surface is swapped.
type Manager struct {
	canvas Canvas
	width  int
	height int
	log    *slog.Logger

	issued atomic.Uint64

	mu      sync.Mutex // serializes Refresh
	applied uint64

	liveMu sync.RWMutex
	live   [numKinds]*Chart
}

// NewManager creates a Manager drawing on canvas.
func NewManager(canvas Canvas, opts ...Option) *Manager {
	m := &Manager{
		canvas: canvas,
		width:  defaultWidth,
		height: defaultHeight,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NextTicket issues the ticket for a refresh about to be dispatched. Tickets
// increase monotonically; Refresh drops a ticket older than the last one
// applied.
func (m *Manager) NextTicket() uint64 {
	return m.issued.Add(1)
}

// Live returns the chart currently bound to kind, or nil. The returned
// chart's data fields are never modified after mounting.
func (m *Manager) Live(kind Kind) *Chart {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	return m.live[kind]
}

// LiveAll returns the chart bound to every surface, in Kinds order.
func (m *Manager) LiveAll() []*Chart {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	out := make([]*Chart, numKinds)
	copy(out, m.live[:])
	return out
}

// Refresh rebuilds every surface from snap. For each surface the previous
// chart is unmounted and disposed before the replacement is built, then the
// replacement is mounted. A failure on one surface is recorded in the result
// and does not stop the others; a surface whose mount failed is left empty
// on the canvas so the next refresh can mount again.
func (m *Manager) Refresh(ctx context.Context, ticket uint64, snap *client.AnalyticsSnapshot) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := Result{Ticket: ticket}
	if ticket < m.applied {
		return res, ErrStale
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	m.applied = ticket

	for _, kind := range Kinds() {
		s := Surface{Kind: kind}
		if err := m.dispose(kind); err != nil {
			s.Err = err
			res.Surfaces = append(res.Surfaces, s)
			continue
		}
		c := Build(kind, snap)
		s.Placeholder = c.Placeholder

		png, err := render(c, m.width, m.height)
		c.PNG = png
		if err != nil {
			m.log.Warn("charts: render failed, mounting blank", "surface", kind, "err", err)
			s.Err = err
		}
		if err := m.mount(kind, c); err != nil {
			m.log.Warn("charts: mount failed", "surface", kind, "err", err)
			s.Err = errors.Join(s.Err, err)
		}
		res.Surfaces = append(res.Surfaces, s)
	}
	m.log.Debug("charts: refreshed", "ticket", ticket, "err", res.Err())
	return res, nil
}

func (m *Manager) mount(kind Kind, c *Chart) error {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	err := m.canvas.Mount(kind, c)
	if err == nil {
		m.live[kind] = c
		return nil
	}
	if uerr := m.canvas.Unmount(kind); uerr != nil {
		err = errors.Join(err, fmt.Errorf("rollback %s: %w", kind, uerr))
	}
	c.Dispose()
	return err
}

func (m *Manager) dispose(kind Kind) error {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	old := m.live[kind]
	if old == nil {
		return nil
	}
	if err := m.canvas.Unmount(kind); err != nil {
		return fmt.Errorf("dispose %s: %w", kind, err)
	}
	old.Dispose()
	m.live[kind] = nil
	return nil
}
