package charts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrOccupied is returned when a chart is mounted on a surface that still
// hosts a live one.
var ErrOccupied = errors.New("surface already hosts a live chart")

// Canvas hosts the drawing surfaces.
type Canvas interface {
	// Mount binds c to the surface for kind. The surface must be empty.
	Mount(kind Kind, c *Chart) error
	// Unmount empties the surface for kind. Unmounting an empty surface is
	// a no-op.
	Unmount(kind Kind) error
}

// MemCanvas keeps the mounted charts in memory for the terminal view.
type MemCanvas struct {
	mu       sync.RWMutex
	surfaces [numKinds]*Chart
}

// NewMemCanvas returns an empty canvas.
func NewMemCanvas() *MemCanvas { return &MemCanvas{} }

func (m *MemCanvas) Mount(kind Kind, c *Chart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surfaces[kind] != nil {
		return fmt.Errorf("mount %s: %w", kind, ErrOccupied)
	}
	m.surfaces[kind] = c
	return nil
}

func (m *MemCanvas) Unmount(kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surfaces[kind] = nil
	return nil
}

// Get returns the chart on the surface for kind, or nil.
func (m *MemCanvas) Get(kind Kind) *Chart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.surfaces[kind]
}

// DirCanvas writes each mounted chart to <dir>/<kind>.png so an external
// image viewer can follow the surfaces.
type DirCanvas struct {
	dir string

	mu      sync.Mutex
	mounted [numKinds]bool
}

// NewDirCanvas creates dir if needed.
func NewDirCanvas(dir string) (*DirCanvas, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart dir: %w", err)
	}
	return &DirCanvas{dir: dir}, nil
}

// Path returns the file backing the surface for kind.
func (d *DirCanvas) Path(kind Kind) string {
	return filepath.Join(d.dir, kind.String()+".png")
}

func (d *DirCanvas) Mount(kind Kind, c *Chart) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mounted[kind] {
		return fmt.Errorf("mount %s: %w", kind, ErrOccupied)
	}
	if err := writeAtomic(d.Path(kind), c.PNG); err != nil {
		return fmt.Errorf("mount %s: %w", kind, err)
	}
	d.mounted[kind] = true
	return nil
}

// FramePath is where WriteFrame puts the latest camera frame.
func (d *DirCanvas) FramePath() string {
	return filepath.Join(d.dir, "frame.jpg")
}

// WriteFrame replaces the camera frame next to the chart images.
func (d *DirCanvas) WriteFrame(jpeg []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := writeAtomic(d.FramePath(), jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Unmount marks the surface empty. The file is left in place until the next
// mount replaces it, so viewers never see a missing image.
func (d *DirCanvas) Unmount(kind Kind) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mounted[kind] = false
	return nil
}

// Tee mounts on every canvas in order. Mounting is all or nothing: when one
// canvas fails, the canvases that already accepted the chart are unmounted
// again and the errors are joined.
func Tee(canvases ...Canvas) Canvas {
	return tee(canvases)
}

type tee []Canvas

func (t tee) Mount(kind Kind, c *Chart) error {
	for i, cv := range t {
		err := cv.Mount(kind, c)
		if err == nil {
			continue
		}
		errs := []error{err}
		for _, done := range t[:i] {
			errs = append(errs, done.Unmount(kind))
		}
		return errors.Join(errs...)
	}
	return nil
}

func (t tee) Unmount(kind Kind) error {
	var errs []error
	for _, cv := range t {
		errs = append(errs, cv.Unmount(kind))
	}
	return errors.Join(errs...)
}
