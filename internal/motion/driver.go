package motion

import (
	"sync"
	"time"
)

// Driver schedules repeated frame callbacks for the engine. Production
// uses TickerDriver; tests use ManualDriver so motion is deterministic.
type Driver interface {
	// Start begins invoking frame until Stop is called. Calling Start
	// while running restarts the schedule.
	Start(frame func(now time.Time))
	// Stop cancels the pending frame callbacks. Safe to call when not
	// running.
	Stop()
}

// DefaultFrameInterval approximates a display refresh tick.
const DefaultFrameInterval = 50 * time.Millisecond

// TickerDriver drives frames from a time.Ticker.
type TickerDriver struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewTickerDriver creates a driver firing at the given interval.
// Non-positive intervals fall back to DefaultFrameInterval.
func NewTickerDriver(interval time.Duration) *TickerDriver {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerDriver{interval: interval}
}

func (d *TickerDriver) Start(frame func(now time.Time)) {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
	}
	stop := make(chan struct{})
	d.stop = stop
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				frame(now)
			case <-stop:
				return
			}
		}
	}()
}

func (d *TickerDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

// ManualDriver invokes frames only when Tick is called. It records the
// running flag so tests can assert that pausing cancelled the schedule.
type ManualDriver struct {
	mu      sync.Mutex
	frame   func(now time.Time)
	running bool
	starts  int
}

// NewManualDriver creates a driver whose frames fire only on Tick.
func NewManualDriver() *ManualDriver {
	return &ManualDriver{}
}

func (d *ManualDriver) Start(frame func(now time.Time)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = frame
	d.running = true
	d.starts++
}

func (d *ManualDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
}

// Tick delivers one frame at the given instant. No-op while stopped.
func (d *ManualDriver) Tick(now time.Time) {
	d.mu.Lock()
	frame := d.frame
	running := d.running
	d.mu.Unlock()
	if running && frame != nil {
		frame(now)
	}
}

// Running reports whether a frame schedule is active.
func (d *ManualDriver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Starts returns how many times Start was called.
func (d *ManualDriver) Starts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.starts
}
