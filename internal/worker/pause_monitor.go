package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PauseScanner finds requests paused past the threshold and reports how many
// it flagged.
type PauseScanner interface {
	ScanLongPauses(ctx context.Context) (int, error)
}

// PauseMonitor runs the long pause scan on a cron schedule.
type PauseMonitor struct {
	cron    *cron.Cron
	scanner PauseScanner
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewPauseMonitor schedules scanner on spec, a six-field cron expression with
// seconds, evaluated in loc.
func NewPauseMonitor(spec string, loc *time.Location, scanner PauseScanner, logger *zap.Logger) (*PauseMonitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	m := &PauseMonitor{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		scanner: scanner,
		logger:  logger,
		timeout: time.Minute,
	}
	if _, err := m.cron.AddFunc(spec, m.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid pause scan schedule %q: %w", spec, err)
	}
	return m, nil
}

// Start begins the schedule. Starting twice is an error.
func (m *PauseMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("pause monitor already running")
	}
	m.running = true
	m.cron.Start()
	m.logger.Info("pause monitor started", zap.Time("next_run", m.next()))
	return nil
}

// Stop halts the schedule and waits for a running scan.
func (m *PauseMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("pause monitor stopped")
}

// RunOnce performs one scan.
func (m *PauseMonitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	started := time.Now()
	flagged, err := m.scanner.ScanLongPauses(ctx)
	if err != nil {
		m.logger.Error("pause scan failed", zap.Error(err))
		return
	}
	m.logger.Debug("pause scan done", zap.Int("flagged", flagged), zap.Duration("took", time.Since(started)))
}

func (m *PauseMonitor) next() time.Time {
	entries := m.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
