package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubScanner struct {
	calls   int
	flagged int
	err     error
}

func (s *stubScanner) ScanLongPauses(context.Context) (int, error) {
	s.calls++
	return s.flagged, s.err
}

func TestNewPauseMonitorRejectsBadSchedule(t *testing.T) {
	_, err := NewPauseMonitor("every day", time.UTC, &stubScanner{}, nil)
	assert.Error(t, err)
}

func TestPauseMonitorRunOnce(t *testing.T) {
	scanner := &stubScanner{flagged: 2}
	m, err := NewPauseMonitor("0 0 7 * * *", time.UTC, scanner, nil)
	require.NoError(t, err)

	m.RunOnce()
	assert.Equal(t, 1, scanner.calls)
}

func TestPauseMonitorLogsScanFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	scanner := &stubScanner{err: errors.New("db down")}
	m, err := NewPauseMonitor("0 0 7 * * *", time.UTC, scanner, zap.New(core))
	require.NoError(t, err)

	m.RunOnce()
	assert.Equal(t, 1, logs.FilterMessage("pause scan failed").Len())
}

func TestPauseMonitorStartStop(t *testing.T) {
	m, err := NewPauseMonitor("0 0 7 * * *", time.UTC, &stubScanner{}, nil)
	require.NoError(t, err)

	require.NoError(t, m.Start())
	assert.Error(t, m.Start())
	assert.False(t, m.next().IsZero())
	m.Stop()
	m.Stop()
}
