package cron

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

type fakePurger struct {
	calls   map[storage.Namespace]time.Time
	removed int
	failOn  storage.Namespace
}

func (f *fakePurger) Purge(_ context.Context, ns storage.Namespace, before time.Time) (int, error) {
	if f.calls == nil {
		f.calls = map[storage.Namespace]time.Time{}
	}
	f.calls[ns] = before
	if ns == f.failOn {
		return 0, errors.New("disk unavailable")
	}
	return f.removed, nil
}

func TestScheduler_RunNow(t *testing.T) {
	p := &fakePurger{removed: 2}
	s := NewScheduler(p, "@every 1h", 24*time.Hour, slog.New(slog.DiscardHandler))
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	removed := s.RunNow(context.Background())
	assert.Equal(t, 4, removed)
	require.Len(t, p.calls, 2)
	assert.Equal(t, now.Add(-24*time.Hour), p.calls[storage.NamespaceUploads])
	assert.Equal(t, now.Add(-24*time.Hour), p.calls[storage.NamespaceRecords])
}

func TestScheduler_FailureDoesNotStopSweep(t *testing.T) {
	p := &fakePurger{removed: 1, failOn: storage.NamespaceUploads}
	s := NewScheduler(p, "@every 1h", time.Hour, slog.New(slog.DiscardHandler))

	assert.Equal(t, 1, s.RunNow(context.Background()))
	assert.Len(t, p.calls, 2)
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&fakePurger{}, "not a schedule", time.Hour, slog.New(slog.DiscardHandler))
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewScheduler(&fakePurger{}, "@every 1h", time.Hour, logger)

	require.NoError(t, s.Start())
	<-s.Stop().Done()
	assert.Contains(t, buf.String(), "cron scheduler started")
}

func TestScheduler_OnSweep(t *testing.T) {
	s := NewScheduler(&fakePurger{removed: 3}, "@every 1h", time.Hour, slog.New(slog.DiscardHandler))
	var got int
	s.OnSweep(func(n int) { got = n })

	s.RunNow(context.Background())
	assert.Equal(t, 6, got)
}

func TestScheduler_AddJob(t *testing.T) {
	s := NewScheduler(&fakePurger{}, "@every 1h", time.Hour, slog.New(slog.DiscardHandler))

	require.NoError(t, s.AddJob("@every 5m", "prune", func() {}))
	assert.ErrorContains(t, s.AddJob("bogus", "prune", func() {}), "schedule prune")

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 2)
}

func TestScheduler_EmptySpecDisablesSweep(t *testing.T) {
	s := NewScheduler(&fakePurger{}, "", time.Hour, slog.New(slog.DiscardHandler))
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Empty(t, s.cron.Entries())
}
