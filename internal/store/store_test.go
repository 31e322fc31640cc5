package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "simulador.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRuns_StartFinishStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartRun(ctx, "run-1", "local:memory", base))
	require.NoError(t, s.StartRun(ctx, "run-2", "local:memory", base.Add(time.Minute)))
	require.NoError(t, s.StartRun(ctx, "run-3", "graph:planilha.xlsx", base.Add(2*time.Minute)))

	require.NoError(t, s.FinishRun(ctx, "run-1", base.Add(1500*time.Millisecond), nil))
	require.NoError(t, s.FinishRun(ctx, "run-2", base.Add(time.Minute+500*time.Millisecond), errors.New("graph: 503")))

	r1, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, r1.Status)
	require.Equal(t, int64(1500), r1.DurationMs)
	require.NotNil(t, r1.CompletedAt)

	r2, err := s.GetRun(ctx, "run-2")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, r2.Status)
	require.Equal(t, "graph: 503", r2.ErrorMessage)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Total)
	require.Equal(t, 1, st.Succeeded)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 1, st.Running)
	require.Equal(t, int64(1000), st.AvgDuration)
	require.NotNil(t, st.LastRunAt)
	require.True(t, st.LastRunAt.Equal(base.Add(2*time.Minute)))

	recent, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "run-3", recent[0].ID)
	require.Nil(t, recent[0].CompletedAt)
}

func TestRuns_FinishUnknown(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	err := s.FinishRun(context.Background(), "missing", time.Now(), nil)
	require.Error(t, err)
	_, err = s.GetRun(context.Background(), "missing")
	require.Error(t, err)
}

func TestStats_Empty(t *testing.T) {
	t.Parallel()
	s, err := New(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunStats{}, st)
}

func TestMeta(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetMeta(ctx, MetaLastLayoutCheck)
	require.ErrorIs(t, err, ErrMetaNotFound)

	require.NoError(t, s.SetMeta(ctx, MetaLastLayoutCheck, "2026-03-01T12:00:00Z"))
	require.NoError(t, s.SetMeta(ctx, MetaLastLayoutCheck, "2026-03-02T12:00:00Z"))
	v, err := s.GetMeta(ctx, MetaLastLayoutCheck)
	require.NoError(t, err)
	require.Equal(t, "2026-03-02T12:00:00Z", v)

	all, err := s.AllMeta(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{MetaLastLayoutCheck: "2026-03-02T12:00:00Z"}, all)
}
