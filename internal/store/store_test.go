package store

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
)

var _ api.Recorder = (*Store)(nil)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "finboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestToken_SaveLoadClear(t *testing.T) {
	s := openTemp(t)

	tok, err := s.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.SaveToken("first"))
	require.NoError(t, s.SaveToken("second"))
	tok, err = s.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	require.NoError(t, s.ClearToken())
	tok, err = s.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSnapshots_RecordReplaces(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.Record(api.PathSummary, []byte(`{"a":1}`)))
	require.NoError(t, s.Record(api.PathSummary, []byte(`{"a":2}`)))

	snap, ok, err := s.LoadSnapshot(api.PathSummary)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(snap.Body))
	assert.False(t, snap.FetchedAt.IsZero())

	_, ok, err = s.LoadSnapshot(api.PathBudgets)
	require.NoError(t, err)
	assert.False(t, ok)

	times, err := s.SnapshotTimes()
	require.NoError(t, err)
	assert.Len(t, times, 1)

	require.NoError(t, s.ClearSnapshots())
	times, err = s.SnapshotTimes()
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestOfflineTransport_ServesRecordedGets(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Record(api.PathForecast, []byte(`[{"opening_balance":"100.00","closing_balance":"150.00"}]`)))

	base := "http://finance.invalid/api/"
	rt, err := s.OfflineTransport(base)
	require.NoError(t, err)
	c, err := api.New(base, api.WithTransport(rt))
	require.NoError(t, err)
	ctx := context.Background()

	weeks, err := c.Forecast13Week(ctx)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, "150", weeks[0].ClosingBalance.Decimal.String())

	_, err = c.BudgetProgress(ctx)
	var reqErr *api.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.Status)

	_, err = c.CreateTransaction(ctx, api.NewTransaction{Description: "Rent"})
	assert.ErrorIs(t, err, api.ErrRequestFailed)
}

