package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/store"
)

func TestClearOfflineSnapshotsKeepsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.SaveToken("tok-123"))
	require.NoError(t, st.Record("transactions/", []byte(`[]`)))
	require.NoError(t, st.Record("categories/", []byte(`[]`)))
	require.NoError(t, st.Close())

	n, err := clearOfflineSnapshots(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, err = store.Open(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	times, err := st.SnapshotTimes()
	require.NoError(t, err)
	assert.Empty(t, times)
	tok, err := st.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcd...wxyz", maskToken("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "abcd...", maskToken("abcdefg"))
	assert.Equal(t, "****", maskToken("abc"))
}
