package history_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/plinth-cli/plinth/internal/history"
	"github.com/plinth-cli/plinth/internal/testutil"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	return history.NewWithDB(testutil.NewTestDB(t))
}

func entry(raw string, status int, at time.Time) history.Entry {
	return history.Entry{
		ID:         uuid.NewString(),
		SessionID:  "session-1",
		Raw:        raw,
		Timestamp:  at,
		ExitStatus: status,
	}
}

func TestStore_AppendAndLoadAll(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(entry("db migrate --target prod", 0, base)))
	require.NoError(t, s.Append(entry("db migrate", 3, base.Add(time.Second))))

	got, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "db migrate --target prod", got[0].Raw)
	require.Equal(t, 0, got[0].ExitStatus)
	require.Equal(t, 3, got[1].ExitStatus)
	require.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestStore_BulkAppend(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []history.Entry{
		entry("one", 0, base),
		entry("two", 2, base.Add(time.Second)),
		entry("three", 0, base.Add(2*time.Second)),
	}
	require.NoError(t, s.BulkAppend(entries))

	got, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestStore_BulkAppendEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkAppend(nil))
}

func TestStore_Recent(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, raw := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(entry(raw, 0, base.Add(time.Duration(i)*time.Second))))
	}

	got, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Chronological order within the window.
	require.Equal(t, "c", got[0].Raw)
	require.Equal(t, "d", got[1].Raw)
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(entry("db migrate", 0, base)))
	require.NoError(t, s.Append(entry("version", 0, base.Add(time.Second))))

	got, err := s.Search("migrate")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "db migrate", got[0].Raw)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(entry("x", 0, time.Now().UTC())))

	n, err := s.Clear()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.LoadAll()
	require.NoError(t, err)
	require.Empty(t, got)
}
