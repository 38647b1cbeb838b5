package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_Session(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.SaveSession(Session{Token: "t1", Role: "guest", Server: "http://a"}))
	require.NoError(t, s.SaveSession(Session{Token: "t2", Role: "admin", Server: "http://b"}))

	sess, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "t2", sess.Token)
	assert.Equal(t, "admin", sess.Role)
	assert.Equal(t, "http://b", sess.Server)
	assert.False(t, sess.SavedAt.IsZero())

	require.NoError(t, s.ClearSession())
	require.NoError(t, s.ClearSession())
	_, err = s.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSQLiteStorage_Downloads(t *testing.T) {
	s := newTestStorage(t)

	list, err := s.ListDownloads(0)
	require.NoError(t, err)
	assert.Empty(t, list)

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.xlsx", "b.xlsx", "c.xls"} {
		_, err := s.AddDownload(DownloadRecord{
			FileName:     name,
			LocalPath:    "/tmp/" + name,
			SizeBytes:    int64(10 * (i + 1)),
			SHA256:       "abc",
			DownloadedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	list, err = s.ListDownloads(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c.xls", list[0].FileName)
	assert.Equal(t, "b.xlsx", list[1].FileName)
	assert.Equal(t, int64(30), list[0].SizeBytes)

	list, err = s.ListDownloads(0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
