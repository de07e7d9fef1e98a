package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/heatsheet/internal/model"
)

// steppingClock returns times one minute apart.
func steppingClock() func() time.Time {
	now := time.Date(2026, 6, 13, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"), Options{Now: steppingClock()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newMatch(t *testing.T, name string) *model.Match {
	t.Helper()
	m, err := model.NewSized(name, 3, 1, 3, 120)
	require.NoError(t, err)
	return m
}

func TestPutAndRestore(t *testing.T) {
	s := openStore(t)
	m := newMatch(t, "Cup")
	_, err := m.UpdateJam(m.Jam(0), 0, 1, 1, 3, 7, 0)
	require.NoError(t, err)

	snap, err := s.Put(m, "after jam 1")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "Cup", snap.Match)
	assert.Equal(t, 3, snap.Jams)
	assert.Equal(t, 1, snap.Completed)

	restored, warnings, err := s.Restore(snap.ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Cup", restored.Name)
	j := restored.Jam(0)
	assert.Equal(t, 1, j.LeadJammer)
	assert.Equal(t, 7, j.Score2)
	assert.True(t, j.Completed())
}

func TestList(t *testing.T) {
	s := openStore(t)

	empty, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	cup := newMatch(t, "Cup")
	first, err := s.Put(cup, "first")
	require.NoError(t, err)
	_, err = s.Put(newMatch(t, "Shield"), "other")
	require.NoError(t, err)
	second, err := s.Put(cup, "second")
	require.NoError(t, err)

	t.Run("by match newest first", func(t *testing.T) {
		snaps, err := s.List("Cup")
		require.NoError(t, err)
		require.Len(t, snaps, 2)
		assert.Equal(t, second.ID, snaps[0].ID)
		assert.Equal(t, first.ID, snaps[1].ID)
	})

	t.Run("all", func(t *testing.T) {
		snaps, err := s.List("")
		require.NoError(t, err)
		require.Len(t, snaps, 3)
		assert.Equal(t, "other", snaps[1].Label)
	})

	t.Run("unknown match", func(t *testing.T) {
		snaps, err := s.List("Trophy")
		require.NoError(t, err)
		assert.Empty(t, snaps)
	})
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Restore("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	snap, err := s.Put(newMatch(t, "Cup"), "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(snap.ID))
	_, err = s.Get(snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(snap.ID), ErrNotFound)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(path, Options{})
	require.NoError(t, err)
	snap, err := s.Put(newMatch(t, "Cup"), "kept")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Label)
}
