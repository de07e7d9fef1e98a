// Package archive keeps timestamped snapshots of a match in an embedded
// bolt database, so earlier states can be listed and restored.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/asdine/storm"
	"github.com/rs/xid"
	bolt "go.etcd.io/bbolt"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/savefile"
)

// ErrNotFound is returned when no snapshot has the requested id.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one archived copy of a match in save file form.
type Snapshot struct {
	ID        string `storm:"id"`
	Match     string `storm:"index"`
	Label     string
	SavedAt   time.Time
	Teams     int
	Jams      int
	Completed int
	Data      []byte
}

// Store is a snapshot archive backed by a storm database.
type Store struct {
	db  *storm.DB
	log *slog.Logger
	now func() time.Time
}

// Options configures a Store. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Open opens or creates the archive at path. It fails after a second if
// another process holds the file.
func Open(path string, opts Options) (*Store, error) {
	db, err := storm.Open(path, storm.BoltOptions(0o600, &bolt.Options{Timeout: time.Second}))
	if err != nil {
		return nil, fmt.Errorf("unable to open archive %s: %w", path, err)
	}

	s := &Store{db: db, log: opts.Logger, now: opts.Now}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives the match as it is now.
func (s *Store) Put(m *model.Match, label string) (*Snapshot, error) {
	var buf bytes.Buffer
	if err := savefile.Write(&buf, m); err != nil {
		return nil, fmt.Errorf("encoding match: %w", err)
	}

	completed := 0
	for _, j := range m.Jams() {
		if j.Completed() {
			completed++
		}
	}

	snap := &Snapshot{
		ID:        xid.New().String(),
		Match:     m.Name,
		Label:     label,
		SavedAt:   s.now().UTC(),
		Teams:     m.TotalTeams(),
		Jams:      m.TotalJams(),
		Completed: completed,
		Data:      buf.Bytes(),
	}
	if err := s.db.Save(snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	s.log.Info("snapshot archived", "id", snap.ID, "match", snap.Match, "label", label)
	return snap, nil
}

// List returns snapshots newest first. An empty match name lists all.
func (s *Store) List(match string) ([]Snapshot, error) {
	var snaps []Snapshot
	var err error
	if match == "" {
		err = s.db.All(&snaps)
	} else {
		err = s.db.Find("Match", match, &snaps)
	}
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].SavedAt.Equal(snaps[j].SavedAt) {
			return snaps[i].SavedAt.After(snaps[j].SavedAt)
		}
		return snaps[i].ID > snaps[j].ID
	})
	return snaps, nil
}

// Get fetches one snapshot.
func (s *Store) Get(id string) (*Snapshot, error) {
	var snap Snapshot
	if err := s.db.One("ID", id, &snap); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// Restore decodes a snapshot back into a match. Warnings are those of
// reading a save file.
func (s *Store) Restore(id string) (*model.Match, []string, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	m, warnings, err := savefile.Read(bytes.NewReader(snap.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot %s: %w", id, err)
	}
	return m, warnings, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(id string) error {
	snap, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteStruct(snap); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	return nil
}
