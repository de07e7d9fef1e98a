package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/heatsheet/internal/excel"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
)

// memUploader keeps uploads in memory.
type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    string
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (u *memUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	if key == u.fail {
		return nil, errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	u.types[key] = contentType
	return &UploadResult{Key: key, Location: PublicURL("https://results.example.com", key)}, nil
}

func (u *memUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func publishedMatch(t *testing.T) (*model.Match, []ranking.Standing) {
	t.Helper()
	m, err := model.NewSized("Summer Sur5al!", 2, 1, 1, 120)
	require.NoError(t, err)
	_, err = m.UpdateJam(m.Jam(0), 0, 1, 1, 2, 5, 0)
	require.NoError(t, err)
	var s ranking.Standings
	s.RecalculateAll(m)
	return m, s.Snapshot(m)
}

func TestPublish(t *testing.T) {
	up := newMemUploader()
	p := New(up, Options{
		Prefix: "matches",
		Format: excel.Abbr,
		Now:    func() time.Time { return time.Date(2026, 6, 13, 18, 0, 0, 0, time.UTC) },
	})
	m, standings := publishedMatch(t)

	report, err := p.Publish(context.Background(), m, standings)
	require.NoError(t, err)

	assert.Equal(t, "matches/summer-sur5al/results.xlsx", report.Workbook.Key)
	assert.Equal(t, "https://results.example.com/matches/summer-sur5al/standings.png", report.Image.Location)
	assert.Len(t, up.objects, 3)
	assert.Equal(t, "image/png", up.types["matches/summer-sur5al/standings.png"])

	t.Run("workbook opens", func(t *testing.T) {
		f, err := excelize.OpenReader(bytes.NewReader(up.objects[report.Workbook.Key]))
		require.NoError(t, err)
		defer f.Close()
		name, err := f.GetCellValue(excel.MatchSheet, "B2")
		require.NoError(t, err)
		assert.Equal(t, "Summer Sur5al!", name)
	})

	t.Run("standings json", func(t *testing.T) {
		var doc struct {
			Match     string             `json:"match"`
			Standings []ranking.Standing `json:"standings"`
		}
		require.NoError(t, json.Unmarshal(up.objects[report.Standings.Key], &doc))
		assert.Equal(t, "Summer Sur5al!", doc.Match)
		require.Len(t, doc.Standings, 2)
		assert.Equal(t, "Team 2", doc.Standings[0].Name)
	})
}

func TestPublishUploadFailure(t *testing.T) {
	up := newMemUploader()
	up.fail = "summer-sur5al/standings.json"
	p := New(up, Options{})
	m, standings := publishedMatch(t)

	_, err := p.Publish(context.Background(), m, standings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Summer Sur5al!":    "summer-sur5al",
		"  Cup -- Final  ":   "cup-final",
		"Ünïcode Trophy":    "ünïcode-trophy",
		"!!!":               "match",
		"already-slugged-1": "already-slugged-1",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.png", PublicURL("https://cdn.example.com", "a/b.png"))
	assert.Equal(t, "https://cdn.example.com/base/a.png", PublicURL("https://cdn.example.com/base", "/a.png"))
	assert.Empty(t, PublicURL("", "a.png"))
	assert.Empty(t, PublicURL("https://cdn.example.com", ""))
}

func TestNewR2UploaderValidation(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "abc", BucketName: "results"})
	assert.Error(t, err)
}
