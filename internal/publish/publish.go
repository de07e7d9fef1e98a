// Package publish uploads a match's results (workbook, standings image and
// standings JSON) to object storage.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/derekprior/heatsheet/internal/excel"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
	"github.com/derekprior/heatsheet/internal/render"
)

// Object names under a match's folder.
const (
	WorkbookName  = "results.xlsx"
	ImageName     = "standings.png"
	StandingsName = "standings.json"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures a Publisher.
type Options struct {
	Prefix string
	Format excel.TeamFormat
	Logger *slog.Logger
	Now    func() time.Time
}

// Publisher renders results and hands them to an Uploader.
type Publisher struct {
	up     Uploader
	prefix string
	format excel.TeamFormat
	log    *slog.Logger
	now    func() time.Time
}

// Report lists what was uploaded.
type Report struct {
	Workbook  *UploadResult
	Image     *UploadResult
	Standings *UploadResult
}

// New creates a Publisher.
func New(up Uploader, opts Options) *Publisher {
	p := &Publisher{up: up, prefix: opts.Prefix, format: opts.Format, log: opts.Logger, now: opts.Now}
	if p.log == nil {
		p.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Key returns the object key for name within the match's folder.
func (p *Publisher) Key(m *model.Match, name string) string {
	return path.Join(p.prefix, Slug(m.Name), name)
}

// Publish renders the three result files and uploads them concurrently.
// The first failure cancels the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, m *model.Match, standings []ranking.Standing) (*Report, error) {
	workbook, err := p.workbook(m, standings)
	if err != nil {
		return nil, err
	}
	var img bytes.Buffer
	if err := render.WritePNG(&img, m, standings); err != nil {
		return nil, err
	}
	doc, err := json.MarshalIndent(struct {
		Match       string             `json:"match"`
		PublishedAt time.Time          `json:"publishedAt"`
		Standings   []ranking.Standing `json:"standings"`
	}{m.Name, p.now().UTC(), standings}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding standings: %w", err)
	}

	report := &Report{}
	g, ctx := errgroup.WithContext(ctx)
	upload := func(dst **UploadResult, name, contentType string, body []byte) {
		g.Go(func() error {
			res, err := p.up.Upload(ctx, p.Key(m, name), contentType, bytes.NewReader(body))
			if err != nil {
				return err
			}
			*dst = res
			return nil
		})
	}
	upload(&report.Workbook, WorkbookName, xlsxType, workbook)
	upload(&report.Image, ImageName, "image/png", img.Bytes())
	upload(&report.Standings, StandingsName, "application/json", doc)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("publishing %q: %w", m.Name, err)
	}
	p.log.Info("results published", "match", m.Name, "workbook", report.Workbook.Location)
	return report, nil
}

func (p *Publisher) workbook(m *model.Match, standings []ranking.Standing) ([]byte, error) {
	f, err := excel.Generate(m, standings, p.format, p.now())
	if err != nil {
		return nil, fmt.Errorf("generating workbook: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Slug turns a match name into a lower-case key segment.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "match"
	}
	return s
}
