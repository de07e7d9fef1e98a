// Package render draws the standings table as an image for scoreboards and
// published results.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
)

// Layout in pixels.
const (
	Width     = 760
	rowHeight = 28
	margin    = 16
	teamWidth = 260
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	headerFill = color.RGBA{0x44, 0x72, 0xc4, 0xff} // same blue as the workbook headers
	stripe     = color.RGBA{0xf2, 0xf2, 0xf2, 0xff}
	ink        = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

type column struct {
	title string
	width float64
	value func(ranking.Standing) string
}

var columns = []column{
	{"W", 48, func(s ranking.Standing) string { return strconv.Itoa(s.Wins) }},
	{"D", 48, func(s ranking.Standing) string { return strconv.Itoa(s.Draws) }},
	{"L", 48, func(s ranking.Standing) string { return strconv.Itoa(s.Losses) }},
	{"Lead", 56, func(s ranking.Standing) string { return strconv.Itoa(s.LeadJams) }},
	{"For", 56, func(s ranking.Standing) string { return strconv.Itoa(s.PointsFor) }},
	{"Agst", 56, func(s ranking.Standing) string { return strconv.Itoa(s.PointsAgainst) }},
	{"Diff", 56, func(s ranking.Standing) string { return fmt.Sprintf("%+d", s.PointsDifference) }},
	{"Score", 64, func(s ranking.Standing) string { return strconv.Itoa(s.MatchScore) }},
}

// Height returns the image height for a table of n teams.
func Height(n int) int {
	return 2*margin + (n+2)*rowHeight
}

// Standings draws the table: a title row, a header row and one row per team
// in standings order, each team cell in the team's colours.
func Standings(m *model.Match, rows []ranking.Standing) image.Image {
	dc := gg.NewContext(Width, Height(len(rows)))
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(background)
	dc.Clear()

	// Title
	y := float64(margin)
	dc.SetColor(ink)
	dc.DrawStringAnchored(m.Name, margin, y+rowHeight/2, 0, 0.35)
	y += rowHeight

	// Header
	dc.SetColor(headerFill)
	dc.DrawRectangle(margin, y, Width-2*margin, rowHeight)
	dc.Fill()
	dc.SetColor(color.White)
	drawRow(dc, y, "#", "Team", func(c column) string { return c.title })
	y += rowHeight

	for i, s := range rows {
		if i%2 == 1 {
			dc.SetColor(stripe)
			dc.DrawRectangle(margin, y, Width-2*margin, rowHeight)
			dc.Fill()
		}

		fg, bg := model.Black, model.White
		if t := m.Team(s.Team); t != nil {
			fg, bg = t.Foreground, t.Background
		}
		dc.SetColor(bg)
		dc.DrawRectangle(margin+48, y+2, teamWidth-4, rowHeight-4)
		dc.Fill()

		dc.SetColor(ink)
		dc.DrawStringAnchored(s.Rank, margin+24, y+rowHeight/2, 0.5, 0.35)
		dc.SetColor(fg)
		dc.DrawStringAnchored(teamLabel(s), margin+56, y+rowHeight/2, 0, 0.35)

		dc.SetColor(ink)
		drawRow(dc, y, "", "", func(c column) string { return c.value(s) })
		y += rowHeight
	}
	return dc.Image()
}

// WritePNG draws the table and encodes it as PNG.
func WritePNG(w io.Writer, m *model.Match, rows []ranking.Standing) error {
	dc := gg.NewContextForImage(Standings(m, rows))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding standings image: %w", err)
	}
	return nil
}

func drawRow(dc *gg.Context, y float64, rank, team string, cell func(column) string) {
	mid := y + rowHeight/2
	if rank != "" {
		dc.DrawStringAnchored(rank, margin+24, mid, 0.5, 0.35)
	}
	if team != "" {
		dc.DrawStringAnchored(team, margin+56, mid, 0, 0.35)
	}
	x := float64(margin + 48 + teamWidth)
	for _, c := range columns {
		dc.DrawStringAnchored(cell(c), x+c.width/2, mid, 0.5, 0.35)
		x += c.width
	}
}

func teamLabel(s ranking.Standing) string {
	if s.Abbreviation != "" {
		return fmt.Sprintf("%d  %s (%s)", s.Number, s.Name, s.Abbreviation)
	}
	return fmt.Sprintf("%d  %s", s.Number, s.Name)
}
