package model

import (
	"fmt"
	"image/color"
	"strings"
)

// Match points awarded per jam result.
const (
	WinPoints  = 5
	DrawPoints = 2
	LeadPoints = 1
)

var (
	Black = color.RGBA{A: 0xff}
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Team is a participant in a match. Its number never changes once created.
type Team struct {
	Number           int
	Name             string
	Abbreviation     string
	Foreground       color.RGBA
	Background       color.RGBA
	PointsAdjustment int
	Ranking          Ranking
}

func newTeam(index int) *Team {
	return &Team{
		Number:     index + 1,
		Name:       fmt.Sprintf("Team %d", index+1),
		Foreground: Black,
		Background: White,
		Ranking:    Ranking{Team: index},
	}
}

// Index returns the team's position in the match's team list.
func (t *Team) Index() int {
	return t.Number - 1
}

// ShortName returns the abbreviation when set, else the full name.
func (t *Team) ShortName() string {
	if t.Abbreviation != "" {
		return t.Abbreviation
	}
	return t.Name
}

// MatchScore is the primary ranking key.
func (t *Team) MatchScore() int {
	r := t.Ranking
	return r.Wins*WinPoints + r.Draws*DrawPoints + r.LeadJams*LeadPoints + t.PointsAdjustment
}

// Update applies validated team details and reports whether anything changed.
func (t *Team) Update(name, abbreviation string, fg, bg color.RGBA, adjustment int) (bool, error) {
	name = strings.TrimSpace(name)
	abbreviation = strings.TrimSpace(abbreviation)
	if name == "" {
		return false, Invalidf("Team name must not be blank.")
	}

	changed := false
	if name != t.Name {
		t.Name = name
		changed = true
	}
	if abbreviation != t.Abbreviation {
		t.Abbreviation = abbreviation
		changed = true
	}
	if fg != t.Foreground {
		t.Foreground = fg
		changed = true
	}
	if bg != t.Background {
		t.Background = bg
		changed = true
	}
	if adjustment != t.PointsAdjustment {
		t.PointsAdjustment = adjustment
		changed = true
	}
	return changed, nil
}

// ColorFromARGB converts a packed 0xAARRGGBB value. Alpha is always opaque.
func ColorFromARGB(v int32) color.RGBA {
	u := uint32(v)
	return color.RGBA{R: uint8(u >> 16), G: uint8(u >> 8), B: uint8(u), A: 0xff}
}

// ARGB packs an opaque colour as a signed 0xAARRGGBB value.
func ARGB(c color.RGBA) int32 {
	return int32(uint32(0xff)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B))
}

// Hex formats a colour as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb (the leading # is optional).
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	if len(s) != 6 {
		return color.RGBA{}, Invalidf("Invalid colour %q: expected #rrggbb.", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, Invalidf("Invalid colour %q: expected #rrggbb.", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
