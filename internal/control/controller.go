// Package control owns the loaded match and coordinates every edit to it:
// structural changes, team details, heat assignment, jam scoring and the
// selected-jam cursor. Each edit that may move the standings recomputes
// them and notifies subscribers before returning.
//
// A Controller is not safe for concurrent use.
package control

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
	"github.com/derekprior/heatsheet/internal/savefile"
	"github.com/derekprior/heatsheet/internal/schedule"
)

// ErrNoJam is returned when the selection or a sequence number names no jam.
var ErrNoJam = errors.New("no such jam")

// Side picks one team of the selected jam.
type Side int

const (
	Team1 Side = iota + 1
	Team2
)

// Options configures a Controller.
type Options struct {
	Logger        *slog.Logger
	Rand          *rand.Rand
	AssignTimeout time.Duration
}

// Controller holds one match, its standings and the selected jam.
type Controller struct {
	log           *slog.Logger
	rng           *rand.Rand
	assignTimeout time.Duration

	match     *model.Match
	standings ranking.Standings
	unsaved   bool

	heat int
	jam  int

	listeners map[int]Listener
	order     []int
	nextID    int
}

// New returns a controller managing m, or a default match when m is nil.
func New(m *model.Match, opts Options) *Controller {
	if m == nil {
		m = model.New()
	}
	c := &Controller{
		log:           opts.Logger,
		rng:           opts.Rand,
		assignTimeout: opts.AssignTimeout,
		match:         m,
		listeners:     make(map[int]Listener),
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.standings.RecalculateAll(m)
	return c
}

// Match returns the managed match. Callers must not mutate it directly.
func (c *Controller) Match() *model.Match {
	return c.match
}

// Unsaved reports whether the match changed since it was last saved or loaded.
func (c *Controller) Unsaved() bool {
	return c.unsaved
}

// Standings returns the current table in rank order.
func (c *Controller) Standings() []ranking.Standing {
	return c.standings.Snapshot(c.match)
}

// UpdateMatch validates and applies a structural change.
func (c *Controller) UpdateMatch(name string, teams, heats, jams, duration int) (bool, error) {
	changed, err := c.match.Configure(name, teams, heats, jams, duration)
	if err != nil || !changed {
		return false, err
	}
	c.log.Info("match updated", "name", c.match.Name, "teams", teams, "heats", heats, "jams", jams, "jam_duration", duration)
	c.clampSelection()
	c.structuralChange(EventMatch)
	return true, nil
}

// UpdateTeam applies new details to the team at index.
func (c *Controller) UpdateTeam(index int, name, abbreviation string, fg, bg color.RGBA, adjustment int) (bool, error) {
	team := c.match.Team(index)
	if team == nil {
		return false, model.Invalidf("Invalid team number: %d", index)
	}
	changed, err := team.Update(name, abbreviation, fg, bg, adjustment)
	if err != nil || !changed {
		return false, err
	}
	c.log.Info("team updated", "team", team.Number, "name", team.Name)
	c.structuralChange(EventTeam)
	return true, nil
}

// UpdateHeat assigns the teams of every jam in a heat. Jams whose teams
// change lose their scores, lead jammer and elapsed time.
func (c *Controller) UpdateHeat(heat int, team1s, team2s []int) (bool, error) {
	changed, err := c.match.AssignHeat(heat, team1s, team2s)
	if err != nil || len(changed) == 0 {
		return false, err
	}
	c.log.Info("heat updated", "heat", heat+1, "jams_changed", len(changed))
	c.structuralChange(EventHeat)
	return true, nil
}

// AutoAssign balances every jam's teams. On timeout the last attempt is
// kept and published before the error is returned.
func (c *Controller) AutoAssign(ctx context.Context, teamsPerHeat int) (*schedule.Result, error) {
	result, err := schedule.AutoAssign(ctx, c.match, schedule.Options{
		TeamsPerHeat: teamsPerHeat,
		Rand:         c.rng,
		Timeout:      c.assignTimeout,
		Logger:       c.log,
	})
	if result == nil {
		return nil, err
	}

	c.structuralChange(EventAssign)
	if err != nil {
		c.log.Warn("auto-assign failed", "teams_per_heat", teamsPerHeat, "attempts", result.Attempts, "err", err)
		return result, err
	}
	c.log.Info("auto-assign complete", "teams_per_heat", teamsPerHeat, "attempts", result.Attempts,
		"spread", result.Spread, "elapsed", result.Elapsed)
	return result, nil
}

// UpdateJam replaces every field of the jam with the given sequence number.
func (c *Controller) UpdateJam(seq, team1, team2, lead, score1, score2, timeRemaining int) (bool, error) {
	jam := c.match.Jam(seq)
	if jam == nil {
		return false, fmt.Errorf("jam %d: %w", seq, ErrNoJam)
	}
	before := jam.Teams()
	changed, err := c.match.UpdateJam(jam, team1, team2, lead, score1, score2, timeRemaining)
	if err != nil || !changed {
		return false, err
	}
	c.log.Debug("jam updated", "jam", seq)
	c.jamChanged(jam, before...)
	return true, nil
}

// NewMatch replaces the match with a default one.
func (c *Controller) NewMatch() {
	c.replace(model.New())
	c.log.Info("new match created")
}

// Save writes the match to path, or to its existing save path when path is empty.
func (c *Controller) Save(path string) error {
	if path == "" {
		path = c.match.SaveFilePath
	}
	if path == "" {
		return errors.New("save file name undefined")
	}
	if err := savefile.Save(path, c.match); err != nil {
		return err
	}
	c.unsaved = false
	c.log.Info("match saved", "path", path)
	return nil
}

// Load replaces the match with the one stored at path. The current match is
// untouched when loading fails.
func (c *Controller) Load(path string) ([]string, error) {
	m, warnings, err := savefile.Load(path)
	if err != nil {
		return nil, err
	}
	c.replace(m)
	c.log.Info("match loaded", "path", path, "warnings", len(warnings))
	return warnings, nil
}

// Replace swaps in an already loaded match, as Load does.
func (c *Controller) Replace(m *model.Match) {
	c.replace(m)
}

func (c *Controller) replace(m *model.Match) {
	c.match = m
	c.heat, c.jam = 0, 0
	c.unsaved = false
	c.standings.RecalculateAll(m)
	c.publish(EventLoad, nil)
}

// structuralChange recomputes every team and publishes.
func (c *Controller) structuralChange(kind EventKind) {
	c.unsaved = true
	c.standings.RecalculateAll(c.match)
	c.publish(kind, nil)
}

// jamChanged recomputes the teams of one jam, plus any it used to involve.
func (c *Controller) jamChanged(jam *model.Jam, previous ...int) {
	c.unsaved = true
	teams := append(previous, jam.Teams()...)
	if len(teams) > 0 {
		c.standings.Recalculate(c.match, teams...)
	}
	c.publish(EventJam, jam)
}
