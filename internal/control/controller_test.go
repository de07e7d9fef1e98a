package control

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/schedule"
)

func newController(t *testing.T, teams, heats, jams int) *Controller {
	t.Helper()
	m, err := model.NewSized("Test", teams, heats, jams, 120)
	require.NoError(t, err)
	return New(m, Options{Rand: rand.New(rand.NewSource(1))})
}

// record collects published events.
func record(c *Controller) *[]Event {
	var events []Event
	c.Subscribe(func(ev Event) { events = append(events, ev) })
	return &events
}

func TestUpdateMatch(t *testing.T) {
	c := newController(t, 4, 2, 4)
	events := record(c)

	changed, err := c.UpdateMatch("Cup", 5, 2, 6, 120)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, c.Unsaved())
	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, EventMatch, ev.Kind)
	assert.Len(t, ev.Standings, 5, "standings follow the new team list")

	changed, err = c.UpdateMatch("Cup", 5, 2, 6, 120)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, *events, 1, "no event without a change")

	_, err = c.UpdateMatch("Cup", 1, 2, 6, 120)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Len(t, *events, 1)
}

func TestUpdateMatch_ClampsSelection(t *testing.T) {
	c := newController(t, 4, 2, 6)
	require.NoError(t, c.Select(1, 2))

	_, err := c.UpdateMatch("Test", 4, 2, 4, 120)
	require.NoError(t, err)

	_, sel, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, Selection{}, sel)
}

func TestUpdateTeam(t *testing.T) {
	c := newController(t, 3, 1, 3)

	changed, err := c.UpdateTeam(1, "Rollers", "ROL", model.Black, model.White, 4)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Rollers", c.Standings()[0].Name, "adjustment moves the team to the top")

	_, err = c.UpdateTeam(3, "Ghost", "", model.Black, model.White, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateHeat(t *testing.T) {
	c := newController(t, 4, 2, 4)
	_, err := c.UpdateJam(0, 0, 1, 0, 9, 3, 0)
	require.NoError(t, err)

	changed, err := c.UpdateHeat(0, []int{0, 2}, []int{1, 3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 9, c.Match().Jam(0).Score1, "unchanged jam keeps its score")

	changed, err = c.UpdateHeat(0, []int{0, 2}, []int{1, 3})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.UpdateHeat(0, []int{0, 2}, []int{3, 1})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, c.Match().Jam(0).Score1)
	assert.Zero(t, c.Standings()[0].Wins, "standings forget the reset jam")
}

func TestUpdateJam_RecalculatesAffectedTeams(t *testing.T) {
	c := newController(t, 2, 1, 1)
	events := record(c)

	changed, err := c.UpdateJam(0, 0, 1, 0, 10, 5, 0)
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, EventJam, ev.Kind)
	assert.Same(t, c.Match().Jam(0), ev.Jam)
	require.Len(t, ev.Standings, 2)
	assert.Equal(t, "1", ev.Standings[0].Rank)
	assert.Equal(t, 6, ev.Standings[0].MatchScore)
	assert.Equal(t, 1, ev.Standings[1].Losses)

	_, err = c.UpdateJam(5, 0, 1, 0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrNoJam)
}

func TestUpdateJam_RemovedTeamForgetsResult(t *testing.T) {
	c := newController(t, 3, 1, 1)
	_, err := c.UpdateJam(0, 0, 1, model.NoTeam, 10, 5, 0)
	require.NoError(t, err)

	_, err = c.UpdateJam(0, 0, 2, model.NoTeam, 10, 5, 0)
	require.NoError(t, err)

	team1 := c.Match().Teams[1].Ranking
	assert.Zero(t, team1.Losses)
	assert.Zero(t, team1.PointsFor)
	assert.Equal(t, 1, c.Match().Teams[2].Ranking.Losses)
}

func TestAutoAssign(t *testing.T) {
	c := newController(t, 4, 2, 8)
	events := record(c)

	result, err := c.AutoAssign(context.Background(), 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Spread, 1)
	require.Len(t, *events, 1)
	assert.Equal(t, EventAssign, (*events)[0].Kind)
	assert.True(t, c.Unsaved())

	_, err = c.AutoAssign(context.Background(), 5)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Len(t, *events, 1, "validation failures publish nothing")
}

func TestAutoAssign_TimeoutPublishes(t *testing.T) {
	m, err := model.NewSized("Test", 4, 1, 3, 120)
	require.NoError(t, err)
	c := New(m, Options{Rand: rand.New(rand.NewSource(1)), AssignTimeout: time.Nanosecond})
	events := record(c)

	result, err := c.AutoAssign(context.Background(), 2)
	require.ErrorIs(t, err, schedule.ErrTimeout)
	require.NotNil(t, result)
	require.Len(t, *events, 1)
	assert.NotEqual(t, model.NoTeam, c.Match().Jam(0).Team1)
}

func TestSelection(t *testing.T) {
	c := newController(t, 2, 2, 3)

	_, sel, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, Selection{Heat: 0, Jam: 0, Sequence: 0}, sel)

	assert.True(t, c.Next())
	assert.True(t, c.Next())
	_, sel, _ = c.Current()
	assert.Equal(t, Selection{Heat: 1, Jam: 0, Sequence: 2}, sel)
	assert.False(t, c.Next(), "already at the last jam")

	assert.True(t, c.Prev())
	_, sel, _ = c.Current()
	assert.Equal(t, Selection{Heat: 0, Jam: 1, Sequence: 1}, sel)

	require.NoError(t, c.SelectHeat(1))
	_, sel, _ = c.Current()
	assert.Equal(t, Selection{Heat: 1, Jam: 0, Sequence: 2}, sel, "falls back to the heat's last jam")

	assert.ErrorIs(t, c.Select(1, 1), ErrNoJam)
	assert.ErrorIs(t, c.SelectHeat(2), ErrNoJam)
}

func TestScoring(t *testing.T) {
	c := newController(t, 2, 1, 1)
	_, err := c.UpdateJam(0, 0, 1, model.NoTeam, 0, 0, 120)
	require.NoError(t, err)

	_, err = c.SetScore(Team1, 4)
	require.NoError(t, err)
	_, err = c.AdjustScore(Team1, 3)
	require.NoError(t, err)
	_, err = c.AdjustScore(Team2, -5)
	require.NoError(t, err)
	_, err = c.SetLeadJammer(Team2, true)
	require.NoError(t, err)

	jam, _, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, 7, jam.Score1)
	assert.Equal(t, 0, jam.Score2, "adjustments stop at zero")
	assert.Equal(t, 1, jam.LeadJammer)

	_, err = c.SetLeadJammer(Team1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, jam.LeadJammer, "withdrawing from the other side is a no-op")
	_, err = c.SetLeadJammer(Team2, false)
	require.NoError(t, err)
	assert.Equal(t, model.NoTeam, jam.LeadJammer)

	_, err = c.SetScore(Team2, -1)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestLeadJammerNeedsBothTeams(t *testing.T) {
	c := newController(t, 2, 1, 1)
	_, err := c.SetLeadJammer(Team1, true)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestClock(t *testing.T) {
	c := newController(t, 2, 1, 1)
	_, err := c.UpdateJam(0, 0, 1, model.NoTeam, 3, 1, 2)
	require.NoError(t, err)
	events := record(c)

	more, err := c.Tick()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Zero(t, c.Standings()[0].Wins, "the jam is still running")

	more, err = c.Tick()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 1, c.Standings()[0].Wins, "the jam counts once the clock runs out")

	more, err = c.Tick()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, *events, 2, "ticking at zero changes nothing")

	_, err = c.ResetTime()
	require.NoError(t, err)
	jam, _, _ := c.Current()
	assert.Equal(t, 120, jam.TimeRemaining)
	assert.Zero(t, c.Standings()[0].Wins)
}

func TestSubscribeCancel(t *testing.T) {
	c := newController(t, 2, 1, 1)
	var calls []string
	cancelA := c.Subscribe(func(Event) { calls = append(calls, "a") })
	c.Subscribe(func(Event) { calls = append(calls, "b") })

	c.Next()
	_, err := c.SetScore(Team1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)

	cancelA()
	cancelA()
	_, err = c.SetScore(Team1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestSaveAndLoad(t *testing.T) {
	c := newController(t, 3, 1, 2)
	_, err := c.UpdateJam(1, 2, 0, 2, 8, 6, 0)
	require.NoError(t, err)
	require.True(t, c.Unsaved())

	path := filepath.Join(t.TempDir(), "match.csv")
	require.NoError(t, c.Save(path))
	assert.False(t, c.Unsaved())

	c.NewMatch()
	assert.Equal(t, model.DefaultTeams, c.Match().TotalTeams())

	events := record(c)
	warnings, err := c.Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.False(t, c.Unsaved())
	assert.Equal(t, 3, c.Match().TotalTeams())
	require.Len(t, *events, 1)
	assert.Equal(t, EventLoad, (*events)[0].Kind)
	assert.Equal(t, "Team 3", c.Standings()[0].Name)

	_, err = c.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
	assert.Equal(t, 3, c.Match().TotalTeams(), "failed load keeps the match")

	require.NoError(t, c.Save(""), "falls back to the match's save path")
}
