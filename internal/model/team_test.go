package model

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamUpdate(t *testing.T) {
	team := newTeam(2)
	red := color.RGBA{R: 0xff, A: 0xff}

	changed, err := team.Update(" Rollers ", " ROL ", White, red, -3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Rollers", team.Name)
	assert.Equal(t, "ROL", team.Abbreviation)
	assert.Equal(t, red, team.Background)
	assert.Equal(t, -3, team.PointsAdjustment)
	assert.Equal(t, 3, team.Number)

	changed, err = team.Update("Rollers", "ROL", White, red, -3)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = team.Update(" ", "", White, red, 0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Team name must not be blank.")
	assert.Equal(t, "Rollers", team.Name)
}

func TestMatchScore(t *testing.T) {
	team := newTeam(0)
	team.Ranking.Record(10, 5, true)
	team.Ranking.Record(3, 3, false)
	team.Ranking.Record(0, 8, false)
	team.PointsAdjustment = -1

	assert.Equal(t, 1, team.Ranking.Wins)
	assert.Equal(t, 1, team.Ranking.Draws)
	assert.Equal(t, 1, team.Ranking.Losses)
	assert.Equal(t, 1, team.Ranking.LeadJams)
	assert.Equal(t, 13, team.Ranking.PointsFor)
	assert.Equal(t, 16, team.Ranking.PointsAgainst)
	assert.Equal(t, -3, team.Ranking.PointsDifference())
	assert.Equal(t, 5+2+1-1, team.MatchScore())

	team.Ranking.Rank = "1="
	team.Ranking.Reset()
	assert.Equal(t, Ranking{Team: 0}, team.Ranking)
}

func TestColors(t *testing.T) {
	c := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}

	assert.Equal(t, int32(-15584170), ARGB(c))
	assert.Equal(t, c, ColorFromARGB(ARGB(c)))
	assert.Equal(t, int32(-16777216), ARGB(Black))
	assert.Equal(t, int32(-1), ARGB(White))
	assert.Equal(t, "#123456", Hex(c))

	parsed, err := ParseHex("#123456")
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	_, err = ParseHex("blue")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestJamCompleted(t *testing.T) {
	j := NewJam(120)
	assert.False(t, j.Completed())
	j.TimeRemaining = 0
	assert.True(t, j.Completed(), "a scoreless jam at zero is still complete")
	assert.Empty(t, j.Teams())

	j.Team1, j.Team2 = 2, 5
	assert.True(t, j.Involves(5))
	assert.False(t, j.Involves(NoTeam))
	assert.Equal(t, []int{2, 5}, j.Teams())
}
