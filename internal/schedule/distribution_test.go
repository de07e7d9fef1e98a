package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchups(t *testing.T) {
	m := newMatch(t, 3, 2, 3)
	m.Jam(0).Team1, m.Jam(0).Team2 = 0, 1
	m.Jam(1).Team1, m.Jam(1).Team2 = 1, 0
	m.Jam(2).Team1 = 2

	vs := Matchups(m)

	assert.Equal(t, [][]int{{0, 2, 0}, {2, 0, 0}, {0, 0, 0}}, vs)
	assert.Equal(t, 2, Spread(vs))
	assert.Equal(t, 0, Spread(nil))
	assert.Equal(t, 0, Spread([][]int{{0}}))
}

func TestDistribute(t *testing.T) {
	m := newMatch(t, 3, 2, 3)
	m.Jam(0).Team1, m.Jam(0).Team2 = 0, 1
	m.Jam(1).Team1, m.Jam(1).Team2 = 0, 2
	m.Jam(2).Team1, m.Jam(2).Team2 = 1, 2

	d := Distribute(m)

	require.Len(t, d.Teams, 3)
	assert.Equal(t, []int{2, 0}, d.Teams[0].Counts)
	assert.Equal(t, []int{1, 2}, d.Teams[1].Counts)
	assert.Equal(t, []int{1, 2}, d.Teams[2].Counts)

	want := "Heat    |  1  2\n" +
		"--------+------\n" +
		"Team  1 |  2   \n" +
		"Team  2 |  1  2\n" +
		"Team  3 |  1  2"
	assert.Equal(t, want, d.String())
}
