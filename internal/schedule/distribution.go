package schedule

import (
	"fmt"
	"strings"

	"github.com/derekprior/heatsheet/internal/model"
)

// Matchups counts how often each pair of teams is scheduled against each
// other in the match's current assignment.
func Matchups(m *model.Match) [][]int {
	n := m.TotalTeams()
	vs := make([][]int, n)
	for i := range vs {
		vs[i] = make([]int, n)
	}
	for _, j := range m.Jams() {
		if j.Team1 == model.NoTeam || j.Team2 == model.NoTeam || j.Team1 == j.Team2 {
			continue
		}
		vs[j.Team1][j.Team2]++
		vs[j.Team2][j.Team1]++
	}
	return vs
}

// Spread is the difference between the most and least frequent matchup
// over all distinct pairs. It is zero for fewer than two teams.
func Spread(vs [][]int) int {
	high, low := 0, -1
	for i := range vs {
		for j := range vs[i] {
			if i == j {
				continue
			}
			c := vs[i][j]
			if c > high {
				high = c
			}
			if low < 0 || c < low {
				low = c
			}
		}
	}
	if low < 0 {
		return 0
	}
	return high - low
}

// Distribution holds, per team, the running count of jams played at the end
// of each heat, or zero where the team sat the heat out.
type Distribution struct {
	Heats int                `json:"heats"`
	Teams []TeamDistribution `json:"teams"`
}

// TeamDistribution is one team's row of a Distribution.
type TeamDistribution struct {
	Number int   `json:"number"`
	Counts []int `json:"counts"`
}

// Distribute computes the jam distribution of the match's current assignment.
func Distribute(m *model.Match) *Distribution {
	d := &Distribution{Heats: m.TotalHeats()}
	for idx, team := range m.Teams {
		row := TeamDistribution{Number: team.Number, Counts: make([]int, len(m.Heats))}
		played := 0
		for h, heat := range m.Heats {
			in := false
			for _, j := range heat.Jams {
				if j.Involves(idx) {
					played++
					in = true
				}
			}
			if in {
				row.Counts[h] = played
			}
		}
		d.Teams = append(d.Teams, row)
	}
	return d
}

// String renders the distribution as a text grid.
func (d *Distribution) String() string {
	var sb strings.Builder
	sb.WriteString("Heat    |")
	for h := 0; h < d.Heats; h++ {
		fmt.Fprintf(&sb, " %2d", h+1)
	}
	sb.WriteString("\n--------+")
	sb.WriteString(strings.Repeat("---", d.Heats))

	for _, row := range d.Teams {
		fmt.Fprintf(&sb, "\nTeam %2d |", row.Number)
		for _, c := range row.Counts {
			if c == 0 {
				sb.WriteString("   ")
				continue
			}
			fmt.Fprintf(&sb, " %2d", c)
		}
	}
	return sb.String()
}
