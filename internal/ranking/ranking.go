// Package ranking derives team tallies from completed jams and keeps the
// tie-aware standings order.
package ranking

import (
	"sort"
	"strconv"

	"github.com/derekprior/heatsheet/internal/model"
)

// Standings is the sorted order of a match's teams.
type Standings struct {
	order []int
}

// Order returns the team indexes from first place to last.
func (s *Standings) Order() []int {
	return append([]int(nil), s.order...)
}

// RecalculateAll rebuilds the table for the match's current team list and
// recomputes every team. Use after structural edits.
func (s *Standings) RecalculateAll(m *model.Match) {
	s.order = make([]int, len(m.Teams))
	all := make([]int, len(m.Teams))
	for i := range m.Teams {
		s.order[i] = i
		all[i] = i
	}
	s.Recalculate(m, all...)
}

// Recalculate resets and replays the tallies of the given teams, then
// re-sorts and relabels the whole table. Other teams keep their tallies.
func (s *Standings) Recalculate(m *model.Match, teams ...int) {
	if len(s.order) != len(m.Teams) {
		s.RecalculateAll(m)
		return
	}

	update := make(map[int]bool, len(teams))
	for _, t := range teams {
		if t == model.NoTeam {
			continue
		}
		update[t] = true
		m.Teams[t].Ranking.Reset()
	}

	for _, h := range m.Heats {
		for _, j := range h.Jams {
			if !j.Completed() {
				continue
			}
			if update[j.Team1] {
				m.Teams[j.Team1].Ranking.Record(j.Score1, j.Score2, j.LeadJammer == j.Team1)
			}
			if update[j.Team2] {
				m.Teams[j.Team2].Ranking.Record(j.Score2, j.Score1, j.LeadJammer == j.Team2)
			}
		}
	}

	sort.SliceStable(s.order, func(a, b int) bool {
		return Compare(m.Teams[s.order[a]], m.Teams[s.order[b]]) < 0
	})
	s.label(m)
}

// label writes rank labels: the position, moved up while level with the row
// above, with "=" when level with the row below.
func (s *Standings) label(m *model.Match) {
	for row, idx := range s.order {
		team := m.Teams[idx]
		rank := row
		for rank > 0 && Compare(team, m.Teams[s.order[rank-1]]) == 0 {
			rank--
		}
		label := strconv.Itoa(rank + 1)
		if row < len(s.order)-1 && Compare(team, m.Teams[s.order[row+1]]) == 0 {
			label += "="
		}
		team.Ranking.Rank = label
	}
}

// Compare orders teams best first: negative when a ranks above b, zero when
// they are level on match score, points difference, wins and lead jams.
func Compare(a, b *model.Team) int {
	if d := b.MatchScore() - a.MatchScore(); d != 0 {
		return d
	}
	if d := b.Ranking.PointsDifference() - a.Ranking.PointsDifference(); d != 0 {
		return d
	}
	if d := b.Ranking.Wins - a.Ranking.Wins; d != 0 {
		return d
	}
	return b.Ranking.LeadJams - a.Ranking.LeadJams
}
