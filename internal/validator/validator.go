package validator

import (
	"fmt"
	"math"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/savefile"
	"github.com/derekprior/heatsheet/internal/schedule"
)

// Violation represents a problem found while auditing a match.
type Violation struct {
	Jam     int    // match-wide jam number, 0 when not tied to one jam
	Type    string // "error" or "warning"
	Message string
}

// ValidateFile loads a save file and audits it. The load warnings are
// returned alongside the violations.
func ValidateFile(path string) ([]Violation, []string, error) {
	m, warnings, err := savefile.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return Validate(m), warnings, nil
}

// Validate audits the match's assignment and results.
func Validate(m *model.Match) []Violation {
	jams := readJams(m)

	var violations []Violation

	// Check hard constraints
	refs := checkTeamRefs(m, jams)
	violations = append(violations, refs...)
	violations = append(violations, checkSelfPlay(m, jams)...)
	violations = append(violations, checkLeadJammer(m, jams)...)
	violations = append(violations, checkScores(m, jams)...)
	violations = append(violations, checkHeatSizes(m)...)

	// The balance checks index teams directly
	if len(refs) > 0 {
		return violations
	}

	// Check soft constraints
	violations = append(violations, checkUnassigned(jams)...)
	violations = append(violations, checkUnscheduledTeams(m, jams)...)
	violations = append(violations, checkMatchupSpread(m)...)
	violations = append(violations, checkJamBalance(m, jams)...)
	violations = append(violations, checkBackToBack(m, jams)...)

	return violations
}

// Count tallies violations by type.
func Count(violations []Violation) (errors, warnings int) {
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
		case "warning":
			warnings++
		}
	}
	return errors, warnings
}

type parsedJam struct {
	Seq   int // 1-based
	Heat  int // 1-based
	Team1 int
	Team2 int
	Lead  int
	Score [2]int
	Time  int
}

func (j parsedJam) assigned() bool {
	return j.Team1 != model.NoTeam && j.Team2 != model.NoTeam
}

func readJams(m *model.Match) []parsedJam {
	var jams []parsedJam
	for h, heat := range m.Heats {
		for _, j := range heat.Jams {
			jams = append(jams, parsedJam{
				Seq:   len(jams) + 1,
				Heat:  h + 1,
				Team1: j.Team1,
				Team2: j.Team2,
				Lead:  j.LeadJammer,
				Score: [2]int{j.Score1, j.Score2},
				Time:  j.TimeRemaining,
			})
		}
	}
	return jams
}

func teamName(m *model.Match, idx int) string {
	if t := m.Team(idx); t != nil {
		return t.Name
	}
	return fmt.Sprintf("team index %d", idx)
}

func checkTeamRefs(m *model.Match, jams []parsedJam) []Violation {
	valid := func(idx int) bool {
		return idx == model.NoTeam || (idx >= 0 && idx < m.TotalTeams())
	}

	var violations []Violation
	for _, j := range jams {
		for _, idx := range []int{j.Team1, j.Team2, j.Lead} {
			if !valid(idx) {
				violations = append(violations, Violation{
					Jam:     j.Seq,
					Type:    "error",
					Message: fmt.Sprintf("jam %d refers to team index %d but the match has %d teams", j.Seq, idx, m.TotalTeams()),
				})
			}
		}
	}
	return violations
}

func checkSelfPlay(m *model.Match, jams []parsedJam) []Violation {
	var violations []Violation
	for _, j := range jams {
		if j.Team1 != model.NoTeam && j.Team1 == j.Team2 {
			violations = append(violations, Violation{
				Jam:     j.Seq,
				Type:    "error",
				Message: fmt.Sprintf("jam %d: %s plays against itself", j.Seq, teamName(m, j.Team1)),
			})
		}
	}
	return violations
}

func checkLeadJammer(m *model.Match, jams []parsedJam) []Violation {
	var violations []Violation
	for _, j := range jams {
		if j.Lead == model.NoTeam || (j.assigned() && (j.Lead == j.Team1 || j.Lead == j.Team2)) {
			continue
		}
		violations = append(violations, Violation{
			Jam:     j.Seq,
			Type:    "error",
			Message: fmt.Sprintf("jam %d: lead jammer %s is not playing in the jam", j.Seq, teamName(m, j.Lead)),
		})
	}
	return violations
}

func checkScores(m *model.Match, jams []parsedJam) []Violation {
	var violations []Violation
	for _, j := range jams {
		if j.Score[0] < 0 || j.Score[1] < 0 {
			violations = append(violations, Violation{
				Jam:     j.Seq,
				Type:    "error",
				Message: fmt.Sprintf("jam %d has a negative score (%d - %d)", j.Seq, j.Score[0], j.Score[1]),
			})
		}
		if j.Time < 0 {
			violations = append(violations, Violation{
				Jam:     j.Seq,
				Type:    "error",
				Message: fmt.Sprintf("jam %d has negative time remaining (%ds)", j.Seq, j.Time),
			})
		}
		if j.Time > m.JamDuration {
			violations = append(violations, Violation{
				Jam:     j.Seq,
				Type:    "warning",
				Message: fmt.Sprintf("jam %d has %ds remaining, more than the %ds jam duration", j.Seq, j.Time, m.JamDuration),
			})
		}
	}
	return violations
}

func checkHeatSizes(m *model.Match) []Violation {
	if len(m.Heats) == 0 {
		return nil
	}

	maxJams, minJams := 0, math.MaxInt
	for _, h := range m.Heats {
		maxJams = max(maxJams, len(h.Jams))
		minJams = min(minJams, len(h.Jams))
	}
	if maxJams-minJams > 1 {
		return []Violation{{
			Type:    "error",
			Message: fmt.Sprintf("heat size imbalance: min %d, max %d jams per heat", minJams, maxJams),
		}}
	}
	return nil
}

func checkUnassigned(jams []parsedJam) []Violation {
	open := 0
	for _, j := range jams {
		if !j.assigned() {
			open++
		}
	}
	if open == 0 {
		return nil
	}
	return []Violation{{
		Type:    "warning",
		Message: fmt.Sprintf("%d of %d jams are missing a team", open, len(jams)),
	}}
}

func checkUnscheduledTeams(m *model.Match, jams []parsedJam) []Violation {
	counts := appearances(m, jams)

	var violations []Violation
	for idx, c := range counts {
		if c == 0 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has no jams scheduled", teamName(m, idx)),
			})
		}
	}
	return violations
}

func checkMatchupSpread(m *model.Match) []Violation {
	vs := schedule.Matchups(m)
	spread := schedule.Spread(vs)
	if spread <= 1 {
		return nil
	}

	high, low := 0, math.MaxInt
	for i := range vs {
		for j := i + 1; j < len(vs); j++ {
			high = max(high, vs[i][j])
			low = min(low, vs[i][j])
		}
	}
	return []Violation{{
		Type:    "warning",
		Message: fmt.Sprintf("matchup imbalance: pairs meet between %d and %d times", low, high),
	}}
}

func checkJamBalance(m *model.Match, jams []parsedJam) []Violation {
	counts := appearances(m, jams)
	if len(counts) == 0 {
		return nil
	}

	high, low := 0, math.MaxInt
	for _, c := range counts {
		high = max(high, c)
		low = min(low, c)
	}
	if high-low > 1 {
		return []Violation{{
			Type:    "warning",
			Message: fmt.Sprintf("jam count imbalance: min %d, max %d across teams", low, high),
		}}
	}
	return nil
}

// checkBackToBack warns when a team plays two jams in a row.
func checkBackToBack(m *model.Match, jams []parsedJam) []Violation {
	var violations []Violation
	for i := 1; i < len(jams); i++ {
		prev, cur := jams[i-1], jams[i]
		for _, team := range []int{cur.Team1, cur.Team2} {
			if team == model.NoTeam || (team != prev.Team1 && team != prev.Team2) {
				continue
			}
			violations = append(violations, Violation{
				Jam:     cur.Seq,
				Type:    "warning",
				Message: fmt.Sprintf("%s plays back-to-back jams %d and %d", teamName(m, team), prev.Seq, cur.Seq),
			})
		}
	}
	return violations
}

func appearances(m *model.Match, jams []parsedJam) []int {
	counts := make([]int, m.TotalTeams())
	for _, j := range jams {
		if j.Team1 != model.NoTeam {
			counts[j.Team1]++
		}
		if j.Team2 != model.NoTeam && j.Team2 != j.Team1 {
			counts[j.Team2]++
		}
	}
	return counts
}
