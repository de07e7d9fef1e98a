package model

// NoTeam marks an unassigned team slot.
const NoTeam = -1

// Jam is one timed round between two teams. Team fields are indexes into
// the owning match's team list.
type Jam struct {
	Team1         int
	Team2         int
	LeadJammer    int
	Score1        int
	Score2        int
	TimeRemaining int
}

// NewJam returns an unassigned jam with the given duration in seconds.
func NewJam(duration int) *Jam {
	return &Jam{
		Team1:         NoTeam,
		Team2:         NoTeam,
		LeadJammer:    NoTeam,
		TimeRemaining: duration,
	}
}

// Completed reports whether the jam has run out of time, whatever the score.
func (j *Jam) Completed() bool {
	return j.TimeRemaining == 0
}

// Reset zeroes scores and lead jammer and restarts the clock.
func (j *Jam) Reset(duration int) {
	j.Score1 = 0
	j.Score2 = 0
	j.LeadJammer = NoTeam
	j.TimeRemaining = duration
}

// Involves reports whether team plays in this jam.
func (j *Jam) Involves(team int) bool {
	return team != NoTeam && (j.Team1 == team || j.Team2 == team)
}

// Teams returns the assigned teams of this jam, skipping empty slots.
func (j *Jam) Teams() []int {
	var teams []int
	if j.Team1 != NoTeam {
		teams = append(teams, j.Team1)
	}
	if j.Team2 != NoTeam && j.Team2 != j.Team1 {
		teams = append(teams, j.Team2)
	}
	return teams
}

// Heat is a group of jams played in the same time slot.
type Heat struct {
	Jams []*Jam
}
