package model

// Ranking holds a team's tallies from completed jams.
type Ranking struct {
	Team          int // index into Match.Teams
	Rank          string
	Wins          int
	Draws         int
	Losses        int
	LeadJams      int
	PointsFor     int
	PointsAgainst int
}

// Reset clears the tallies and rank label.
func (r *Ranking) Reset() {
	team := r.Team
	*r = Ranking{Team: team}
}

// Record adds one completed jam from this team's point of view.
func (r *Ranking) Record(scored, conceded int, lead bool) {
	r.PointsFor += scored
	r.PointsAgainst += conceded

	switch {
	case scored > conceded:
		r.Wins++
	case scored < conceded:
		r.Losses++
	default:
		r.Draws++
	}

	if lead {
		r.LeadJams++
	}
}

// PointsDifference is points for minus points against.
func (r *Ranking) PointsDifference() int {
	return r.PointsFor - r.PointsAgainst
}
