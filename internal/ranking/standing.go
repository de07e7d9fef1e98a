package ranking

import "github.com/derekprior/heatsheet/internal/model"

// Standing is a read-only copy of one row of the table.
type Standing struct {
	Rank             string `json:"rank"`
	Team             int    `json:"team"`
	Number           int    `json:"number"`
	Name             string `json:"name"`
	Abbreviation     string `json:"abbreviation,omitempty"`
	Wins             int    `json:"wins"`
	Draws            int    `json:"draws"`
	Losses           int    `json:"losses"`
	LeadJams         int    `json:"leadJams"`
	PointsFor        int    `json:"pointsFor"`
	PointsAgainst    int    `json:"pointsAgainst"`
	PointsDifference int    `json:"pointsDifference"`
	Adjustment       int    `json:"adjustment"`
	MatchScore       int    `json:"matchScore"`
}

// Snapshot copies the table in standings order.
func (s *Standings) Snapshot(m *model.Match) []Standing {
	rows := make([]Standing, 0, len(s.order))
	for _, idx := range s.order {
		t := m.Teams[idx]
		r := t.Ranking
		rows = append(rows, Standing{
			Rank:             r.Rank,
			Team:             idx,
			Number:           t.Number,
			Name:             t.Name,
			Abbreviation:     t.Abbreviation,
			Wins:             r.Wins,
			Draws:            r.Draws,
			Losses:           r.Losses,
			LeadJams:         r.LeadJams,
			PointsFor:        r.PointsFor,
			PointsAgainst:    r.PointsAgainst,
			PointsDifference: r.PointsDifference(),
			Adjustment:       t.PointsAdjustment,
			MatchScore:       t.MatchScore(),
		})
	}
	return rows
}
