package server

import (
	"github.com/derekprior/heatsheet/internal/control"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
)

// Team and jam references in the API are zero-based indexes; -1 is no team.

type teamView struct {
	Index            int    `json:"index"`
	Number           int    `json:"number"`
	Name             string `json:"name"`
	Abbreviation     string `json:"abbreviation,omitempty"`
	Foreground       string `json:"foreground"`
	Background       string `json:"background"`
	PointsAdjustment int    `json:"pointsAdjustment"`
}

type jamView struct {
	Seq           int  `json:"seq"`
	Heat          int  `json:"heat"`
	Jam           int  `json:"jam"`
	Team1         int  `json:"team1"`
	Team2         int  `json:"team2"`
	LeadJammer    int  `json:"leadJammer"`
	Score1        int  `json:"score1"`
	Score2        int  `json:"score2"`
	TimeRemaining int  `json:"timeRemaining"`
	Completed     bool `json:"completed"`
}

type matchView struct {
	Name        string      `json:"name"`
	JamDuration int         `json:"jamDuration"`
	Unsaved     bool        `json:"unsaved"`
	Teams       []teamView  `json:"teams"`
	Heats       [][]jamView `json:"heats"`
}

type currentView struct {
	Jam     jamView `json:"jam"`
	Running bool    `json:"running"`
}

func newJamView(seq, heat, idx int, j *model.Jam) jamView {
	return jamView{
		Seq:           seq,
		Heat:          heat,
		Jam:           idx,
		Team1:         j.Team1,
		Team2:         j.Team2,
		LeadJammer:    j.LeadJammer,
		Score1:        j.Score1,
		Score2:        j.Score2,
		TimeRemaining: j.TimeRemaining,
		Completed:     j.Completed(),
	}
}

func newMatchView(m *model.Match, unsaved bool) matchView {
	v := matchView{Name: m.Name, JamDuration: m.JamDuration, Unsaved: unsaved}
	for i, t := range m.Teams {
		v.Teams = append(v.Teams, teamView{
			Index:            i,
			Number:           t.Number,
			Name:             t.Name,
			Abbreviation:     t.Abbreviation,
			Foreground:       model.Hex(t.Foreground),
			Background:       model.Hex(t.Background),
			PointsAdjustment: t.PointsAdjustment,
		})
	}
	seq := 0
	for h, heat := range m.Heats {
		jams := make([]jamView, 0, len(heat.Jams))
		for j, jam := range heat.Jams {
			jams = append(jams, newJamView(seq, h, j, jam))
			seq++
		}
		v.Heats = append(v.Heats, jams)
	}
	return v
}

type eventPayload struct {
	Standings []ranking.Standing `json:"standings"`
	Jam       *jamView           `json:"jam,omitempty"`
}

func eventMessage(ev control.Event) Message {
	p := eventPayload{Standings: ev.Standings}
	if ev.Jam != nil {
		heat, idx := locate(ev.Match, ev.Jam)
		if heat >= 0 {
			v := newJamView(ev.Match.Sequence(heat, idx), heat, idx, ev.Jam)
			p.Jam = &v
		}
	}
	return Message{Type: string(ev.Kind), Payload: p}
}

func locate(m *model.Match, jam *model.Jam) (heat, idx int) {
	for h, ht := range m.Heats {
		for j, candidate := range ht.Jams {
			if candidate == jam {
				return h, j
			}
		}
	}
	return -1, -1
}
