package server

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/derekprior/heatsheet/internal/control"
	"github.com/derekprior/heatsheet/internal/render"
	"github.com/derekprior/heatsheet/internal/schedule"
)

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	v := newMatchView(s.ctrl.Match(), s.ctrl.Unsaved())
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) getStandings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	standings := s.ctrl.Standings()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, standings)
}

func (s *Server) getStandingsImage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	s.mu.Lock()
	err := render.WritePNG(&buf, s.ctrl.Match(), s.ctrl.Standings())
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) getDistribution(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d := schedule.Distribute(s.ctrl.Match())
	s.mu.Unlock()

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, d.String())
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) postAssign(w http.ResponseWriter, r *http.Request) {
	input := struct {
		TeamsPerHeat int `json:"teamsPerHeat"`
	}{TeamsPerHeat: s.opts.TeamsPerHeat}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			s.badRequest(w, err)
			return
		}
	}

	s.mu.Lock()
	result, err := s.ctrl.AutoAssign(r.Context(), input.TeamsPerHeat)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		"attempts":  result.Attempts,
		"spread":    result.Spread,
		"elapsedMs": result.Elapsed.Milliseconds(),
	})
}

// current writes the selected jam. The caller holds s.mu.
func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	jam, sel, err := s.ctrl.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, currentView{
		Jam:     newJamView(sel.Sequence, sel.Heat, sel.Jam, jam),
		Running: s.running,
	})
}

func (s *Server) getCurrentJam(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current(w, r)
}

func (s *Server) postSelect(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Heat *int   `json:"heat"`
		Jam  *int   `json:"jam"`
		Move string `json:"move"`
	}
	if err := readJSON(w, r, &input); err != nil {
		s.badRequest(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case input.Move == "next":
		s.ctrl.Next()
	case input.Move == "prev":
		s.ctrl.Prev()
	case input.Move != "":
		s.badRequest(w, fmt.Errorf("move must be next or prev, got %q", input.Move))
		return
	case input.Heat != nil && input.Jam != nil:
		if err := s.ctrl.Select(*input.Heat, *input.Jam); err != nil {
			s.fail(w, r, err)
			return
		}
	case input.Heat != nil:
		if err := s.ctrl.SelectHeat(*input.Heat); err != nil {
			s.fail(w, r, err)
			return
		}
	default:
		s.badRequest(w, fmt.Errorf("body needs a move or a heat"))
		return
	}
	s.current(w, r)
}

func (s *Server) postScore(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Side  int   `json:"side"`
		Score *int  `json:"score"`
		Delta *int  `json:"delta"`
		Lead  *bool `json:"lead"`
	}
	if err := readJSON(w, r, &input); err != nil {
		s.badRequest(w, err)
		return
	}
	side := control.Side(input.Side)
	if side != control.Team1 && side != control.Team2 {
		s.badRequest(w, fmt.Errorf("side must be 1 or 2, got %d", input.Side))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if input.Score != nil {
		_, err = s.ctrl.SetScore(side, *input.Score)
	}
	if err == nil && input.Delta != nil {
		_, err = s.ctrl.AdjustScore(side, *input.Delta)
	}
	if err == nil && input.Lead != nil {
		_, err = s.ctrl.SetLeadJammer(side, *input.Lead)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.current(w, r)
}

func (s *Server) putJam(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		s.badRequest(w, fmt.Errorf("jam sequence must be a number"))
		return
	}
	var input struct {
		Team1         *int `json:"team1"`
		Team2         *int `json:"team2"`
		LeadJammer    *int `json:"leadJammer"`
		Score1        *int `json:"score1"`
		Score2        *int `json:"score2"`
		TimeRemaining *int `json:"timeRemaining"`
	}
	if err := readJSON(w, r, &input); err != nil {
		s.badRequest(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.ctrl.Match()
	jam := m.Jam(seq)
	if jam == nil {
		s.fail(w, r, fmt.Errorf("jam %d: %w", seq, control.ErrNoJam))
		return
	}
	pick := func(v *int, current int) int {
		if v != nil {
			return *v
		}
		return current
	}
	_, err = s.ctrl.UpdateJam(seq,
		pick(input.Team1, jam.Team1),
		pick(input.Team2, jam.Team2),
		pick(input.LeadJammer, jam.LeadJammer),
		pick(input.Score1, jam.Score1),
		pick(input.Score2, jam.Score2),
		pick(input.TimeRemaining, jam.TimeRemaining),
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	heat, idx, _ := m.Locate(seq)
	s.writeJSON(w, http.StatusOK, newJamView(seq, heat, idx, jam))
}

func (s *Server) postClockStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startClock(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.current(w, r)
}

func (s *Server) postClockStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.autosave()
	s.current(w, r)
}

func (s *Server) postClockReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if _, err := s.ctrl.ResetTime(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.current(w, r)
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, "*") {
				return true
			}
			return slices.Contains(s.opts.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// serveWs upgrades the connection, queues the current standings and
// registers the client with the hub.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{hub: s.hub, conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	ev := control.Event{Kind: control.EventLoad, Match: s.ctrl.Match(), Standings: s.ctrl.Standings()}
	s.mu.Unlock()
	msg := eventMessage(ev)
	msg.Type = "snapshot"
	s.hub.queueTo(client, msg)

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
