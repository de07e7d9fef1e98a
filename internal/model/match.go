package model

import (
	"strings"
)

// Defaults for a freshly created match.
const (
	DefaultName        = "New match"
	DefaultTeams       = 15
	DefaultHeats       = 15
	DefaultJams        = 105
	DefaultJamDuration = 120
)

// Match is the whole tournament. Teams are an arena: jams, rankings and
// standings refer to a team by its index into Teams.
type Match struct {
	Name         string
	Teams        []*Team
	Heats        []*Heat
	JamDuration  int
	SaveFilePath string
}

// New returns a match with the default name, sizes and jam duration.
func New() *Match {
	m := &Match{Name: DefaultName, JamDuration: DefaultJamDuration}
	m.SetNumTeams(DefaultTeams)
	m.SetNumHeats(DefaultHeats)
	m.SetNumJams(DefaultJams)
	return m
}

// NewSized returns a match with the given sizes, validated the same way as Configure.
func NewSized(name string, teams, heats, jams, duration int) (*Match, error) {
	if err := validateStructure(name, teams, heats, jams, duration); err != nil {
		return nil, err
	}
	m := &Match{Name: strings.TrimSpace(name), JamDuration: duration}
	m.SetNumTeams(teams)
	m.SetNumHeats(heats)
	m.SetNumJams(jams)
	return m, nil
}

func (m *Match) TotalTeams() int { return len(m.Teams) }
func (m *Match) TotalHeats() int { return len(m.Heats) }

func (m *Match) TotalJams() int {
	n := 0
	for _, h := range m.Heats {
		n += len(h.Jams)
	}
	return n
}

// Team returns the team at index, or nil when the index is out of range.
func (m *Match) Team(index int) *Team {
	if index < 0 || index >= len(m.Teams) {
		return nil
	}
	return m.Teams[index]
}

// Jams returns every jam in heat order then jam order.
func (m *Match) Jams() []*Jam {
	jams := make([]*Jam, 0, m.TotalJams())
	for _, h := range m.Heats {
		jams = append(jams, h.Jams...)
	}
	return jams
}

// Jam returns the jam with the given match-wide sequence number, or nil.
func (m *Match) Jam(seq int) *Jam {
	heat, jam, ok := m.Locate(seq)
	if !ok {
		return nil
	}
	return m.Heats[heat].Jams[jam]
}

// JamAt returns the jam by heat and in-heat position, or nil.
func (m *Match) JamAt(heat, jam int) *Jam {
	if heat < 0 || heat >= len(m.Heats) {
		return nil
	}
	jams := m.Heats[heat].Jams
	if jam < 0 || jam >= len(jams) {
		return nil
	}
	return jams[jam]
}

// Locate converts a match-wide sequence number into heat and jam positions.
func (m *Match) Locate(seq int) (heat, jam int, ok bool) {
	if seq < 0 {
		return 0, 0, false
	}
	for h, ht := range m.Heats {
		if seq < len(ht.Jams) {
			return h, seq, true
		}
		seq -= len(ht.Jams)
	}
	return 0, 0, false
}

// Sequence converts heat and jam positions into a match-wide sequence number.
func (m *Match) Sequence(heat, jam int) int {
	seq := jam
	for h := 0; h < heat && h < len(m.Heats); h++ {
		seq += len(m.Heats[h].Jams)
	}
	return seq
}

// SetNumTeams appends default teams or drops the highest-numbered ones.
// Jams that referenced a dropped team lose it and are reset.
func (m *Match) SetNumTeams(n int) {
	current := len(m.Teams)
	for i := current; i < n; i++ {
		m.Teams = append(m.Teams, newTeam(i))
	}
	if n >= current {
		return
	}

	m.Teams = m.Teams[:n]
	for _, h := range m.Heats {
		for _, j := range h.Jams {
			removed := false
			if j.Team1 >= n {
				j.Team1 = NoTeam
				removed = true
			}
			if j.Team2 >= n {
				j.Team2 = NoTeam
				removed = true
			}
			if removed {
				j.Reset(m.JamDuration)
			}
		}
	}
}

// SetNumHeats redistributes the existing jams, in order, over n heats.
// The first len%n heats receive one extra jam.
func (m *Match) SetNumHeats(n int) {
	all := m.Jams()
	per := len(all) / n
	extra := len(all) % n

	heats := make([]*Heat, n)
	next := 0
	for h := range heats {
		size := per
		if h < extra {
			size++
		}
		heats[h] = &Heat{Jams: append([]*Jam(nil), all[next:next+size]...)}
		next += size
	}
	m.Heats = heats
}

// SetNumJams adds or removes jams round-robin across the heats so that heat
// sizes never differ by more than one.
func (m *Match) SetNumJams(n int) {
	if len(m.Heats) == 0 {
		return
	}
	current := m.TotalJams()
	heats := len(m.Heats)

	for x := current; x < n; x++ {
		h := m.Heats[x%heats]
		h.Jams = append(h.Jams, NewJam(m.JamDuration))
	}
	for x := current; x > n; x-- {
		h := m.Heats[(x-1)%heats]
		h.Jams = h.Jams[:len(h.Jams)-1]
	}
}

// SetJamDuration changes the default duration. Jams still at the old
// default, or longer than the new one, are moved to the new duration.
func (m *Match) SetJamDuration(d int) {
	for _, j := range m.Jams() {
		if j.TimeRemaining == m.JamDuration || j.TimeRemaining > d {
			j.TimeRemaining = d
		}
	}
	m.JamDuration = d
}

func validateStructure(name string, teams, heats, jams, duration int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return Invalidf("Match name must not be blank.")
	case teams < 2:
		return Invalidf("Number of teams must be greater than one.")
	case heats < 1:
		return Invalidf("Number of heats must be greater than zero.")
	case jams < heats:
		return Invalidf("Number of jams must be at least one per heat.")
	case duration < 1:
		return Invalidf("Jam duration can't be less than one second.")
	}
	return nil
}

// Configure validates and applies a structural update, reporting whether
// anything changed. Nothing is modified when validation fails.
func (m *Match) Configure(name string, teams, heats, jams, duration int) (bool, error) {
	if err := validateStructure(name, teams, heats, jams, duration); err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)

	changed := false
	if name != m.Name {
		m.Name = name
		changed = true
	}
	if teams != m.TotalTeams() {
		m.SetNumTeams(teams)
		changed = true
	}
	if heats != m.TotalHeats() {
		m.SetNumHeats(heats)
		changed = true
	}
	if jams != m.TotalJams() {
		m.SetNumJams(jams)
		changed = true
	}
	if duration != m.JamDuration {
		m.SetJamDuration(duration)
		changed = true
	}
	return changed, nil
}

// ValidateJam checks a proposed jam state against this match without applying it.
func (m *Match) ValidateJam(team1, team2, lead, score1, score2, timeRemaining int) error {
	for _, t := range []int{team1, team2, lead} {
		if t != NoTeam && m.Team(t) == nil {
			return Invalidf("Invalid team index: %d", t)
		}
	}
	switch {
	case team1 != NoTeam && team1 == team2:
		return Invalidf("A team can't play against itself.")
	case lead != NoTeam && (team1 == NoTeam || team2 == NoTeam):
		return Invalidf("Lead jammer can't be set without both teams being set.")
	case lead != NoTeam && lead != team1 && lead != team2:
		return Invalidf("Lead jammer must be one of the jam's teams.")
	case score1 < 0:
		return Invalidf("Team 1 score can't be negative.")
	case score2 < 0:
		return Invalidf("Team 2 score can't be negative.")
	case timeRemaining < 0:
		return Invalidf("Time remaining can't be negative.")
	}
	return nil
}

// UpdateJam validates and applies a full jam edit, reporting whether anything changed.
func (m *Match) UpdateJam(j *Jam, team1, team2, lead, score1, score2, timeRemaining int) (bool, error) {
	if err := m.ValidateJam(team1, team2, lead, score1, score2, timeRemaining); err != nil {
		return false, err
	}

	next := Jam{
		Team1:         team1,
		Team2:         team2,
		LeadJammer:    lead,
		Score1:        score1,
		Score2:        score2,
		TimeRemaining: timeRemaining,
	}
	if *j == next {
		return false, nil
	}
	*j = next
	return true, nil
}

// AssignHeat sets the teams of every jam in a heat. Jams whose teams change
// are reset. It returns the sequence numbers of the changed jams.
func (m *Match) AssignHeat(heat int, team1s, team2s []int) ([]int, error) {
	if heat < 0 || heat >= len(m.Heats) {
		return nil, Invalidf("Invalid heat number: %d", heat)
	}
	jams := m.Heats[heat].Jams
	if len(team1s) != len(jams) {
		return nil, Invalidf("Heat %d has %d jams but %d team 1 entries were given.", heat+1, len(jams), len(team1s))
	}
	if len(team2s) != len(jams) {
		return nil, Invalidf("Heat %d has %d jams but %d team 2 entries were given.", heat+1, len(jams), len(team2s))
	}
	for i := range jams {
		for _, t := range []int{team1s[i], team2s[i]} {
			if t != NoTeam && m.Team(t) == nil {
				return nil, Invalidf("Invalid team index: %d", t)
			}
		}
		if team1s[i] != NoTeam && team1s[i] == team2s[i] {
			return nil, Invalidf("A team can't play against itself.")
		}
	}

	var changed []int
	base := m.Sequence(heat, 0)
	for i, j := range jams {
		if j.Team1 == team1s[i] && j.Team2 == team2s[i] {
			continue
		}
		j.Team1 = team1s[i]
		j.Team2 = team2s[i]
		j.Reset(m.JamDuration)
		changed = append(changed, base+i)
	}
	return changed, nil
}
