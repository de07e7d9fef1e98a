package control

import (
	"fmt"

	"github.com/derekprior/heatsheet/internal/model"
)

// Selection identifies the selected jam.
type Selection struct {
	Heat     int
	Jam      int
	Sequence int
}

// Current returns the selected jam and its position.
func (c *Controller) Current() (*model.Jam, Selection, error) {
	jam := c.match.JamAt(c.heat, c.jam)
	if jam == nil {
		return nil, Selection{}, fmt.Errorf("heat %d jam %d: %w", c.heat+1, c.jam+1, ErrNoJam)
	}
	return jam, Selection{Heat: c.heat, Jam: c.jam, Sequence: c.match.Sequence(c.heat, c.jam)}, nil
}

// Select moves the cursor to a heat and jam, both zero-based.
func (c *Controller) Select(heat, jam int) error {
	if c.match.JamAt(heat, jam) == nil {
		return fmt.Errorf("heat %d jam %d: %w", heat+1, jam+1, ErrNoJam)
	}
	if heat == c.heat && jam == c.jam {
		return nil
	}
	c.heat, c.jam = heat, jam
	c.publish(EventSelect, c.match.JamAt(heat, jam))
	return nil
}

// SelectHeat moves to another heat, keeping the jam position where that heat
// has one and otherwise taking its last jam.
func (c *Controller) SelectHeat(heat int) error {
	if heat < 0 || heat >= c.match.TotalHeats() {
		return fmt.Errorf("heat %d: %w", heat+1, ErrNoJam)
	}
	jam := min(c.jam, len(c.match.Heats[heat].Jams)-1)
	return c.Select(heat, jam)
}

// Next moves to the following jam, crossing into the next heat. It reports
// false at the last jam of the match.
func (c *Controller) Next() bool {
	switch {
	case c.match.JamAt(c.heat, c.jam+1) != nil:
		c.jam++
	case c.match.JamAt(c.heat+1, 0) != nil:
		c.heat++
		c.jam = 0
	default:
		return false
	}
	c.publish(EventSelect, c.match.JamAt(c.heat, c.jam))
	return true
}

// Prev moves to the preceding jam, crossing into the previous heat. It
// reports false at the first jam of the match.
func (c *Controller) Prev() bool {
	switch {
	case c.jam > 0:
		c.jam--
	case c.heat > 0:
		c.heat--
		c.jam = len(c.match.Heats[c.heat].Jams) - 1
	default:
		return false
	}
	c.publish(EventSelect, c.match.JamAt(c.heat, c.jam))
	return true
}

// clampSelection moves the cursor back to the first jam when a structural
// change removed the selected one.
func (c *Controller) clampSelection() {
	if c.match.JamAt(c.heat, c.jam) == nil {
		c.heat, c.jam = 0, 0
	}
}

// SetScore sets one side's score on the selected jam.
func (c *Controller) SetScore(side Side, score int) (bool, error) {
	jam, _, err := c.Current()
	if err != nil {
		return false, err
	}
	s1, s2 := jam.Score1, jam.Score2
	switch side {
	case Team1:
		s1 = score
	case Team2:
		s2 = score
	default:
		return false, model.Invalidf("Invalid side: %d", side)
	}
	return c.apply(jam, jam.Team1, jam.Team2, jam.LeadJammer, s1, s2, jam.TimeRemaining)
}

// AdjustScore adds delta to one side's score, stopping at zero.
func (c *Controller) AdjustScore(side Side, delta int) (bool, error) {
	jam, _, err := c.Current()
	if err != nil {
		return false, err
	}
	switch side {
	case Team1:
		return c.SetScore(side, max(jam.Score1+delta, 0))
	case Team2:
		return c.SetScore(side, max(jam.Score2+delta, 0))
	}
	return false, model.Invalidf("Invalid side: %d", side)
}

// SetLeadJammer awards or withdraws lead jammer for one side of the selected jam.
func (c *Controller) SetLeadJammer(side Side, lead bool) (bool, error) {
	jam, _, err := c.Current()
	if err != nil {
		return false, err
	}
	team := jam.Team1
	if side == Team2 {
		team = jam.Team2
	}
	if lead && team == model.NoTeam {
		return false, model.Invalidf("Lead jammer can't be set without both teams being set.")
	}

	next := jam.LeadJammer
	switch {
	case lead:
		next = team
	case jam.LeadJammer == team:
		next = model.NoTeam
	}
	return c.apply(jam, jam.Team1, jam.Team2, next, jam.Score1, jam.Score2, jam.TimeRemaining)
}

// SetTimeRemaining sets the selected jam's clock in seconds.
func (c *Controller) SetTimeRemaining(seconds int) (bool, error) {
	jam, _, err := c.Current()
	if err != nil {
		return false, err
	}
	return c.apply(jam, jam.Team1, jam.Team2, jam.LeadJammer, jam.Score1, jam.Score2, seconds)
}

// ResetTime puts the selected jam's clock back to the match's jam duration.
func (c *Controller) ResetTime() (bool, error) {
	return c.SetTimeRemaining(c.match.JamDuration)
}

// Tick takes one second off the selected jam's clock. It reports whether
// time is left afterwards and is a no-op once the clock reaches zero.
func (c *Controller) Tick() (bool, error) {
	jam, _, err := c.Current()
	if err != nil {
		return false, err
	}
	if jam.TimeRemaining == 0 {
		return false, nil
	}
	if _, err := c.SetTimeRemaining(jam.TimeRemaining - 1); err != nil {
		return false, err
	}
	return jam.TimeRemaining > 0, nil
}

func (c *Controller) apply(jam *model.Jam, team1, team2, lead, score1, score2, timeRemaining int) (bool, error) {
	changed, err := c.match.UpdateJam(jam, team1, team2, lead, score1, score2, timeRemaining)
	if err != nil || !changed {
		return false, err
	}
	c.log.Debug("jam updated", "heat", c.heat+1, "jam", c.jam+1,
		"score1", jam.Score1, "score2", jam.Score2, "time", jam.TimeRemaining)
	c.jamChanged(jam)
	return true, nil
}
