package control

import (
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
)

// EventKind says what kind of edit produced an Event.
type EventKind string

const (
	EventMatch  EventKind = "match"
	EventTeam   EventKind = "team"
	EventHeat   EventKind = "heat"
	EventAssign EventKind = "assign"
	EventJam    EventKind = "jam"
	EventSelect EventKind = "select"
	EventLoad   EventKind = "load"
)

// Event describes the state after an edit. Jam is set for jam and
// selection events.
type Event struct {
	Kind      EventKind
	Match     *model.Match
	Standings []ranking.Standing
	Jam       *model.Jam
	Heat      int
	Index     int
}

// Listener receives events synchronously, after the edit has been applied
// and before the editing call returns.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.order = append(c.order, id)
	return func() {
		if _, ok := c.listeners[id]; !ok {
			return
		}
		delete(c.listeners, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i:i], c.order[i+1:]...)
				break
			}
		}
	}
}

func (c *Controller) publish(kind EventKind, jam *model.Jam) {
	if len(c.listeners) == 0 {
		return
	}
	ev := Event{
		Kind:      kind,
		Match:     c.match,
		Standings: c.standings.Snapshot(c.match),
		Jam:       jam,
		Heat:      c.heat,
		Index:     c.jam,
	}

	for _, id := range append([]int(nil), c.order...) {
		if l, ok := c.listeners[id]; ok {
			l(ev)
		}
	}
}
