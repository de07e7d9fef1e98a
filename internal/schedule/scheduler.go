package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/derekprior/heatsheet/internal/model"
)

// DefaultTimeout bounds the balancing retry loop.
const DefaultTimeout = 60 * time.Second

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("auto-assign timed out")

// TimeoutError reports a balancing run that never reached the tolerance.
// The last attempt is left installed in the match.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("couldn't create a perfect distribution after %s (%d attempts); "+
		"if retrying doesn't work, try increasing the number of teams per heat",
		e.Elapsed.Round(time.Second), e.Attempts)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Options controls an auto-assign run. Zero values pick the defaults.
type Options struct {
	TeamsPerHeat int
	Rand         *rand.Rand
	Timeout      time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Result describes an accepted assignment.
type Result struct {
	Attempts int
	Spread   int
	Elapsed  time.Duration
}

// AutoAssign rewrites every jam's teams so that pairwise matchup counts
// differ by at most one. Options are validated before the match is touched.
// At least one attempt is always made. On timeout or cancellation the last
// attempt stays installed and the partial Result is returned alongside the
// error.
func AutoAssign(ctx context.Context, m *model.Match, opts Options) (*Result, error) {
	total := m.TotalTeams()
	switch {
	case opts.TeamsPerHeat > total:
		return nil, model.Invalidf("Teams per heat cannot exceed the total number of teams (%d).", total)
	case opts.TeamsPerHeat < 2:
		return nil, model.Invalidf("Must have at least two teams per heat.")
	}

	a := newAssigner(m, opts)
	return a.run(ctx)
}

type assigner struct {
	match   *model.Match
	perHeat int
	rng     *rand.Rand
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	// per-attempt counters, indexed by team
	vs      [][]int
	jams    []int
	lastJam []int
	heatVs  []int
}

func newAssigner(m *model.Match, opts Options) *assigner {
	a := &assigner{
		match:   m,
		perHeat: opts.TeamsPerHeat,
		rng:     opts.Rand,
		timeout: opts.Timeout,
		now:     opts.Now,
		log:     opts.Logger,
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a
}

func (a *assigner) run(ctx context.Context) (*Result, error) {
	start := a.now()
	attempts := 0

	for {
		elapsed := a.now().Sub(start)
		if err := ctx.Err(); err != nil {
			return &Result{Attempts: attempts, Spread: Spread(a.vs), Elapsed: elapsed}, err
		}
		if attempts > 0 && elapsed > a.timeout {
			a.log.Warn("auto-assign gave up", "attempts", attempts, "elapsed", elapsed)
			return &Result{Attempts: attempts, Spread: Spread(a.vs), Elapsed: elapsed},
				&TimeoutError{Attempts: attempts, Elapsed: elapsed}
		}

		a.attempt()
		attempts++

		spread := Spread(a.vs)
		a.log.Debug("auto-assign attempt", "attempt", attempts, "spread", spread)
		if spread <= 1 {
			a.canonicalize()
			return &Result{Attempts: attempts, Spread: spread, Elapsed: a.now().Sub(start)}, nil
		}
	}
}

func (a *assigner) reset() {
	n := a.match.TotalTeams()
	a.vs = make([][]int, n)
	for i := range a.vs {
		a.vs[i] = make([]int, n)
	}
	a.jams = make([]int, n)
	a.lastJam = make([]int, n)
	for i := range a.lastJam {
		a.lastJam[i] = -1
	}
	a.heatVs = make([]int, n)
}

// attempt builds one complete assignment with fresh counters.
func (a *assigner) attempt() {
	a.reset()
	seq := 0

	for _, heat := range a.match.Heats {
		teams := a.pickHeatTeams()

		for _, t := range teams {
			a.heatVs[t] = 0
			for _, o := range teams {
				a.heatVs[t] += a.vs[t][o]
			}
		}

		for _, jam := range heat.Jams {
			team1 := a.pick(teams, func(t int) int { return a.heatVs[t] })

			rest := make([]int, 0, len(teams)-1)
			for _, t := range teams {
				if t != team1 {
					rest = append(rest, t)
				}
			}
			team2 := a.pick(rest, func(t int) int { return a.vs[team1][t] })

			jam.Team1 = team1
			jam.Team2 = team2
			jam.Reset(a.match.JamDuration)
			a.record(team1, team2, seq)
			seq++
		}
	}
}

// pickHeatTeams chooses the heat's subset: a seed with the fewest jams, then
// the teams that have met the chosen ones least.
func (a *assigner) pickHeatTeams() []int {
	all := make([]int, a.match.TotalTeams())
	for i := range all {
		all[i] = i
	}

	seed := a.choose(lowest(all, func(t int) int { return a.jams[t] }))
	chosen := []int{seed}
	in := map[int]bool{seed: true}

	for len(chosen) < a.perHeat {
		var candidates []int
		for _, t := range all {
			if !in[t] {
				candidates = append(candidates, t)
			}
		}
		next := a.pick(candidates, func(t int) int {
			sum := 0
			for _, o := range chosen {
				sum += a.vs[t][o]
			}
			return sum
		})
		chosen = append(chosen, next)
		in[next] = true
	}
	return chosen
}

// pick narrows candidates by the primary key, then most idle, then fewest
// jams, and breaks any remaining tie at random.
func (a *assigner) pick(candidates []int, primary func(int) int) int {
	candidates = lowest(candidates, primary)
	candidates = lowest(candidates, func(t int) int { return a.lastJam[t] })
	candidates = lowest(candidates, func(t int) int { return a.jams[t] })
	return a.choose(candidates)
}

func (a *assigner) choose(candidates []int) int {
	return candidates[a.rng.Intn(len(candidates))]
}

func (a *assigner) record(team1, team2, seq int) {
	a.vs[team1][team2]++
	a.vs[team2][team1]++
	a.jams[team1]++
	a.jams[team2]++
	a.lastJam[team1] = seq
	a.lastJam[team2] = seq
	a.heatVs[team1]++
	a.heatVs[team2]++
}

// canonicalize swaps team identities match-wide so that teams first appear
// in number order, removing the randomness from which team got which slot.
func (a *assigner) canonicalize() {
	jams := a.match.Jams()
	for team := 0; team < a.match.TotalTeams(); team++ {
		other := model.NoTeam
		for _, j := range jams {
			if j.Team1 >= team {
				other = j.Team1
				break
			}
			if j.Team2 >= team {
				other = j.Team2
				break
			}
		}
		if other == model.NoTeam || other == team {
			continue
		}
		for _, j := range jams {
			j.Team1 = swap(j.Team1, team, other)
			j.Team2 = swap(j.Team2, team, other)
		}
	}
}

func swap(v, a, b int) int {
	switch v {
	case a:
		return b
	case b:
		return a
	}
	return v
}

// lowest returns the candidates sharing the minimum value, in input order.
func lowest(candidates []int, value func(int) int) []int {
	var out []int
	best := 0
	for _, c := range candidates {
		v := value(c)
		switch {
		case len(out) == 0 || v < best:
			best = v
			out = append(out[:0], c)
		case v == best:
			out = append(out, c)
		}
	}
	return out
}
