package validator

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/savefile"
	"github.com/derekprior/heatsheet/internal/schedule"
)

func testMatch(t *testing.T, teams, heats, jams int) *model.Match {
	t.Helper()
	m, err := model.NewSized("Audit", teams, heats, jams, 120)
	if err != nil {
		t.Fatalf("NewSized() error: %v", err)
	}
	return m
}

// assign sets the teams of every jam in order.
func assign(m *model.Match, pairs ...[2]int) {
	for i, j := range m.Jams() {
		if i >= len(pairs) {
			return
		}
		j.Team1, j.Team2 = pairs[i][0], pairs[i][1]
	}
}

func find(violations []Violation, typ, fragment string) *Violation {
	for i, v := range violations {
		if v.Type == typ && strings.Contains(v.Message, fragment) {
			return &violations[i]
		}
	}
	return nil
}

func TestValidateAutoAssignedMatch(t *testing.T) {
	m := testMatch(t, 6, 3, 18)
	_, err := schedule.AutoAssign(context.Background(), m, schedule.Options{
		TeamsPerHeat: 6,
		Rand:         rand.New(rand.NewSource(42)),
		Timeout:      time.Minute,
	})
	if err != nil {
		t.Fatalf("AutoAssign() error: %v", err)
	}

	violations := Validate(m)

	t.Run("no hard constraint violations", func(t *testing.T) {
		for _, v := range violations {
			if v.Type == "error" {
				t.Errorf("hard violation: %s", v.Message)
			}
		}
	})

	t.Run("balanced", func(t *testing.T) {
		for _, fragment := range []string{"matchup imbalance", "missing a team", "no jams scheduled"} {
			if v := find(violations, "warning", fragment); v != nil {
				t.Errorf("unexpected warning: %s", v.Message)
			}
		}
	})
}

func TestCheckTeamRefs(t *testing.T) {
	m := testMatch(t, 3, 1, 2)
	assign(m, [2]int{0, 7}, [2]int{1, 2})

	v := Validate(m)
	got := find(v, "error", "team index 7")
	if got == nil {
		t.Fatalf("expected an invalid reference error, got %v", v)
	}
	if got.Jam != 1 {
		t.Errorf("jam = %d, want 1", got.Jam)
	}
	if find(v, "warning", "") != nil {
		t.Error("balance checks should be skipped when references are invalid")
	}
}

func TestCheckSelfPlay(t *testing.T) {
	m := testMatch(t, 3, 1, 2)
	assign(m, [2]int{1, 1}, [2]int{0, 2})

	v := checkSelfPlay(m, readJams(m))
	if len(v) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(v), v)
	}
	if v[0].Type != "error" || !strings.Contains(v[0].Message, "Team 2 plays against itself") {
		t.Errorf("violation = %+v", v[0])
	}
}

func TestCheckLeadJammer(t *testing.T) {
	m := testMatch(t, 3, 1, 2)
	assign(m, [2]int{0, 1}, [2]int{1, model.NoTeam})

	t.Run("lead from the jam is fine", func(t *testing.T) {
		m.Jam(0).LeadJammer = 1
		if v := checkLeadJammer(m, readJams(m)); len(v) != 0 {
			t.Errorf("expected 0 violations, got %v", v)
		}
	})

	t.Run("lead from another team", func(t *testing.T) {
		m.Jam(0).LeadJammer = 2
		v := checkLeadJammer(m, readJams(m))
		if len(v) != 1 || v[0].Jam != 1 {
			t.Errorf("expected 1 violation on jam 1, got %v", v)
		}
		m.Jam(0).LeadJammer = model.NoTeam
	})

	t.Run("lead without both teams", func(t *testing.T) {
		m.Jam(1).LeadJammer = 1
		v := checkLeadJammer(m, readJams(m))
		if len(v) != 1 || v[0].Jam != 2 {
			t.Errorf("expected 1 violation on jam 2, got %v", v)
		}
	})
}

func TestCheckScores(t *testing.T) {
	m := testMatch(t, 2, 1, 3)
	m.Jam(0).Score1 = -1
	m.Jam(1).TimeRemaining = -5
	m.Jam(2).TimeRemaining = 500

	v := checkScores(m, readJams(m))
	if find(v, "error", "negative score") == nil {
		t.Error("expected negative score error")
	}
	if find(v, "error", "negative time") == nil {
		t.Error("expected negative time error")
	}
	if find(v, "warning", "more than the 120s") == nil {
		t.Error("expected overlong time warning")
	}
}

func TestCheckHeatSizes(t *testing.T) {
	m := testMatch(t, 2, 2, 4)
	if v := checkHeatSizes(m); len(v) != 0 {
		t.Errorf("expected 0 violations, got %v", v)
	}

	m.Heats[0].Jams = append(m.Heats[0].Jams, model.NewJam(120), model.NewJam(120))
	v := checkHeatSizes(m)
	if len(v) != 1 || v[0].Type != "error" {
		t.Fatalf("expected 1 error, got %v", v)
	}
	if !strings.Contains(v[0].Message, "min 2, max 4") {
		t.Errorf("message = %q", v[0].Message)
	}
}

func TestCheckUnassigned(t *testing.T) {
	m := testMatch(t, 4, 1, 3)
	assign(m, [2]int{0, 1})

	v := checkUnassigned(readJams(m))
	if len(v) != 1 || v[0].Message != "2 of 3 jams are missing a team" {
		t.Errorf("got %v", v)
	}
}

func TestCheckUnscheduledTeams(t *testing.T) {
	m := testMatch(t, 3, 1, 1)
	assign(m, [2]int{0, 1})

	v := checkUnscheduledTeams(m, readJams(m))
	if len(v) != 1 || v[0].Message != "Team 3 has no jams scheduled" {
		t.Errorf("got %v", v)
	}
}

func TestCheckMatchupSpread(t *testing.T) {
	t.Run("even round robin", func(t *testing.T) {
		m := testMatch(t, 3, 1, 3)
		assign(m, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0})
		if v := checkMatchupSpread(m); len(v) != 0 {
			t.Errorf("expected 0 warnings, got %v", v)
		}
	})

	t.Run("same pair three times", func(t *testing.T) {
		m := testMatch(t, 3, 1, 3)
		assign(m, [2]int{0, 1}, [2]int{1, 0}, [2]int{0, 1})
		v := checkMatchupSpread(m)
		if len(v) != 1 {
			t.Fatalf("expected 1 warning, got %v", v)
		}
		if v[0].Message != "matchup imbalance: pairs meet between 0 and 3 times" {
			t.Errorf("message = %q", v[0].Message)
		}
	})
}

func TestCheckJamBalance(t *testing.T) {
	m := testMatch(t, 4, 1, 3)
	assign(m, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 1})

	v := checkJamBalance(m, readJams(m))
	if len(v) != 1 || !strings.Contains(v[0].Message, "min 0, max 3") {
		t.Errorf("got %v", v)
	}
}

func TestCheckBackToBack(t *testing.T) {
	m := testMatch(t, 4, 2, 4)
	// Jams 2 and 3 cross the heat boundary and still count.
	assign(m, [2]int{0, 1}, [2]int{2, 3}, [2]int{3, 0}, [2]int{1, 2})

	v := checkBackToBack(m, readJams(m))
	if len(v) != 1 {
		t.Fatalf("expected 1 warning, got %v", v)
	}
	if v[0].Jam != 3 || v[0].Message != "Team 4 plays back-to-back jams 2 and 3" {
		t.Errorf("violation = %+v", v[0])
	}
}

func TestCount(t *testing.T) {
	errs, warns := Count([]Violation{{Type: "error"}, {Type: "warning"}, {Type: "warning"}})
	if errs != 1 || warns != 2 {
		t.Errorf("Count() = %d, %d, want 1, 2", errs, warns)
	}
}

func TestValidateFile(t *testing.T) {
	m := testMatch(t, 3, 1, 2)
	assign(m, [2]int{0, 1}, [2]int{0, 2})
	path := filepath.Join(t.TempDir(), "match.csv")
	if err := savefile.Save(path, m); err != nil {
		t.Fatal(err)
	}

	violations, warnings, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected load warnings: %v", warnings)
	}
	if find(violations, "warning", "Team 1 plays back-to-back jams 1 and 2") == nil {
		t.Errorf("expected back-to-back warning, got %v", violations)
	}

	if _, _, err := ValidateFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for a missing file")
	}
}
