package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigYAML = `
match:
  name: "Summer Sur5al"
  teams: 6
  heats: 3
  jams: 9
  jam_duration: 90
  team_names: [Rollers, Blockers]

assign:
  teams_per_heat: 4
  timeout: 30s
  seed: 7

server:
  addr: ":9090"
  allowed_origins: ["https://scores.example.com"]
  autosave: false

archive:
  path: /tmp/sur5al.db

publish:
  account_id: abc123
  bucket: results
  public_base_url: https://results.example.com
  prefix: sur5al

log:
  level: debug
  format: json
`

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("match", func(t *testing.T) {
		m := cfg.Match
		if m.Name != "Summer Sur5al" {
			t.Errorf("name = %q, want %q", m.Name, "Summer Sur5al")
		}
		if m.Teams != 6 || m.Heats != 3 || m.Jams != 9 {
			t.Errorf("sizes = %d/%d/%d, want 6/3/9", m.Teams, m.Heats, m.Jams)
		}
		if m.JamDuration != 90 {
			t.Errorf("jam duration = %d, want 90", m.JamDuration)
		}
		if len(m.TeamNames) != 2 || m.TeamNames[1] != "Blockers" {
			t.Errorf("team names = %v, want [Rollers Blockers]", m.TeamNames)
		}
	})

	t.Run("assign", func(t *testing.T) {
		if cfg.Assign.TeamsPerHeat != 4 {
			t.Errorf("teams per heat = %d, want 4", cfg.Assign.TeamsPerHeat)
		}
		if cfg.Assign.Timeout.Duration != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", cfg.Assign.Timeout.Duration)
		}
		if cfg.Assign.Seed != 7 {
			t.Errorf("seed = %d, want 7", cfg.Assign.Seed)
		}
	})

	t.Run("server", func(t *testing.T) {
		if cfg.Server.Addr != ":9090" {
			t.Errorf("addr = %q, want %q", cfg.Server.Addr, ":9090")
		}
		if len(cfg.Server.AllowedOrigins) != 1 {
			t.Errorf("allowed origins = %v, want 1 entry", cfg.Server.AllowedOrigins)
		}
		if cfg.Server.Autosave {
			t.Error("autosave should be false")
		}
	})

	t.Run("publish", func(t *testing.T) {
		if !cfg.Publish.Enabled() {
			t.Error("publish should be enabled")
		}
		if cfg.Publish.Prefix != "sur5al" {
			t.Errorf("prefix = %q, want %q", cfg.Publish.Prefix, "sur5al")
		}
	})

	t.Run("log", func(t *testing.T) {
		if cfg.SlogLevel() != slog.LevelDebug {
			t.Errorf("level = %v, want debug", cfg.SlogLevel())
		}
		if cfg.Log.Format != "json" {
			t.Errorf("format = %q, want json", cfg.Log.Format)
		}
	})
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("match:\n  name: Cup\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Match.Teams != 15 || cfg.Match.Heats != 15 || cfg.Match.Jams != 105 {
		t.Errorf("sizes = %d/%d/%d, want 15/15/105", cfg.Match.Teams, cfg.Match.Heats, cfg.Match.Jams)
	}
	if cfg.Assign.Timeout.Duration != time.Minute {
		t.Errorf("timeout = %v, want 1m", cfg.Assign.Timeout.Duration)
	}
	if cfg.Publish.Enabled() {
		t.Error("publish should be disabled without a bucket")
	}
}

func TestStarterParses(t *testing.T) {
	if _, err := LoadFromBytes([]byte(Starter)); err != nil {
		t.Fatalf("starter config: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, "127.0.0.1:7000")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvAccessKeyID, "key")
	t.Setenv(EnvSecretAccessKey, "secret")

	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("level = %v, want warn", cfg.SlogLevel())
	}
	if cfg.Publish.AccessKeyID != "key" || cfg.Publish.SecretAccessKey != "secret" {
		t.Error("credentials should come from the environment")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"blank name", "match:\n  name: \" \"\n", "name must not be blank"},
		{"one team", "match:\n  teams: 1\nassign:\n  teams_per_heat: 2\n", "at least 2 teams"},
		{"no heats", "match:\n  heats: 0\n", "at least 1 heat"},
		{"fewer jams than heats", "match:\n  heats: 10\n  jams: 5\n", "one jam per heat"},
		{"zero duration", "match:\n  jam_duration: 0\n", "jam duration"},
		{"too many names", "match:\n  teams: 2\n  team_names: [A, B, C]\nassign:\n  teams_per_heat: 2\n", "3 team names given for 2 teams"},
		{"teams per heat", "assign:\n  teams_per_heat: 16\n", "teams per heat must be between 2 and 15"},
		{"bad timeout", "assign:\n  timeout: soon\n", "invalid duration"},
		{"bad level", "log:\n  level: loud\n", "invalid log level"},
		{"bad format", "log:\n  format: xml\n", "log format"},
		{"bucket without account", "publish:\n  bucket: results\n", "needs an account_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatsheet.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Match.Name != "Summer Sur5al" {
		t.Errorf("name = %q", cfg.Match.Name)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestNewMatch(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := cfg.NewMatch()
	if err != nil {
		t.Fatalf("NewMatch() error: %v", err)
	}
	if m.TotalTeams() != 6 || m.TotalJams() != 9 || m.JamDuration != 90 {
		t.Errorf("match sizes = %d teams, %d jams, %ds", m.TotalTeams(), m.TotalJams(), m.JamDuration)
	}
	if m.Teams[0].Name != "Rollers" || m.Teams[2].Name != "Team 3" {
		t.Errorf("team names = %q, %q", m.Teams[0].Name, m.Teams[2].Name)
	}
}
