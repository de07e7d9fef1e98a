package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/heatsheet/internal/model"
)

// Environment variables that override the file.
const (
	EnvAddr            = "HEATSHEET_ADDR"
	EnvLogLevel        = "HEATSHEET_LOG_LEVEL"
	EnvAccessKeyID     = "HEATSHEET_R2_ACCESS_KEY_ID"
	EnvSecretAccessKey = "HEATSHEET_R2_SECRET_ACCESS_KEY"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "heatsheet.yaml"

// Duration is a wrapper around time.Duration for YAML parsing ("90s", "2m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

type Match struct {
	Name        string   `yaml:"name"`
	Teams       int      `yaml:"teams"`
	Heats       int      `yaml:"heats"`
	Jams        int      `yaml:"jams"`
	JamDuration int      `yaml:"jam_duration"`
	TeamNames   []string `yaml:"team_names"`
}

type Assign struct {
	TeamsPerHeat int      `yaml:"teams_per_heat"`
	Timeout      Duration `yaml:"timeout"`
	Seed         int64    `yaml:"seed"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Autosave       bool     `yaml:"autosave"`
}

type Archive struct {
	Path string `yaml:"path"`
}

type Publish struct {
	AccountID     string `yaml:"account_id"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
	Prefix        string `yaml:"prefix"`

	// Credentials come from the environment only.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Enabled reports whether enough is configured to upload anything.
func (p Publish) Enabled() bool {
	return p.AccountID != "" && p.Bucket != ""
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Match   Match   `yaml:"match"`
	Assign  Assign  `yaml:"assign"`
	Server  Server  `yaml:"server"`
	Archive Archive `yaml:"archive"`
	Publish Publish `yaml:"publish"`
	Log     Log     `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Match: Match{
			Name:        model.DefaultName,
			Teams:       model.DefaultTeams,
			Heats:       model.DefaultHeats,
			Jams:        model.DefaultJams,
			JamDuration: model.DefaultJamDuration,
		},
		Assign: Assign{
			TeamsPerHeat: 4,
			Timeout:      Duration{60 * time.Second},
		},
		Server: Server{
			Addr:     ":8080",
			Autosave: true,
		},
		Archive: Archive{Path: "heatsheet.db"},
		Publish: Publish{Prefix: "matches"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// LoadFromBytes parses YAML bytes over the defaults, applies environment
// overrides and validates the result.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// Resolve loads path, or DefaultFile when path is empty and that file
// exists, or the defaults. A .env file in the working directory is loaded
// into the environment first when present.
func Resolve(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			cfg := Default()
			cfg.applyEnv()
			return cfg, cfg.validate()
		}
		path = DefaultFile
	}
	return LoadFromFile(path)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	c.Publish.AccessKeyID = os.Getenv(EnvAccessKeyID)
	c.Publish.SecretAccessKey = os.Getenv(EnvSecretAccessKey)
}

// SlogLevel converts the configured level name.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) validate() error {
	m := c.Match
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("match name must not be blank")
	}
	if m.Teams < 2 {
		return fmt.Errorf("match needs at least 2 teams, got %d", m.Teams)
	}
	if m.Heats < 1 {
		return fmt.Errorf("match needs at least 1 heat, got %d", m.Heats)
	}
	if m.Jams < m.Heats {
		return fmt.Errorf("match needs at least one jam per heat: %d jams for %d heats", m.Jams, m.Heats)
	}
	if m.JamDuration < 1 {
		return fmt.Errorf("jam duration must be at least 1 second, got %d", m.JamDuration)
	}
	if len(m.TeamNames) > m.Teams {
		return fmt.Errorf("%d team names given for %d teams", len(m.TeamNames), m.Teams)
	}
	for i, name := range m.TeamNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("team name %d is blank", i+1)
		}
	}

	if c.Assign.TeamsPerHeat < 2 || c.Assign.TeamsPerHeat > m.Teams {
		return fmt.Errorf("teams per heat must be between 2 and %d, got %d", m.Teams, c.Assign.TeamsPerHeat)
	}
	if c.Assign.Timeout.Duration <= 0 {
		return fmt.Errorf("assign timeout must be positive")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}

	if c.Publish.Bucket != "" && c.Publish.AccountID == "" {
		return fmt.Errorf("publish: bucket %q needs an account_id", c.Publish.Bucket)
	}
	return nil
}

// NewMatch builds a match from the configured defaults and team names.
func (c *Config) NewMatch() (*model.Match, error) {
	m, err := model.NewSized(c.Match.Name, c.Match.Teams, c.Match.Heats, c.Match.Jams, c.Match.JamDuration)
	if err != nil {
		return nil, err
	}
	for i, name := range c.Match.TeamNames {
		t := m.Teams[i]
		if _, err := t.Update(name, t.Abbreviation, t.Foreground, t.Background, t.PointsAdjustment); err != nil {
			return nil, err
		}
	}
	return m, nil
}
