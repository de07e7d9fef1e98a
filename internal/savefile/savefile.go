// Package savefile reads and writes the CSV record file a match is saved to.
//
// A file holds one MATCH record, one TEAM record per team and one JAM record
// per jam. Rows whose first field is all dashes are column headings. Team
// references are zero-based indexes with -1 meaning no team.
package savefile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/derekprior/heatsheet/internal/model"
)

// ErrNoData is returned when a file contains no MATCH, TEAM or JAM records.
var ErrNoData = errors.New("no match data found in file")

const (
	kindMatch = "MATCH"
	kindTeam  = "TEAM"
	kindJam   = "JAM"
)

// Record lengths including the kind field.
const (
	matchFields = 6
	teamFields  = 7
	jamFields   = 8
)

// Write encodes the match as CSV records.
func Write(w io.Writer, m *model.Match) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"-----", "NAME", "# TEAMS", "# HEATS", "# JAMS", "JAM DURATION"},
		{kindMatch, m.Name, itoa(m.TotalTeams()), itoa(m.TotalHeats()), itoa(m.TotalJams()), itoa(m.JamDuration)},
		{"-----", "INDEX", "NAME", "ABBREVIATION", "BG COLOUR", "FG COLOUR", "POINTS ADJUSTMENT"},
	}
	for i, t := range m.Teams {
		rows = append(rows, []string{
			kindTeam, itoa(i), t.Name, t.Abbreviation,
			strconv.Itoa(int(model.ARGB(t.Background))),
			strconv.Itoa(int(model.ARGB(t.Foreground))),
			itoa(t.PointsAdjustment),
		})
	}
	rows = append(rows, []string{"-----", "JAM INDEX", "TEAM 1 INDEX", "TEAM 2 INDEX", "LEAD JAMMER INDEX", "SCORE 1", "SCORE 2", "TIME REMAINING"})
	for seq, j := range m.Jams() {
		rows = append(rows, []string{
			kindJam, itoa(seq), itoa(j.Team1), itoa(j.Team2), itoa(j.LeadJammer),
			itoa(j.Score1), itoa(j.Score2), itoa(j.TimeRemaining),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}

// Save writes the whole match to path, replacing any existing file, and
// records path as the match's save location.
func Save(path string, m *model.Match) error {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("couldn't save file: %w", err)
	}
	m.SaveFilePath = path
	return nil
}

// Load reads a match from path. Warnings describe tolerated problems.
func Load(path string) (*model.Match, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't read file: %w", err)
	}
	defer f.Close()

	m, warnings, err := Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	m.SaveFilePath = path
	return m, warnings, nil
}

// Read decodes a match. Missing trailing fields keep the value of a freshly
// created match and are reported as warnings along with unexpected record
// counts and unknown record kinds.
func Read(r io.Reader) (*model.Match, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	d := &decoder{match: model.New()}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading records: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if err := d.decode(record, line); err != nil {
			return nil, nil, err
		}
	}

	if d.matches == 0 && d.teams == 0 && d.jams == 0 {
		return nil, nil, ErrNoData
	}
	return d.match, d.warnings(), nil
}

type decoder struct {
	match *model.Match

	matches    int
	teams      int
	jams       int
	incomplete int
	unknown    int
}

func (d *decoder) decode(record []string, line int) error {
	if len(record) == 0 || record[0] == "" {
		return nil
	}

	var err error
	switch strings.ToUpper(record[0]) {
	case kindMatch:
		err = d.decodeMatch(fields{record, line})
	case kindTeam:
		err = d.decodeTeam(fields{record, line})
	case kindJam:
		err = d.decodeJam(fields{record, line})
	default:
		if strings.Trim(record[0], "-") != "" {
			d.unknown++
		}
	}
	return err
}

func (d *decoder) decodeMatch(f fields) error {
	if d.matches > 0 {
		return fmt.Errorf("second MATCH record at line %d: there can be only one", f.line)
	}
	if f.short(matchFields) {
		d.incomplete++
	}

	m := d.match
	name := f.str(1, m.Name)
	teams, err := f.num(2, m.TotalTeams())
	if err != nil {
		return err
	}
	heats, err := f.num(3, m.TotalHeats())
	if err != nil {
		return err
	}
	jams, err := f.num(4, m.TotalJams())
	if err != nil {
		return err
	}
	duration, err := f.num(5, m.JamDuration)
	if err != nil {
		return err
	}

	if _, err := m.Configure(name, teams, heats, jams, duration); err != nil {
		return fmt.Errorf("line %d: %w", f.line, err)
	}
	d.matches++
	return nil
}

func (d *decoder) decodeTeam(f fields) error {
	if len(f.record) < 2 {
		return fmt.Errorf("no team index on line %d", f.line)
	}
	index, err := f.num(1, 0)
	if err != nil {
		return err
	}
	team := d.match.Team(index)
	if team == nil {
		return fmt.Errorf("invalid team index on line %d", f.line)
	}
	if f.short(teamFields) {
		d.incomplete++
	}

	bg, err := f.num(4, int(model.ARGB(team.Background)))
	if err != nil {
		return err
	}
	fg, err := f.num(5, int(model.ARGB(team.Foreground)))
	if err != nil {
		return err
	}
	adjustment, err := f.num(6, team.PointsAdjustment)
	if err != nil {
		return err
	}

	_, err = team.Update(
		f.str(2, team.Name),
		f.str(3, team.Abbreviation),
		model.ColorFromARGB(int32(fg)),
		model.ColorFromARGB(int32(bg)),
		adjustment,
	)
	if err != nil {
		return fmt.Errorf("line %d: %w", f.line, err)
	}
	d.teams++
	return nil
}

func (d *decoder) decodeJam(f fields) error {
	if len(f.record) < 2 {
		return fmt.Errorf("no jam index on line %d", f.line)
	}
	seq, err := f.num(1, 0)
	if err != nil {
		return err
	}
	jam := d.match.Jam(seq)
	if jam == nil {
		return fmt.Errorf("invalid jam index on line %d", f.line)
	}
	if f.short(jamFields) {
		d.incomplete++
	}

	vals := []int{jam.Team1, jam.Team2, jam.LeadJammer, jam.Score1, jam.Score2, jam.TimeRemaining}
	for i := range vals {
		if vals[i], err = f.num(i+2, vals[i]); err != nil {
			return err
		}
	}
	for i, label := range []string{"team 1", "team 2", "lead jammer"} {
		if t := vals[i]; t < model.NoTeam || t >= d.match.TotalTeams() {
			return fmt.Errorf("invalid %s index on line %d", label, f.line)
		}
	}

	if _, err := d.match.UpdateJam(jam, vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]); err != nil {
		return fmt.Errorf("line %d: %w", f.line, err)
	}
	d.jams++
	return nil
}

func (d *decoder) warnings() []string {
	var w []string
	if d.matches == 0 {
		w = append(w, "No MATCH line found - match initialised with defaults.")
	}
	if n := d.match.TotalTeams(); d.teams != n {
		w = append(w, fmt.Sprintf("%d TEAM lines found, expected %d", d.teams, n))
	}
	if n := d.match.TotalJams(); d.jams != n {
		w = append(w, fmt.Sprintf("%d JAM lines found, expected %d", d.jams, n))
	}
	if d.incomplete > 0 {
		w = append(w, fmt.Sprintf("%d incomplete lines found and initialised with defaults.", d.incomplete))
	}
	if d.unknown > 0 {
		w = append(w, fmt.Sprintf("%d unknown lines found and ignored.", d.unknown))
	}
	return w
}

// fields reads positional values from one record, falling back to a default
// when the record is too short.
type fields struct {
	record []string
	line   int
}

func (f fields) short(n int) bool {
	return len(f.record) < n
}

func (f fields) str(i int, def string) string {
	if i < len(f.record) {
		return f.record[i]
	}
	return def
}

func (f fields) num(i, def int) (int, error) {
	if i >= len(f.record) {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(f.record[i]))
	if err != nil {
		return 0, fmt.Errorf("number parsing error at line %d: %w", f.line, err)
	}
	return v, nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
