package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/ranking"
)

// Sheet names.
const (
	MatchSheet    = "Match"
	ScheduleSheet = "Schedule"
	RankingsSheet = "Rankings"
	TeamsSheet    = "Teams"
)

// TeamSheet names the per-team sheet.
func TeamSheet(team *model.Team) string {
	return fmt.Sprintf("Team %d", team.Number)
}

// Generate creates a results workbook: match details, the schedule with
// results, the standings, the team list and one sheet per team.
func Generate(m *model.Match, standings []ranking.Standing, format TeamFormat, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	w := &writer{f: f, match: m, format: format, teamStyles: make(map[int]int)}
	if err := w.init(); err != nil {
		return nil, fmt.Errorf("creating styles: %w", err)
	}

	if err := w.writeMatchSheet(generatedAt); err != nil {
		return nil, fmt.Errorf("writing match sheet: %w", err)
	}
	if err := w.writeScheduleSheet(); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}
	if err := w.writeRankingsSheet(standings); err != nil {
		return nil, fmt.Errorf("writing rankings sheet: %w", err)
	}
	if err := w.writeTeamsSheet(); err != nil {
		return nil, fmt.Errorf("writing teams sheet: %w", err)
	}
	if err := w.writeTeamSheets(); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type writer struct {
	f      *excelize.File
	match  *model.Match
	format TeamFormat

	headerStyle int
	cellStyle   int
	centerStyle int
	teamStyles  map[int]int // team index -> fill in the team's colours
}

func (w *writer) init() error {
	var err error
	w.headerStyle, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	w.cellStyle, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	if err != nil {
		return err
	}
	w.centerStyle, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	for i, t := range w.match.Teams {
		style, err := w.f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Size: 16, Family: "Arial", Color: model.Hex(t.Foreground)},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{model.Hex(t.Background)}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return err
		}
		w.teamStyles[i] = style
	}
	return nil
}

func (w *writer) header(sheet string, headers []string) {
	for i, h := range headers {
		w.f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	w.f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), w.headerStyle)
}

func (w *writer) row(sheet string, row int, values ...any) {
	for i, v := range values {
		w.f.SetCellValue(sheet, cellRef(i+1, row), v)
	}
	w.f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), w.cellStyle)
}

func (w *writer) teamCell(sheet string, col, row, team int) {
	ref := cellRef(col, row)
	w.f.SetCellValue(sheet, ref, w.format.Label(w.match.Team(team)))
	if style, ok := w.teamStyles[team]; ok {
		w.f.SetCellStyle(sheet, ref, ref, style)
	} else {
		w.f.SetCellStyle(sheet, ref, ref, w.centerStyle)
	}
}

func (w *writer) writeMatchSheet(generatedAt time.Time) error {
	sheet := MatchSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	w.header(sheet, []string{"Match details", ""})

	d := w.match.JamDuration
	rows := [][]any{
		{"Name", w.match.Name},
		{"Number of teams", w.match.TotalTeams()},
		{"Number of heats", w.match.TotalHeats()},
		{"Number of jams", w.match.TotalJams()},
		{"Jam duration", fmt.Sprintf("%d:%02d", d/60, d%60)},
		{"Generated at", generatedAt.Format("2006-01-02 15:04")},
	}
	for i, r := range rows {
		w.row(sheet, i+2, r...)
	}
	w.f.SetColWidth(sheet, "A", "A", 24)
	w.f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func (w *writer) writeScheduleSheet() error {
	sheet := ScheduleSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Heat", "Jam", "Team 1", "Score", "Team 2", "Lead Jammer", "Time Remaining"}
	w.header(sheet, headers)

	row := 2
	for h, heat := range w.match.Heats {
		for j, jam := range heat.Jams {
			w.row(sheet, row, h+1, j+1)
			w.teamCell(sheet, 3, row, jam.Team1)
			w.f.SetCellValue(sheet, cellRef(4, row), score(jam))
			w.teamCell(sheet, 5, row, jam.Team2)
			if jam.LeadJammer != model.NoTeam {
				w.f.SetCellValue(sheet, cellRef(6, row), w.format.Label(w.match.Team(jam.LeadJammer)))
			}
			w.f.SetCellValue(sheet, cellRef(7, row), clock(jam.TimeRemaining))
			w.f.SetCellStyle(sheet, cellRef(4, row), cellRef(4, row), w.centerStyle)
			w.f.SetCellStyle(sheet, cellRef(6, row), cellRef(7, row), w.centerStyle)
			row++
		}
	}

	widths := map[string]float64{"A": 8, "B": 8, "C": 30, "D": 12, "E": 30, "F": 30, "G": 18}
	for col, width := range widths {
		w.f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func (w *writer) writeRankingsSheet(standings []ranking.Standing) error {
	sheet := RankingsSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Position", "Team", "Wins", "Draws", "Losses", "Jams Led",
		"Points For", "Points Against", "Points Difference", "Adjustment", "Match Score"}
	w.header(sheet, headers)

	for i, s := range standings {
		row := i + 2
		w.row(sheet, row, s.Rank, "", s.Wins, s.Draws, s.Losses, s.LeadJams,
			s.PointsFor, s.PointsAgainst, s.PointsDifference, s.Adjustment, s.MatchScore)
		w.teamCell(sheet, 2, row, s.Team)
	}

	// Negative points difference in light red
	if len(standings) > 0 {
		redFill, err := w.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})
		if err != nil {
			return err
		}
		cellRange := fmt.Sprintf("I2:I%d", len(standings)+1)
		if err := w.f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{Type: "formula", Criteria: "I2<0", Format: &redFill},
		}); err != nil {
			return err
		}
	}

	w.f.SetColWidth(sheet, "A", "A", 12)
	w.f.SetColWidth(sheet, "B", "B", 30)
	w.f.SetColWidth(sheet, "C", "K", 16)
	return nil
}

func (w *writer) writeTeamsSheet() error {
	sheet := TeamsSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Number", "Name", "Abbreviation", "Background", "Foreground", "Points Adjustment"}
	w.header(sheet, headers)

	for i, t := range w.match.Teams {
		row := i + 2
		w.row(sheet, row, t.Number, t.Name, t.Abbreviation,
			strings.ToUpper(model.Hex(t.Background)), strings.ToUpper(model.Hex(t.Foreground)), t.PointsAdjustment)
		w.f.SetCellStyle(sheet, cellRef(2, row), cellRef(2, row), w.teamStyles[i])
	}

	widths := map[string]float64{"A": 10, "B": 30, "C": 16, "D": 16, "E": 16, "F": 20}
	for col, width := range widths {
		w.f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func (w *writer) writeTeamSheets() error {
	for idx, team := range w.match.Teams {
		sheet := TeamSheet(team)
		if _, err := w.f.NewSheet(sheet); err != nil {
			return err
		}
		headers := []string{"Heat", "Jam", "Opponent", "For", "Against", "Result", "Lead Jammer"}
		w.header(sheet, headers)

		row := 2
		for h, heat := range w.match.Heats {
			for j, jam := range heat.Jams {
				if !jam.Involves(idx) {
					continue
				}
				opponent, scored, conceded := jam.Team2, jam.Score1, jam.Score2
				if jam.Team2 == idx {
					opponent, scored, conceded = jam.Team1, jam.Score2, jam.Score1
				}

				result, lead := "", ""
				if jam.Completed() {
					result = outcome(scored, conceded)
					lead = "No"
					if jam.LeadJammer == idx {
						lead = "Yes"
					}
					w.row(sheet, row, h+1, j+1, "", scored, conceded, result, lead)
				} else {
					w.row(sheet, row, h+1, j+1, "", "", "", result, lead)
				}
				w.teamCell(sheet, 3, row, opponent)
				row++
			}
		}

		widths := map[string]float64{"A": 8, "B": 8, "C": 30, "D": 10, "E": 10, "F": 12, "G": 14}
		for col, width := range widths {
			w.f.SetColWidth(sheet, col, col, width)
		}
	}
	return nil
}

func score(jam *model.Jam) string {
	if !jam.Completed() {
		return "vs"
	}
	return fmt.Sprintf("%d - %d", jam.Score1, jam.Score2)
}

func outcome(scored, conceded int) string {
	switch {
	case scored > conceded:
		return "Win"
	case scored < conceded:
		return "Loss"
	}
	return "Draw"
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
