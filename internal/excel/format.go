package excel

import (
	"fmt"
	"strconv"

	"github.com/derekprior/heatsheet/internal/model"
)

// TeamFormat controls how teams are labelled in an exported workbook.
type TeamFormat int

const (
	NameNumber TeamFormat = iota // "3 - Rollers"
	AbbrNumber                   // "3 - ROL"
	Number                       // "3"
	Name                         // "Rollers"
	Abbr                         // "ROL"
)

var formatNames = map[string]TeamFormat{
	"name-number": NameNumber,
	"abbr-number": AbbrNumber,
	"number":      Number,
	"name":        Name,
	"abbr":        Abbr,
}

// ParseTeamFormat converts a flag value such as "abbr-number".
func ParseTeamFormat(s string) (TeamFormat, error) {
	f, ok := formatNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown team format %q (want name-number, abbr-number, number, name or abbr)", s)
	}
	return f, nil
}

// Label formats team, which may be nil for an empty slot.
func (f TeamFormat) Label(team *model.Team) string {
	if team == nil {
		if f == Number {
			return "?"
		}
		return "No team"
	}
	switch f {
	case AbbrNumber:
		return fmt.Sprintf("%d - %s", team.Number, team.ShortName())
	case Number:
		return strconv.Itoa(team.Number)
	case Name:
		return team.Name
	case Abbr:
		return team.ShortName()
	default:
		return fmt.Sprintf("%d - %s", team.Number, team.Name)
	}
}
