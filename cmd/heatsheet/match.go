package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/heatsheet/internal/control"
	"github.com/derekprior/heatsheet/internal/excel"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/render"
	"github.com/derekprior/heatsheet/internal/savefile"
	"github.com/derekprior/heatsheet/internal/schedule"
	"github.com/derekprior/heatsheet/internal/validator"
)

func (a *app) matchCmd() *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Create, edit and report on a match file",
	}

	var force bool
	newCmd := &cobra.Command{
		Use:          "new",
		Short:        "Create a match file from the configured defaults",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNew(force)
		},
	}
	newCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing match file")

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the teams and the jam schedule",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow()
		},
	}

	standingsCmd := &cobra.Command{
		Use:          "standings",
		Short:        "Print the rankings table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStandings()
		},
	}

	distributionCmd := &cobra.Command{
		Use:          "distribution",
		Short:        "Print how many jams each team has played by the end of each heat",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			fmt.Println(schedule.Distribute(ctrl.Match()))
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:          "check",
		Short:        "Check the match file for errors and guideline warnings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck()
		},
	}

	var configure struct {
		name                         string
		teams, heats, jams, duration int
	}
	configureCmd := &cobra.Command{
		Use:          "configure",
		Short:        "Change the match name or its number of teams, heats, jams or the jam duration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			m := ctrl.Match()
			flags := cmd.Flags()
			name, teams, heats, jams, duration := m.Name, m.TotalTeams(), m.TotalHeats(), m.TotalJams(), m.JamDuration
			if flags.Changed("name") {
				name = configure.name
			}
			if flags.Changed("teams") {
				teams = configure.teams
			}
			if flags.Changed("heats") {
				heats = configure.heats
			}
			if flags.Changed("jams") {
				jams = configure.jams
			}
			if flags.Changed("duration") {
				duration = configure.duration
			}
			if _, err := ctrl.UpdateMatch(name, teams, heats, jams, duration); err != nil {
				return err
			}
			return a.save(ctrl)
		},
	}
	configureCmd.Flags().StringVar(&configure.name, "name", "", "Match name")
	configureCmd.Flags().IntVar(&configure.teams, "teams", 0, "Number of teams")
	configureCmd.Flags().IntVar(&configure.heats, "heats", 0, "Number of heats")
	configureCmd.Flags().IntVar(&configure.jams, "jams", 0, "Number of jams")
	configureCmd.Flags().IntVar(&configure.duration, "duration", 0, "Jam duration in seconds")

	var teamsPerHeat int
	assignCmd := &cobra.Command{
		Use:          "assign",
		Short:        "Assign teams to every jam so that matchups are balanced",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAssign(cmd.Context(), teamsPerHeat)
		},
	}
	assignCmd.Flags().IntVarP(&teamsPerHeat, "teams-per-heat", "k", 0, "Teams per heat (default: from config)")

	var team struct {
		name, abbr, fg, bg string
		adjust             int
	}
	teamCmd := &cobra.Command{
		Use:          "team <number>",
		Short:        "Edit a team's name, abbreviation, colours or points adjustment",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("team number must be a number, got %q", args[0])
			}
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			t := ctrl.Match().Team(number - 1)
			if t == nil {
				return fmt.Errorf("no team %d; the match has %d teams", number, ctrl.Match().TotalTeams())
			}

			flags := cmd.Flags()
			name, abbr, fg, bg, adjust := t.Name, t.Abbreviation, t.Foreground, t.Background, t.PointsAdjustment
			if flags.Changed("name") {
				name = team.name
			}
			if flags.Changed("abbr") {
				abbr = team.abbr
			}
			if flags.Changed("fg") {
				if fg, err = model.ParseHex(team.fg); err != nil {
					return err
				}
			}
			if flags.Changed("bg") {
				if bg, err = model.ParseHex(team.bg); err != nil {
					return err
				}
			}
			if flags.Changed("adjust") {
				adjust = team.adjust
			}
			if _, err := ctrl.UpdateTeam(number-1, name, abbr, fg, bg, adjust); err != nil {
				return err
			}
			return a.save(ctrl)
		},
	}
	teamCmd.Flags().StringVar(&team.name, "name", "", "Team name")
	teamCmd.Flags().StringVar(&team.abbr, "abbr", "", "Abbreviation")
	teamCmd.Flags().StringVar(&team.fg, "fg", "", "Text colour, e.g. #FFFFFF")
	teamCmd.Flags().StringVar(&team.bg, "bg", "", "Background colour, e.g. #4472C4")
	teamCmd.Flags().IntVar(&team.adjust, "adjust", 0, "Points adjustment")

	heatCmd := &cobra.Command{
		Use:   "heat <heat> <team>v<team>...",
		Short: "Set the teams of every jam in a heat",
		Long: "Set the teams of every jam in a heat, one pairing per jam in order.\n" +
			"Teams are numbers; use - for an empty slot, e.g. `heatsheet match heat 2 1v3 2v4 -v-`.",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHeat(args[0], args[1:])
		},
	}

	var jam struct {
		team1, team2, lead, score1, score2, time int
	}
	scoreCmd := &cobra.Command{
		Use:          "score <heat> <jam>",
		Short:        "Record the teams, scores, lead jammer or time remaining of a jam",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			heat, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("heat must be a number, got %q", args[0])
			}
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("jam must be a number, got %q", args[1])
			}
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			m := ctrl.Match()
			j := m.JamAt(heat-1, idx-1)
			if j == nil {
				return fmt.Errorf("no jam %d in heat %d", idx, heat)
			}

			flags := cmd.Flags()
			team1, team2, lead := j.Team1, j.Team2, j.LeadJammer
			score1, score2, remaining := j.Score1, j.Score2, j.TimeRemaining
			if flags.Changed("team1") {
				team1 = jam.team1 - 1
			}
			if flags.Changed("team2") {
				team2 = jam.team2 - 1
			}
			if flags.Changed("lead") {
				switch jam.lead {
				case 0:
					lead = model.NoTeam
				case 1:
					lead = team1
				case 2:
					lead = team2
				default:
					return fmt.Errorf("lead must be 0, 1 or 2, got %d", jam.lead)
				}
			}
			if flags.Changed("score1") {
				score1 = jam.score1
			}
			if flags.Changed("score2") {
				score2 = jam.score2
			}
			if flags.Changed("time") {
				remaining = jam.time
			}
			if done, _ := flags.GetBool("done"); done {
				remaining = 0
			}
			if _, err := ctrl.UpdateJam(m.Sequence(heat-1, idx-1), team1, team2, lead, score1, score2, remaining); err != nil {
				return err
			}
			return a.save(ctrl)
		},
	}
	scoreCmd.Flags().IntVar(&jam.team1, "team1", 0, "Team 1 number (0 for none)")
	scoreCmd.Flags().IntVar(&jam.team2, "team2", 0, "Team 2 number (0 for none)")
	scoreCmd.Flags().IntVar(&jam.lead, "lead", 0, "Lead jammer side: 1, 2 or 0 for none")
	scoreCmd.Flags().IntVar(&jam.score1, "score1", 0, "Team 1 score")
	scoreCmd.Flags().IntVar(&jam.score2, "score2", 0, "Team 2 score")
	scoreCmd.Flags().IntVar(&jam.time, "time", 0, "Time remaining in seconds")
	scoreCmd.Flags().Bool("done", false, "Mark the jam complete")

	var exportOutput, exportFormat string
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write the match results to an Excel workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(exportOutput, exportFormat)
		},
	}
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "results.xlsx", "Output Excel file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "name-number", "Team label format: name-number, abbr-number, number, name or abbr")

	var renderOutput string
	renderCmd := &cobra.Command{
		Use:          "render",
		Short:        "Draw the standings table as a PNG image",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			f, err := os.Create(renderOutput)
			if err != nil {
				return fmt.Errorf("creating image: %w", err)
			}
			defer f.Close()
			if err := render.WritePNG(f, ctrl.Match(), ctrl.Standings()); err != nil {
				return err
			}
			fmt.Printf("✓ Standings saved to %s\n", renderOutput)
			return f.Close()
		},
	}
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "standings.png", "Output PNG file path")

	matchCmd.AddCommand(newCmd, showCmd, standingsCmd, distributionCmd, checkCmd, configureCmd,
		assignCmd, teamCmd, heatCmd, scoreCmd, exportCmd, renderCmd)
	return matchCmd
}

func (a *app) runNew(force bool) error {
	if err := a.setup(); err != nil {
		return err
	}
	if _, err := os.Stat(a.matchFile); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to replace it", a.matchFile)
	}
	m, err := a.cfg.NewMatch()
	if err != nil {
		return err
	}
	if err := savefile.Save(a.matchFile, m); err != nil {
		return err
	}
	fmt.Printf("✓ Created %s: %d teams, %d heats, %d jams\n", a.matchFile, m.TotalTeams(), m.TotalHeats(), m.TotalJams())
	return nil
}

func (a *app) runShow() error {
	ctrl, err := a.open()
	if err != nil {
		return err
	}
	m := ctrl.Match()

	fmt.Printf("%s (%d:%02d jams)\n", m.Name, m.JamDuration/60, m.JamDuration%60)
	fmt.Println("\nTeams:")
	for _, t := range m.Teams {
		fmt.Printf("  %2d  %-20s %-6s %s on %s", t.Number, t.Name, t.Abbreviation, model.Hex(t.Foreground), model.Hex(t.Background))
		if t.PointsAdjustment != 0 {
			fmt.Printf("  %+d", t.PointsAdjustment)
		}
		fmt.Println()
	}

	label := func(idx int) string {
		if t := m.Team(idx); t != nil {
			return t.ShortName()
		}
		return "-"
	}
	for h, heat := range m.Heats {
		fmt.Printf("\nHeat %d:\n", h+1)
		for j, jam := range heat.Jams {
			score := "vs"
			if jam.Score1 != 0 || jam.Score2 != 0 || jam.Completed() {
				score = fmt.Sprintf("%d - %d", jam.Score1, jam.Score2)
			}
			fmt.Printf("  %2d. %-20s %7s  %-20s", j+1, label(jam.Team1), score, label(jam.Team2))
			if jam.LeadJammer != model.NoTeam {
				fmt.Printf(" lead: %s", label(jam.LeadJammer))
			}
			if jam.Completed() {
				fmt.Print(" ✓")
			} else if jam.TimeRemaining != m.JamDuration {
				fmt.Printf(" %d:%02d left", jam.TimeRemaining/60, jam.TimeRemaining%60)
			}
			fmt.Println()
		}
	}
	return nil
}

func (a *app) runStandings() error {
	ctrl, err := a.open()
	if err != nil {
		return err
	}
	fmt.Printf("  %-4s %-24s %3s %3s %3s %4s %5s %5s %5s %5s\n",
		"Rank", "Team", "W", "D", "L", "Lead", "For", "Agst", "Diff", "Score")
	for _, s := range ctrl.Standings() {
		fmt.Printf("  %-4s %-24s %3d %3d %3d %4d %5d %5d %5d %5d\n",
			s.Rank, fmt.Sprintf("%d - %s", s.Number, s.Name),
			s.Wins, s.Draws, s.Losses, s.LeadJams,
			s.PointsFor, s.PointsAgainst, s.PointsDifference, s.MatchScore)
	}
	return nil
}

func (a *app) runCheck() error {
	violations, warnings, err := validator.ValidateFile(a.matchFile)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}
	for _, w := range warnings {
		fmt.Printf("⚠ File: %s\n", w)
	}
	for _, v := range violations {
		switch v.Type {
		case "error":
			fmt.Printf("✗ Error: %s\n", v.Message)
		case "warning":
			fmt.Printf("⚠ Warning: %s\n", v.Message)
		}
	}

	errs, warns := validator.Count(violations)
	fmt.Printf("\nCheck complete: %d errors, %d warnings\n", errs, warns)
	if errs > 0 {
		return fmt.Errorf("%d errors found", errs)
	}
	return nil
}

func (a *app) runAssign(ctx context.Context, teamsPerHeat int) error {
	ctrl, err := a.open()
	if err != nil {
		return err
	}
	if teamsPerHeat == 0 {
		teamsPerHeat = a.cfg.Assign.TeamsPerHeat
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	m := ctrl.Match()
	fmt.Printf("Assigning %d teams to %d jams, %d teams per heat...\n", m.TotalTeams(), m.TotalJams(), teamsPerHeat)

	result, assignErr := ctrl.AutoAssign(ctx, teamsPerHeat)
	var timeout *schedule.TimeoutError
	switch {
	case errors.As(assignErr, &timeout), errors.Is(assignErr, context.Canceled):
		fmt.Fprintf(os.Stderr, "⚠ %s\n", assignErr)
		fmt.Fprintf(os.Stderr, "\nKeeping the last attempt...\n")
	case assignErr != nil:
		return assignErr
	default:
		fmt.Printf("✓ Balanced after %d attempts (spread %d)\n", result.Attempts, result.Spread)
	}

	fmt.Printf("\n%s\n\n", schedule.Distribute(m))
	if err := a.save(ctrl); err != nil {
		return err
	}
	return assignErr
}

func (a *app) runHeat(heatArg string, pairs []string) error {
	heat, err := strconv.Atoi(heatArg)
	if err != nil {
		return fmt.Errorf("heat must be a number, got %q", heatArg)
	}
	team1s := make([]int, len(pairs))
	team2s := make([]int, len(pairs))
	for i, p := range pairs {
		left, right, ok := strings.Cut(p, "v")
		if !ok {
			return fmt.Errorf("pairing %q must look like 1v2", p)
		}
		if team1s[i], err = parseTeamNumber(left); err != nil {
			return err
		}
		if team2s[i], err = parseTeamNumber(right); err != nil {
			return err
		}
	}

	ctrl, err := a.open()
	if err != nil {
		return err
	}
	if _, err := ctrl.UpdateHeat(heat-1, team1s, team2s); err != nil {
		return err
	}
	return a.save(ctrl)
}

// parseTeamNumber turns a 1-based team number, or "-", into a team index.
func parseTeamNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		return model.NoTeam, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("team %q must be a number or -", s)
	}
	return n - 1, nil
}

func (a *app) runExport(outputPath, formatName string) error {
	format, err := excel.ParseTeamFormat(formatName)
	if err != nil {
		return err
	}
	ctrl, err := a.open()
	if err != nil {
		return err
	}

	f, err := excel.Generate(ctrl.Match(), ctrl.Standings(), format, time.Now())
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("✓ Results saved to %s\n", outputPath)
	return nil
}

// describeSelection names the selected jam.
func describeSelection(ctrl *control.Controller) string {
	jam, sel, err := ctrl.Current()
	if err != nil {
		return "no jams"
	}
	return fmt.Sprintf("heat %d jam %d (%d:%02d left)", sel.Heat+1, sel.Jam+1, jam.TimeRemaining/60, jam.TimeRemaining%60)
}
