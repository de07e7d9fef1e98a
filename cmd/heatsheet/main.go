package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/heatsheet/internal/config"
	"github.com/derekprior/heatsheet/internal/control"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/savefile"
)

const defaultMatchFile = "match.csv"

// app carries the flags and lazily resolved state shared by every command.
type app struct {
	configFile string
	matchFile  string

	cfg *config.Config
	log *slog.Logger
}

// setup resolves the config and builds the logger.
func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Resolve(a.configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.log = newLogger(cfg)
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func (a *app) rand() *rand.Rand {
	seed := a.cfg.Assign.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (a *app) controller(m *model.Match) *control.Controller {
	return control.New(m, control.Options{
		Logger:        a.log,
		Rand:          a.rand(),
		AssignTimeout: a.cfg.Assign.Timeout.Duration,
	})
}

// open loads the match file into a controller.
func (a *app) open() (*control.Controller, error) {
	if err := a.setup(); err != nil {
		return nil, err
	}
	m, warnings, err := savefile.Load(a.matchFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no match file at %s. Create one with `heatsheet match new` or pass --file", a.matchFile)
	}
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "⚠ %s: %s\n", a.matchFile, w)
	}
	return a.controller(m), nil
}

// save writes the match back when anything changed.
func (a *app) save(ctrl *control.Controller) error {
	if !ctrl.Unsaved() {
		fmt.Println("No changes")
		return nil
	}
	if err := ctrl.Save(a.matchFile); err != nil {
		return err
	}
	fmt.Printf("✓ Saved %s\n", a.matchFile)
	return nil
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "heatsheet",
		Short: "Heat and jam tournament manager",
	}
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to config file (default: "+config.DefaultFile+" in current directory)")
	rootCmd.PersistentFlags().StringVarP(&a.matchFile, "file", "f", defaultMatchFile, "Match file")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter " + config.DefaultFile + " in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", config.DefaultFile, "Output path for the config file")

	rootCmd.AddCommand(initCmd, a.matchCmd(), a.archiveCmd(), a.publishCmd(), a.serveCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(config.Starter), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}
