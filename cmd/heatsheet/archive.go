package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekprior/heatsheet/internal/archive"
)

func (a *app) openArchive() (*archive.Store, error) {
	if err := a.setup(); err != nil {
		return nil, err
	}
	return archive.Open(a.cfg.Archive.Path, archive.Options{Logger: a.log})
}

func (a *app) archiveCmd() *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Keep snapshots of the match file",
	}

	var label string
	putCmd := &cobra.Command{
		Use:          "put",
		Short:        "Store a snapshot of the match file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.open()
			if err != nil {
				return err
			}
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := store.Put(ctrl.Match(), label)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Stored snapshot %s of %q\n", snap.ID, snap.Match)
			return nil
		},
	}
	putCmd.Flags().StringVarP(&label, "label", "l", "", "Snapshot label, e.g. \"after heat 3\"")

	var all bool
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List snapshots of this match, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			match := ""
			if !all {
				ctrl, err := a.open()
				if err != nil {
					return err
				}
				match = ctrl.Match().Name
			}
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(match)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			fmt.Printf("  %-20s %-16s %-20s %5s %9s  %s\n", "ID", "Saved", "Match", "Teams", "Completed", "Label")
			for _, s := range snaps {
				fmt.Printf("  %-20s %-16s %-20s %5d %4d/%-4d  %s\n",
					s.ID, s.SavedAt.Local().Format("2006-01-02 15:04"), s.Match, s.Teams, s.Completed, s.Jams, s.Label)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "List snapshots of every match")

	restoreCmd := &cobra.Command{
		Use:          "restore <id>",
		Short:        "Replace the match file with a snapshot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			m, warnings, err := store.Restore(args[0])
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Printf("⚠ %s\n", w)
			}
			ctrl := a.controller(m)
			if err := ctrl.Save(a.matchFile); err != nil {
				return err
			}
			fmt.Printf("✓ Restored %s to %s\n", args[0], a.matchFile)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:          "delete <id>",
		Short:        "Remove a snapshot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %s\n", args[0])
			return nil
		},
	}

	archiveCmd.AddCommand(putCmd, listCmd, restoreCmd, deleteCmd)
	return archiveCmd
}
