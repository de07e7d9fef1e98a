package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/derekprior/heatsheet/internal/excel"
	"github.com/derekprior/heatsheet/internal/publish"
	"github.com/derekprior/heatsheet/internal/savefile"
	"github.com/derekprior/heatsheet/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the scoreboard API, live standings feed and jam clock",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), addr)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: from config)")
	return serveCmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	if err := a.setup(); err != nil {
		return err
	}
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	m, warnings, err := savefile.Load(a.matchFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if m, err = a.cfg.NewMatch(); err != nil {
			return err
		}
		m.SaveFilePath = a.matchFile
		a.log.Info("starting a new match", "path", a.matchFile)
	case err != nil:
		return err
	}
	for _, w := range warnings {
		a.log.Warn("match file", "path", a.matchFile, "warning", w)
	}

	ctrl := a.controller(m)
	srv := server.New(ctrl, server.Options{
		Logger:         a.log,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Autosave:       a.cfg.Server.Autosave,
		TeamsPerHeat:   a.cfg.Assign.TeamsPerHeat,
	})
	a.log.Info("match ready", "name", m.Name, "selected", describeSelection(ctrl))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, addr)
}

func (a *app) publishCmd() *cobra.Command {
	var formatName string
	publishCmd := &cobra.Command{
		Use:          "publish",
		Short:        "Upload the results workbook, standings image and standings JSON",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPublish(cmd.Context(), formatName)
		},
	}
	publishCmd.Flags().StringVar(&formatName, "format", "name-number", "Team label format in the workbook")
	return publishCmd
}

func (a *app) runPublish(ctx context.Context, formatName string) error {
	format, err := excel.ParseTeamFormat(formatName)
	if err != nil {
		return err
	}
	ctrl, err := a.open()
	if err != nil {
		return err
	}
	pc := a.cfg.Publish
	if !pc.Enabled() {
		return fmt.Errorf("publishing needs publish.account_id and publish.bucket in the config")
	}

	up, err := publish.NewR2Uploader(ctx, publish.R2Config{
		AccountID:       pc.AccountID,
		AccessKeyID:     pc.AccessKeyID,
		SecretAccessKey: pc.SecretAccessKey,
		BucketName:      pc.Bucket,
		PublicBaseURL:   pc.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	p := publish.New(up, publish.Options{Prefix: pc.Prefix, Format: format, Logger: a.log})
	report, err := p.Publish(ctx, ctrl.Match(), ctrl.Standings())
	if err != nil {
		return err
	}
	for _, res := range []*publish.UploadResult{report.Workbook, report.Image, report.Standings} {
		fmt.Printf("✓ Uploaded %s\n", res.Location)
	}
	return nil
}
