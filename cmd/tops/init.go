package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/config"
	"github.com/zulandar/trainops/internal/db"
	"github.com/zulandar/trainops/internal/session"
)

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Trainops database",
		Long:  "Migrates all tables, seeds the layout (stations, industries, routes, fleet), and opens session 1.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func runInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if cfg.Layout != "" {
		layout, err := config.LoadLayout(cfg.Layout)
		if err != nil {
			return err
		}
		if err := db.SeedLayout(gormDB, layout); err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded layout: %d stations, %d industries, %d routes, %d cars, %d locomotives\n",
			len(layout.Stations), len(layout.Industries), len(layout.Routes), len(layout.Cars), len(layout.Locomotives))
	} else {
		fmt.Fprintln(out, "No layout file configured; skipping seed")
	}

	sess, err := session.Init(gormDB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Operating session %d is open\n", sess.CurrentSession)

	fmt.Fprintln(out, "\nTrainops database initialized successfully.")
	return nil
}
