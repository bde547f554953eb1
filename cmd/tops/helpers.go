package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zulandar/trainops/internal/callboard"
	"github.com/zulandar/trainops/internal/config"
	"github.com/zulandar/trainops/internal/db"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// notify posts a callboard event if a platform is configured. Notification
// failures are returned so callers can warn; the operation itself has
// already succeeded.
func notify(cfg *config.Config, ev callboard.Event) error {
	n, err := callboard.New(cfg.Callboard)
	if err != nil || n == nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.Connect(ctx); err != nil {
		return err
	}
	defer n.Close()
	return n.Post(ctx, ev)
}

// warnNotify reports a notification failure without failing the command.
func warnNotify(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "warning: callboard notification failed: %v\n", err)
	}
}
