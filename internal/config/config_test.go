package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "trainops.db" {
		t.Errorf("Database.Path = %q, want trainops.db", cfg.Database.Path)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("Database.Host = %q, want 127.0.0.1", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Orders.PerIndustryCap != 25 {
		t.Errorf("Orders.PerIndustryCap = %d, want 25", cfg.Orders.PerIndustryCap)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.Dashboard.StatsRefreshSec != 60 {
		t.Errorf("Dashboard.StatsRefreshSec = %d, want 60", cfg.Dashboard.StatsRefreshSec)
	}
	if cfg.Callboard.Platform != "" {
		t.Errorf("Callboard.Platform = %q, want empty", cfg.Callboard.Platform)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
layout: layout.yaml
database:
  driver: mysql
  host: db.club.local
  port: 3307
  database: trainops_club
orders:
  per_industry_cap: 10
dashboard:
  port: 9090
  stats_refresh_sec: 30
callboard:
  platform: slack
  token: xoxb-test
  channel: C0OPS
  digest_schedule: "0 18 * * 5"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Layout != "layout.yaml" {
		t.Errorf("Layout = %q", cfg.Layout)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db.club.local" || cfg.Database.Port != 3307 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Orders.PerIndustryCap != 10 {
		t.Errorf("Orders.PerIndustryCap = %d, want 10", cfg.Orders.PerIndustryCap)
	}
	if cfg.Dashboard.Port != 9090 || cfg.Dashboard.StatsRefreshSec != 30 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
	if cfg.Callboard.Platform != "slack" || cfg.Callboard.DigestSchedule != "0 18 * * 5" {
		t.Errorf("Callboard = %+v", cfg.Callboard)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unsupported driver",
			yaml:    "database:\n  driver: postgres\n",
			wantErr: "database.driver",
		},
		{
			name:    "negative industry cap",
			yaml:    "orders:\n  per_industry_cap: -1\n",
			wantErr: "per_industry_cap",
		},
		{
			name:    "unsupported platform",
			yaml:    "callboard:\n  platform: irc\n",
			wantErr: "callboard.platform",
		},
		{
			name:    "platform without token",
			yaml:    "callboard:\n  platform: slack\n  channel: C123\n",
			wantErr: "callboard.token",
		},
		{
			name:    "platform without channel",
			yaml:    "callboard:\n  platform: discord\n  token: tok\n",
			wantErr: "callboard.channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [not a map"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainops.yaml")
	content := "database:\n  driver: sqlite\n  path: ops.db\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Database.Path != "ops.db" {
		t.Errorf("Database.Path = %q, want ops.db", cfg.Database.Path)
	}
}
