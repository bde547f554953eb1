// Package config provides YAML-based configuration loading for Trainops.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Trainops configuration, loaded from trainops.yaml.
type Config struct {
	Layout    string          `yaml:"layout"` // path to the layout seed file
	Database  DatabaseConfig  `yaml:"database"`
	Orders    OrdersConfig    `yaml:"orders"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Callboard CallboardConfig `yaml:"callboard"`
}

// DatabaseConfig selects the backing store: a sqlite file by default, or a
// MySQL-compatible server for shared club setups.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// OrdersConfig bounds order generation and switch-list building.
type OrdersConfig struct {
	PerIndustryCap int `yaml:"per_industry_cap"` // max open orders considered per industry per build
}

// DashboardConfig holds settings for the read-only web dashboard.
type DashboardConfig struct {
	Port            int `yaml:"port"`
	StatsRefreshSec int `yaml:"stats_refresh_sec"`
}

// CallboardConfig wires crew notifications to a chat platform.
type CallboardConfig struct {
	Platform       string `yaml:"platform"` // "slack", "discord", or "" (disabled)
	Token          string `yaml:"token"`
	Channel        string `yaml:"channel"`
	DigestSchedule string `yaml:"digest_schedule"` // 5-field cron expression
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "trainops.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" {
		c.Database.Database = "trainops"
	}
	if c.Orders.PerIndustryCap == 0 {
		c.Orders.PerIndustryCap = 25
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Dashboard.StatsRefreshSec == 0 {
		c.Dashboard.StatsRefreshSec = 60
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Orders.PerIndustryCap < 1 {
		errs = append(errs, "orders.per_industry_cap must be at least 1")
	}
	switch c.Callboard.Platform {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("callboard.platform %q is not supported (slack, discord)", c.Callboard.Platform))
	}
	if c.Callboard.Platform != "" {
		if c.Callboard.Token == "" {
			errs = append(errs, "callboard.token is required when a platform is set")
		}
		if c.Callboard.Channel == "" {
			errs = append(errs, "callboard.channel is required when a platform is set")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
