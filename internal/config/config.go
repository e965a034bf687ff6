// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package config loads the description of a record graph used by the
// rowgraph command: the database to read, the query of each table and the
// relationships between tables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/canonical/rowgraph"
	"github.com/canonical/rowgraph/rowset"
)

// EnvPrefix is the prefix of environment variables that override the
// configuration file, e.g. ROWGRAPH_DSN or ROWGRAPH_LOG_LEVEL.
const EnvPrefix = "ROWGRAPH"

// Drivers are the database/sql driver names that can be configured.
var Drivers = []string{"sqlite3", "pgx"}

// Config describes a record graph.
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`

	// Setup statements are executed in order before any table is queried.
	Setup []string `mapstructure:"setup"`

	// Root names the table printed as the top of the graph. It defaults to
	// the first table.
	Root string `mapstructure:"root"`

	// LayoutCapacity bounds the record layout cache. Zero means no bound.
	LayoutCapacity int `mapstructure:"layout_capacity"`

	Tables        []Table        `mapstructure:"tables"`
	Relationships []Relationship `mapstructure:"relationships"`
	Log           Log            `mapstructure:"log"`
}

// Table is a named query whose result forms one table of the graph.
type Table struct {
	Name  string `mapstructure:"name"`
	Query string `mapstructure:"query"`
}

// Relationship links two tables by name. Collection defaults to the name of
// the child table.
type Relationship struct {
	Parent     string `mapstructure:"parent"`
	Child      string `mapstructure:"child"`
	ParentKey  string `mapstructure:"parent_key"`
	ChildKey   string `mapstructure:"child_key"`
	Collection string `mapstructure:"collection"`
}

// Log configures the logger of the command.
type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "sqlite3")
	v.SetDefault("dsn", ":memory:")
	v.SetDefault("root", "")
	v.SetDefault("layout_capacity", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
}

// Load reads the configuration file at path. Scalar settings can be
// overridden by environment variables carrying EnvPrefix. The returned
// configuration has been validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that the configuration describes a usable graph and fills
// in the defaults that depend on other settings.
func (c *Config) Validate() error {
	if !knownDriver(c.Driver) {
		return fmt.Errorf("driver %q is not one of %s", c.Driver, strings.Join(Drivers, ", "))
	}
	if c.DSN == "" {
		return errors.New("dsn is empty")
	}
	if c.LayoutCapacity < 0 {
		return fmt.Errorf("layout_capacity must not be negative, got %d", c.LayoutCapacity)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Tables) == 0 {
		return errors.New("no tables")
	}

	names := make(map[string]bool, len(c.Tables))
	for i, t := range c.Tables {
		if t.Name == "" {
			return fmt.Errorf("table %d has no name", i)
		}
		key := rowset.CanonicalName(t.Name)
		if names[key] {
			return fmt.Errorf("table %q is defined twice", t.Name)
		}
		names[key] = true
		if strings.TrimSpace(t.Query) == "" {
			return fmt.Errorf("table %q has no query", t.Name)
		}
	}

	if c.Root == "" {
		c.Root = c.Tables[0].Name
	} else if !names[rowset.CanonicalName(c.Root)] {
		return fmt.Errorf("root table %q is not defined", c.Root)
	}

	for i := range c.Relationships {
		r := &c.Relationships[i]
		if !names[rowset.CanonicalName(r.Parent)] {
			return fmt.Errorf("relationship %d: parent table %q is not defined", i, r.Parent)
		}
		if !names[rowset.CanonicalName(r.Child)] {
			return fmt.Errorf("relationship %d: child table %q is not defined", i, r.Child)
		}
		if r.ParentKey == "" || r.ChildKey == "" {
			return fmt.Errorf("relationship %d: parent_key and child_key are required", i)
		}
		if r.Collection == "" {
			r.Collection = r.Child
		}
	}
	return nil
}

func knownDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}

// TableIndex returns the position of the named table.
func (c *Config) TableIndex(name string) int {
	key := rowset.CanonicalName(name)
	for i, t := range c.Tables {
		if rowset.CanonicalName(t.Name) == key {
			return i
		}
	}
	return -1
}

// Descriptors returns the relationships with tables named by index.
func (c *Config) Descriptors() []rowgraph.Relationship {
	rels := make([]rowgraph.Relationship, len(c.Relationships))
	for i, r := range c.Relationships {
		rels[i] = rowgraph.Relationship{
			Parent:     c.TableIndex(r.Parent),
			Child:      c.TableIndex(r.Child),
			ParentKey:  r.ParentKey,
			ChildKey:   r.ChildKey,
			Collection: r.Collection,
		}
	}
	return rels
}

// Logger builds the logger described by l.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if l.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}
