// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/rowgraph"
)

const graphYAML = `
tables:
  - name: person
    query: SELECT id, name FROM person
  - name: pet
    query: SELECT id, owner_id, name FROM pet
relationships:
  - parent: person
    child: pet
    parent_key: id
    child_key: owner_id
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, graphYAML))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, ":memory:", cfg.DSN)
	assert.Equal(t, "person", cfg.Root)
	assert.Equal(t, 0, cfg.LayoutCapacity)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)

	require.Len(t, cfg.Tables, 2)
	assert.Equal(t, Table{Name: "pet", Query: "SELECT id, owner_id, name FROM pet"}, cfg.Tables[1])
	require.Len(t, cfg.Relationships, 1)
	assert.Equal(t, "pet", cfg.Relationships[0].Collection)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
driver: pgx
dsn: postgres://localhost/pets
root: pet
layout_capacity: 8
setup:
  - CREATE TABLE pet (id integer)
log:
  level: debug
  development: true
tables:
  - name: pet
    query: SELECT id FROM pet
`))
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://localhost/pets", cfg.DSN)
	assert.Equal(t, "pet", cfg.Root)
	assert.Equal(t, 8, cfg.LayoutCapacity)
	assert.Equal(t, []string{"CREATE TABLE pet (id integer)"}, cfg.Setup)
	assert.Equal(t, Log{Level: "debug", Development: true}, cfg.Log)

	logger, err := cfg.Log.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROWGRAPH_DSN", "file:pets.db")
	t.Setenv("ROWGRAPH_LOG_LEVEL", "error")
	t.Setenv("ROWGRAPH_ROOT", "pet")

	cfg, err := Load(writeConfig(t, graphYAML))
	require.NoError(t, err)
	assert.Equal(t, "file:pets.db", cfg.DSN)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "pet", cfg.Root)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "cannot read config")

	_, err = Load(writeConfig(t, "tables: [\n"))
	assert.ErrorContains(t, err, "cannot read config")

	_, err = Load(writeConfig(t, "driver: oracle\n"+graphYAML))
	assert.ErrorContains(t, err, `driver "oracle" is not one of sqlite3, pgx`)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Driver: "sqlite3",
			DSN:    ":memory:",
			Log:    Log{Level: "info"},
			Tables: []Table{{Name: "a", Query: "SELECT 1"}, {Name: "b", Query: "SELECT 2"}},
			Relationships: []Relationship{{
				Parent: "a", Child: "b", ParentKey: "id", ChildKey: "a_id",
			}},
		}
	}

	tests := []struct {
		summary string
		change  func(*Config)
		err     string
	}{{
		summary: "empty dsn",
		change:  func(c *Config) { c.DSN = "" },
		err:     "dsn is empty",
	}, {
		summary: "negative capacity",
		change:  func(c *Config) { c.LayoutCapacity = -1 },
		err:     "layout_capacity must not be negative, got -1",
	}, {
		summary: "bad log level",
		change:  func(c *Config) { c.Log.Level = "loud" },
		err:     "log.level: ",
	}, {
		summary: "no tables",
		change:  func(c *Config) { c.Tables = nil },
		err:     "no tables",
	}, {
		summary: "unnamed table",
		change:  func(c *Config) { c.Tables[1].Name = "" },
		err:     "table 1 has no name",
	}, {
		summary: "duplicate table",
		change:  func(c *Config) { c.Tables[1].Name = `"A"` },
		err:     `table "\"A\"" is defined twice`,
	}, {
		summary: "empty query",
		change:  func(c *Config) { c.Tables[0].Query = " " },
		err:     `table "a" has no query`,
	}, {
		summary: "unknown root",
		change:  func(c *Config) { c.Root = "c" },
		err:     `root table "c" is not defined`,
	}, {
		summary: "unknown parent",
		change:  func(c *Config) { c.Relationships[0].Parent = "c" },
		err:     `relationship 0: parent table "c" is not defined`,
	}, {
		summary: "unknown child",
		change:  func(c *Config) { c.Relationships[0].Child = "c" },
		err:     `relationship 0: child table "c" is not defined`,
	}, {
		summary: "missing key",
		change:  func(c *Config) { c.Relationships[0].ChildKey = "" },
		err:     "relationship 0: parent_key and child_key are required",
	}}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			cfg := valid()
			test.change(&cfg)
			assert.ErrorContains(t, cfg.Validate(), test.err)
		})
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "a", cfg.Root)
	assert.Equal(t, "b", cfg.Relationships[0].Collection)
}

func TestDescriptors(t *testing.T) {
	cfg, err := Load(writeConfig(t, graphYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.TableIndex("PET"))
	assert.Equal(t, -1, cfg.TableIndex("owner"))
	assert.Equal(t, []rowgraph.Relationship{{
		Parent: 0, Child: 1, ParentKey: "id", ChildKey: "owner_id", Collection: "pet",
	}}, cfg.Descriptors())
}
