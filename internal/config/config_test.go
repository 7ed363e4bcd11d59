package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revir/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_API_KEY", "secret")
	t.Setenv("REVIR_HTTP_PORT", "9999")

	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "db", "revir.db")+`
http:
  api_key: ${TEST_API_KEY}
  port: 8000
redis:
  address: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.HTTP.APIKey)
	assert.Equal(t, 9999, cfg.HTTP.Port, "environment overrides yaml")
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "revir:events", cfg.Redis.Channel)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid sqlite", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database driver"},
		{"pgx without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "dsn is required"},
		{"backup on postgres", func(c *Config) {
			c.Database.Driver = DriverPostgres
			c.Database.DSN = "postgres://localhost/revir"
			c.Backup.Enabled = true
		}, "only supported for sqlite3"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

const referenceYAML = `
members:
  - id: 1
    name: Admin
    role: ADMIN
  - id: 2
    name: Hunter
localities:
  - id: 1
    name: North
species:
  - id: 1
    name: Roe deer
    requires_sex: true
    requires_tag: true
cabins:
  - id: 1
    name: Lodge
`

func TestLoadReference(t *testing.T) {
	path := writeFile(t, t.TempDir(), "reference.yaml", referenceYAML)

	ref, err := LoadReference(path)
	require.NoError(t, err)

	require.Len(t, ref.Members, 2)
	assert.Equal(t, models.RoleAdmin, ref.Members[0].Role)
	assert.Equal(t, models.RoleMember, ref.Members[1].Role, "role defaults to MEMBER")
	assert.Equal(t, "Hunter", ref.Members[1].DisplayName)
	require.Len(t, ref.Species, 1)
	assert.True(t, ref.Species[0].RequiresSex)
	assert.False(t, ref.Species[0].RequiresAge)
}

func TestReferenceValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     ReferenceData
		wantErr string
	}{
		{"duplicate id", ReferenceData{Localities: []models.Locality{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}}, "duplicate id 1"},
		{"missing name", ReferenceData{Cabins: []models.Cabin{{ID: 1}}}, "name is required"},
		{"zero id", ReferenceData{Species: []models.Species{{Name: "x"}}}, "id must be positive"},
		{"bad role", ReferenceData{Members: []models.Member{{ID: 1, DisplayName: "x", Role: "OWNER"}}}, "invalid role"},
		{"same id across sections", ReferenceData{
			Localities: []models.Locality{{ID: 1, Name: "a"}},
			Cabins:     []models.Cabin{{ID: 1, Name: "b"}},
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func touch(t *testing.T, path, content string, offset time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	mod := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestReferenceWatcher_Poll(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := writeFile(t, t.TempDir(), "reference.yaml", referenceYAML)

	var applied []*ReferenceData
	w := NewReferenceWatcher(ReferenceConfig{Path: path}, &logger, func(ref *ReferenceData) error {
		applied = append(applied, ref)
		return nil
	})
	require.NoError(t, w.Load())
	require.Len(t, applied, 1)
	assert.Len(t, applied[0].Cabins, 1)

	w.poll()
	assert.Len(t, applied, 1, "unchanged file is not re-applied")

	touch(t, path, referenceYAML+"  - id: 2\n    name: Hut\n", time.Second)
	w.poll()
	require.Len(t, applied, 2)
	assert.Len(t, applied[1].Cabins, 2)

	touch(t, path, referenceYAML+"  - id: 2\n", 2*time.Second)
	w.poll()
	assert.Len(t, applied, 2, "invalid edit is skipped")
}

func TestReferenceWatcher_ApplyError(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := writeFile(t, t.TempDir(), "reference.yaml", referenceYAML)

	w := NewReferenceWatcher(ReferenceConfig{Path: path}, &logger, func(*ReferenceData) error {
		return errors.New("database is locked")
	})
	assert.ErrorContains(t, w.Load(), "apply reference data: database is locked")
}

func TestReferenceWatcher_Run(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := writeFile(t, t.TempDir(), "reference.yaml", referenceYAML)

	updates := make(chan *ReferenceData, 4)
	w := NewReferenceWatcher(ReferenceConfig{Path: path, WatchInterval: 10 * time.Millisecond}, &logger, func(ref *ReferenceData) error {
		updates <- ref
		return nil
	})
	require.NoError(t, w.Load())
	<-updates

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	touch(t, path, referenceYAML+"  - id: 2\n    name: Hut\n", time.Second)
	select {
	case ref := <-updates:
		assert.Len(t, ref.Cabins, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("reference change was not picked up")
	}
}

func TestReferenceWatcher_MissingFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	w := NewReferenceWatcher(ReferenceConfig{Path: filepath.Join(t.TempDir(), "missing.yaml")}, &logger, nil)
	assert.Error(t, w.Load())
}
