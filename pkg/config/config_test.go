package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
marker = "+"
log_level = "debug"
snapshot = "/tmp/map.yaml"

[render]
rankdir = "LR"
cache = "redis"
ttl = "1h"

[redis]
addr = "localhost:6379"
db = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Marker != "+" || cfg.LogLevel != "debug" || cfg.Snapshot != "/tmp/map.yaml" {
		t.Errorf("top-level fields = %+v", cfg)
	}
	if cfg.Render.RankDir != "LR" || cfg.Render.Cache != CacheRedis || cfg.Render.TTL != time.Hour {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Addr != "127.0.0.1:8080" || cfg.Mongo.Collection != "render_cache" {
		t.Errorf("defaults lost: server=%+v mongo=%+v", cfg.Server, cfg.Mongo)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `marker = `, "parse config"},
		{"unknown key", `colour = "red"`, "unknown keys colour"},
		{"bad level", `log_level = "loud"`, "LogLevel failed oneof"},
		{"bad rankdir", "[render]\nrankdir = \"UD\"", "Render.RankDir failed oneof"},
		{"empty marker", `marker = ""`, "Marker failed required"},
		{"bad server addr", "[server]\naddr = \"nope\"", "Server.Addr failed hostname_port"},
		{"redis without addr", "[render]\ncache = \"redis\"", "redis.addr is empty"},
		{"mongo without uri", "[render]\ncache = \"mongo\"", "mongo.uri is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !mwerrors.Is(err, mwerrors.ErrCodeInvalidInput) {
				t.Fatalf("Load error = %v, want INVALID_INPUT", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") with no file: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}

	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !mwerrors.Is(err, mwerrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	if err != nil || p != "/tmp/xdg/mindweb/config.toml" {
		t.Errorf("DefaultPath() = %q, %v", p, err)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	p, _ = DefaultPath()
	if want := filepath.Join(home, ".config", "mindweb", "config.toml"); p != want {
		t.Errorf("DefaultPath() = %q, want %q", p, want)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := Default()
	want.Marker = "▸"
	want.Render.Cache = CacheMongo
	want.Mongo.URI = "mongodb://localhost:27017"

	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"~/maps/a.json": filepath.Join(home, "maps/a.json"),
		"~":             home,
		"/abs/a.json":   "/abs/a.json",
		"rel/~/a.json":  "rel/~/a.json",
	}
	for in, want := range tests {
		if got := expandHome(in); got != want {
			t.Errorf("expandHome(%q) = %q, want %q", in, got, want)
		}
	}
}
