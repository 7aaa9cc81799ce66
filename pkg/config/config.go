// Package config loads the mindweb configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/mindweb/config.toml, or
// ~/.config/mindweb/config.toml when XDG_CONFIG_HOME is unset. Every field is
// optional; missing fields keep the values from [Default].
//
//	marker    = "*"
//	log_level = "info"
//	snapshot  = "~/maps/halloween.json"
//
//	[render]
//	rankdir = "TB"
//	cache   = "file"   # file, redis, mongo or none
//	ttl     = "168h"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = "127.0.0.1:8080"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

const appName = "mindweb"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheMongo = "mongo"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Marker   string `toml:"marker" validate:"required,max=8"`
	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
	Snapshot string `toml:"snapshot,omitempty"`

	Render RenderConfig `toml:"render"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
	Server ServerConfig `toml:"server"`
}

type RenderConfig struct {
	RankDir string        `toml:"rankdir" validate:"oneof=TB LR BT RL"`
	Cache   string        `toml:"cache" validate:"oneof=file redis mongo none"`
	TTL     time.Duration `toml:"ttl" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `toml:"addr,omitempty" validate:"omitempty,hostname_port"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db" validate:"gte=0"`
}

type MongoConfig struct {
	URI        string `toml:"uri,omitempty" validate:"omitempty,uri"`
	Database   string `toml:"database" validate:"required"`
	Collection string `toml:"collection" validate:"required"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Marker:   "*",
		LogLevel: "info",
		Render: RenderConfig{
			RankDir: "TB",
			Cache:   CacheFile,
			TTL:     7 * 24 * time.Hour,
		},
		Mongo: MongoConfig{
			Database:   appName,
			Collection: "render_cache",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

var validate = validator.New()

// Validate checks field values and the settings each cache backend needs.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return mwerrors.New(mwerrors.ErrCodeInvalidInput, "invalid config: %s", strings.Join(msgs, "; "))
		}
		return mwerrors.Wrap(mwerrors.ErrCodeInvalidInput, err, "invalid config")
	}
	switch {
	case c.Render.Cache == CacheRedis && c.Redis.Addr == "":
		return mwerrors.New(mwerrors.ErrCodeInvalidInput, "invalid config: render.cache is redis but redis.addr is empty")
	case c.Render.Cache == CacheMongo && c.Mongo.URI == "":
		return mwerrors.New(mwerrors.ErrCodeInvalidInput, "invalid config: render.cache is mongo but mongo.uri is empty")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value())
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path over the defaults and validates the
// result. An empty path means DefaultPath, which may be missing; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Default(), nil
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, mwerrors.Wrap(mwerrors.ErrCodeFileNotFound, err, "config %s", path)
	case err != nil:
		return Config{}, mwerrors.Wrap(mwerrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, mwerrors.New(mwerrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	cfg.Snapshot = expandHome(cfg.Snapshot)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write stores cfg at path, creating the parent directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "create config dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "create config %s", path)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write config %s", path)
	}
	if err := f.Close(); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write config %s", path)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
