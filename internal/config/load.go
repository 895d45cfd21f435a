package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: CINEDEX_DB__DSN sets db.dsn.
const EnvPrefix = "CINEDEX_"

// ConfigPathEnvVar names the config file when --config is not given.
const ConfigPathEnvVar = "CINEDEX_CONFIG"

// Load builds a ServerConfig from defaults, the YAML file at path (or
// $CINEDEX_CONFIG) and the environment. A missing .env file is ignored.
func Load(path string) (ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ServerConfig{}, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultServerConfig(), "koanf"), nil); err != nil {
		return ServerConfig{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ServerConfig{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return ServerConfig{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// envKey maps CINEDEX_CACHE__BADGER_PATH to cache.badger_path.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
