// Package config loads clientvault settings from defaults, a YAML file,
// CLIENTVAULT_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Hussein-Mazeh/clientvault/store"
)

const (
	appName  = "clientvault"
	fileName = appName + ".yaml"
)

type Config struct {
	DataDir   string         `mapstructure:"data_dir" yaml:"data_dir"`
	Biometric bool           `mapstructure:"biometric" yaml:"biometric"`
	Secrets   SecretsConfig  `mapstructure:"secrets" yaml:"secrets"`
	Backup    BackupConfig   `mapstructure:"backup" yaml:"backup"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
	Password  PasswordConfig `mapstructure:"password" yaml:"password"`
}

type SecretsConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Service string `mapstructure:"service" yaml:"service"`
}

type BackupConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Base64 bool   `mapstructure:"base64" yaml:"base64"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type PasswordConfig struct {
	MinLength      int `mapstructure:"min_length" yaml:"min_length"`
	GenerateLength int `mapstructure:"generate_length" yaml:"generate_length"`
}

// Paths resolves the on-disk layout under DataDir.
func (c Config) Paths() store.Paths { return store.Paths{Dir: c.DataDir} }

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"log-level": "log.level",
	"biometric": "biometric",
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"data_dir":                 defaultDataDir(),
		"biometric":                false,
		"secrets.backend":          "keyring",
		"secrets.service":          appName,
		"backup.dir":               ".",
		"backup.prefix":            "vault_backup",
		"backup.base64":            false,
		"log.level":                "warn",
		"log.format":               "console",
		"password.min_length":      8,
		"password.generate_length": 16,
	}
}

// DefaultPath is where `config init` writes and where Load looks first.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appName, fileName), nil
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(dir, appName)
}

// Load builds the effective configuration. configFile, when set, must exist;
// otherwise clientvault.yaml is looked up in the user config directory and
// the working directory, and its absence is not an error. flags may be nil.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(appName)
		if p, err := DefaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if c.DataDir == "" {
		return c, errors.New("data_dir must not be empty")
	}
	return c, nil
}

// Write serialises c as YAML at path with owner-only permissions.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := store.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
