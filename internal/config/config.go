// Package config loads mojify settings from mojify.toml, MOJIFY_*
// environment variables and bound command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	FileName  = "mojify"
	EnvPrefix = "MOJIFY"
)

type Split struct {
	MethodFrom string   `mapstructure:"method_from" toml:"method_from"`
	MethodTo   string   `mapstructure:"method_to" toml:"method_to"`
	MarksFrom  []string `mapstructure:"marks_from" toml:"marks_from"`
	MarksTo    []string `mapstructure:"marks_to" toml:"marks_to"`
	Surrogate  string   `mapstructure:"surrogate" toml:"surrogate"`
	Trim       bool     `mapstructure:"trim" toml:"trim"`
	ModelDir   string   `mapstructure:"model_dir" toml:"model_dir"`
}

type Translation struct {
	Enabled        bool   `mapstructure:"enabled" toml:"enabled"`
	Service        string `mapstructure:"service" toml:"service"`
	Workers        int    `mapstructure:"workers" toml:"workers"`
	Cache          bool   `mapstructure:"cache" toml:"cache"`
	Email          string `mapstructure:"email" toml:"email"`
	APIKey         string `mapstructure:"api_key" toml:"api_key"`
	Credentials    string `mapstructure:"credentials" toml:"credentials"`
	ProjectID      string `mapstructure:"project_id" toml:"project_id"`
	BaseURL        string `mapstructure:"base_url" toml:"base_url"`
	Model          string `mapstructure:"model" toml:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

type Alignment struct {
	Engine       string `mapstructure:"engine" toml:"engine"`
	Model        string `mapstructure:"model" toml:"model"`
	BatchSize    int    `mapstructure:"batch_size" toml:"batch_size"`
	ExtraBatches int    `mapstructure:"extra_batches" toml:"extra_batches"`
	Python       string `mapstructure:"python" toml:"python"`
	Script       string `mapstructure:"script" toml:"script"`
}

type Logging struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

type Config struct {
	// WorkDir holds the db/ and img/ directories.
	WorkDir string `mapstructure:"work_dir" toml:"work_dir"`
	// Database is the translation memory and run ledger.
	Database    string      `mapstructure:"database" toml:"database"`
	Emojis      string      `mapstructure:"emojis" toml:"emojis"`
	Split       Split       `mapstructure:"split" toml:"split"`
	Translation Translation `mapstructure:"translation" toml:"translation"`
	Alignment   Alignment   `mapstructure:"alignment" toml:"alignment"`
	Logging     Logging     `mapstructure:"logging" toml:"logging"`
}

// Load reads the configuration through v. With an empty path, mojify.toml
// is looked up in the working directory and in ~/.config/mojify; a missing
// file is not an error. Flags bound to v before Load take precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mojify"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key of Default with v so environment
// variables can override keys absent from the file.
func setDefaults(v *viper.Viper) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	walk("", tree, v.SetDefault)
	return nil
}

func walk(prefix string, tree map[string]any, set func(string, any)) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			walk(key, sub, set)
			continue
		}
		set(key, val)
	}
}

// Encode renders c as TOML.
func Encode(c *Config) ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration as TOML to path.
func WriteDefault(path string) error {
	def := Default()
	data, err := Encode(&def)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	header := "# mojify configuration. Environment variables MOJIFY_<SECTION>_<KEY> override these values.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
