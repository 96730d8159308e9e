package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by Load, e.g.
// CONLOG_LEVEL or CONLOG_BUFFER_SIZE.
const EnvPrefix = "CONLOG"

// LoaderConfig holds optional file locations for Load.
type LoaderConfig struct {
	ConfigFile string // YAML file (optional)
	EnvFile    string // .env file (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets the YAML file to read.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets a .env file whose variables are loaded into the
// environment first. Variables already set are not overridden and a
// missing file is ignored.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the configuration from defaults, the YAML file and CONLOG_*
// environment variables, in increasing order of precedence. The result
// has defaults applied and is validated.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	// 1. .env first so its variables take part in the env lookup
	if lc.EnvFile != "" && fileExists(lc.EnvFile) {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", lc.EnvFile)
		}
	}

	v := viper.New()
	setDefaults(v)

	// 2. YAML config
	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", lc.ConfigFile)
		}
	}

	// 3. Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("level", "debug")
	v.SetDefault("silent", false)
	v.SetDefault("sync", true)
	v.SetDefault("source", false)
	v.SetDefault("color", "auto")
	v.SetDefault("output", "stdout")
	v.SetDefault("disable", []string{})
	v.SetDefault("buffer_size", 1000)
	v.SetDefault("block_timeout", "100ms")
	v.SetDefault("drain_timeout", "5s")
	v.SetDefault("coarse_clock", false)
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
