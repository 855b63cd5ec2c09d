package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configName = "anyconvert"

// cliConfig is the merged view of config file, ANYCONVERT_* environment and flags.
type cliConfig struct {
	Verbose   bool   `mapstructure:"verbose"`
	OutputDir string `mapstructure:"output_dir"`
	JSON      bool   `mapstructure:"json"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// flagBindings maps config keys to the persistent flags that override them.
var flagBindings = []struct {
	key  string
	flag string
}{
	{"verbose", "verbose"},
	{"output_dir", "output-dir"},
	{"json", "json"},
}

// loadConfig reads anyconvert.yaml from cfgFile, or from ./ and ~/.config/anyconvert/
// when cfgFile is empty. Flags win over the environment, which wins over the file.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (cliConfig, error) {
	var cfg cliConfig
	v := viper.New()

	v.SetDefault("verbose", false)
	v.SetDefault("output_dir", "")
	v.SetDefault("json", false)

	v.SetEnvPrefix("ANYCONVERT")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	for _, b := range flagBindings {
		f := flags.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return cfg, fmt.Errorf("bind flag --%s: %w", b.flag, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return cfg, nil
}

// newLogger logs to w at Info, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
