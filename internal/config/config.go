// Package config loads urlpad settings from defaults, an optional YAML file,
// URLPAD_* environment variables and command-line flags (in increasing
// precedence) using viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint = "http://127.0.0.1:8000"
	DefaultPath     = "/projects"
	DefaultDelay    = 1000 * time.Millisecond

	EnvPrefix = "URLPAD"
)

// Trace exporters.
const (
	TraceNone   = "none"
	TraceStdout = "stdout"
	TraceOTLP   = "otlp"
)

var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrInvalidPath     = errors.New("invalid path")
	ErrInvalidDelay    = errors.New("invalid delay")
	ErrInvalidTimeout  = errors.New("invalid timeout")
	ErrInvalidTrace    = errors.New("invalid trace settings")
)

// Trace configures optional OpenTelemetry export of submission spans.
type Trace struct {
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	File     string `mapstructure:"file" yaml:"file,omitempty"`
}

// Theme selects a colour preset and per-token overrides, for example
// "state.success": "#00AA00".
type Theme struct {
	Preset string            `mapstructure:"preset" yaml:"preset,omitempty"`
	Colors map[string]string `mapstructure:"colors" yaml:"colors,omitempty"`
}

// Config is the effective urlpad configuration.
type Config struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Path     string        `mapstructure:"path" yaml:"path"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay"`
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
	LogFile string        `mapstructure:"log_file" yaml:"log_file"`
	Trace   Trace         `mapstructure:"trace" yaml:"trace"`
	Theme   Theme         `mapstructure:"theme" yaml:"theme,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Path:     DefaultPath,
		Delay:    DefaultDelay,
		LogFile:  "debug.log",
		Trace:    Trace{Exporter: TraceNone},
	}
}

// keyDelim replaces viper's "." so theme token names such as
// "state.success" survive as single map keys.
const keyDelim = "::"

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":       "endpoint",
	"path":           "path",
	"delay":          "delay",
	"timeout":        "timeout",
	"debug":          "debug",
	"log-file":       "log_file",
	"trace":          "trace::exporter",
	"trace-endpoint": "trace::endpoint",
	"trace-file":     "trace::file",
}

// setDefaults registers every key with v so that environment overrides
// apply during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("path", d.Path)
	v.SetDefault("delay", d.Delay)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("trace::exporter", d.Trace.Exporter)
	v.SetDefault("trace::endpoint", d.Trace.Endpoint)
	v.SetDefault("trace::file", d.Trace.File)
	v.SetDefault("theme::preset", d.Theme.Preset)
}

// DefaultFile returns $XDG_CONFIG_HOME/urlpad/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "urlpad", "config.yaml")
}

// Load reads configuration into a Config. An explicit file must exist; the
// default file is optional. Flags in fs that were set on the command line
// take precedence over everything else; fs may be nil.
func Load(file string, fs *pflag.FlagSet) (Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	explicit := file != ""
	if !explicit {
		file = DefaultFile()
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			switch {
			case explicit:
				return Config{}, fmt.Errorf("reading config %s: %w", file, err)
			case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
				// Default file is optional
			default:
				return Config{}, fmt.Errorf("reading config %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values and returns a wrapped sentinel error for the
// first problem found.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidEndpoint, c.Endpoint)
	}

	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPath, c.Path)
	}

	if c.Delay <= 0 {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidDelay, c.Delay)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: must not be negative, got %s", ErrInvalidTimeout, c.Timeout)
	}

	switch c.Trace.Exporter {
	case "", TraceNone, TraceStdout:
	case TraceOTLP:
		if c.Trace.Endpoint == "" {
			return fmt.Errorf("%w: otlp exporter needs trace.endpoint", ErrInvalidTrace)
		}
	default:
		return fmt.Errorf("%w: unknown exporter %q", ErrInvalidTrace, c.Trace.Exporter)
	}

	return nil
}

// URL returns the full submission URL.
func (c Config) URL() string {
	return strings.TrimRight(c.Endpoint, "/") + c.Path
}

// YAML renders the configuration in config-file form.
func (c Config) YAML() ([]byte, error) {
	out := struct {
		Endpoint string `yaml:"endpoint"`
		Path     string `yaml:"path"`
		Delay    string `yaml:"delay"`
		Timeout  string `yaml:"timeout"`
		Debug    bool   `yaml:"debug"`
		LogFile  string `yaml:"log_file"`
		Trace    Trace  `yaml:"trace"`
		Theme    Theme  `yaml:"theme,omitempty"`
	}{
		Endpoint: c.Endpoint,
		Path:     c.Path,
		Delay:    c.Delay.String(),
		Timeout:  c.Timeout.String(),
		Debug:    c.Debug,
		LogFile:  c.LogFile,
		Trace:    c.Trace,
		Theme:    c.Theme,
	}
	return yaml.Marshal(out)
}
