// Package config resolves fa settings from defaults, a config file, .env,
// FA_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/komsit37/fa/pkg/fa/logging"
)

// Keys.
const (
	KeyStart       = "start"
	KeyNewsLimit   = "news_limit"
	KeyTimeout     = "timeout"
	KeyFormat      = "format"
	KeyColor       = "color"
	KeyMaxColWidth = "max_col_width"
	KeyLogLevel    = "log_level"
	KeyOfflineDir  = "offline_dir"
	KeyUserAgent   = "user_agent"
	KeyStatements  = "statements"
	KeyGroups      = "groups"
	KeyRatios      = "ratios"
)

const dateLayout = "2006-01-02"

// Formats lists the accepted output formats.
var Formats = []string{"table", "json", "csv", "markdown"}

// Config is the resolved configuration for one run.
type Config struct {
	Start       string
	NewsLimit   int
	Timeout     time.Duration
	Format      string
	Color       bool
	MaxColWidth int
	LogLevel    string
	OfflineDir  string
	UserAgent   string
	Statements  bool
	Groups      []string
	Ratios      string
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStart, "2020-01-01")
	v.SetDefault(KeyNewsLimit, 5)
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyFormat, "table")
	v.SetDefault(KeyColor, true)
	v.SetDefault(KeyMaxColWidth, 0)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyOfflineDir, "")
	v.SetDefault(KeyUserAgent, "")
	v.SetDefault(KeyStatements, false)
	v.SetDefault(KeyGroups, []string{})
	v.SetDefault(KeyRatios, "")
}

// Options locate the optional config and .env files.
type Options struct {
	// ConfigFile is read when set and must exist. Otherwise
	// <user config dir>/fa/config.yaml is read if present.
	ConfigFile string
	// EnvFile defaults to .env in the working directory; missing is fine.
	EnvFile string
}

// Load resolves the configuration. Flags must already be bound to v.
func Load(v *viper.Viper, opts Options) (Config, error) {
	SetDefaults(v)

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return Config{}, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	v.SetEnvPrefix("FA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Start:       strings.TrimSpace(v.GetString(KeyStart)),
		NewsLimit:   v.GetInt(KeyNewsLimit),
		Timeout:     v.GetDuration(KeyTimeout),
		Format:      strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat))),
		Color:       v.GetBool(KeyColor),
		MaxColWidth: v.GetInt(KeyMaxColWidth),
		LogLevel:    v.GetString(KeyLogLevel),
		OfflineDir:  v.GetString(KeyOfflineDir),
		UserAgent:   v.GetString(KeyUserAgent),
		Statements:  v.GetBool(KeyStatements),
		Groups:      splitList(v.GetStringSlice(KeyGroups)),
		Ratios:      v.GetString(KeyRatios),
	}
	return cfg, cfg.Validate()
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(dir, "fa"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// splitList accepts both ["a","b"] and ["a,b"] (env vars arrive as one string).
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := time.Parse(dateLayout, c.Start); err != nil {
		return fmt.Errorf("invalid start date %q: want YYYY-MM-DD", c.Start)
	}
	if !validFormat(c.Format) {
		return fmt.Errorf("unknown format %q (want %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.NewsLimit < 0 {
		return fmt.Errorf("news limit must be >= 0, got %d", c.NewsLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxColWidth < 0 {
		return fmt.Errorf("max column width must be >= 0, got %d", c.MaxColWidth)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// StartTime is Start parsed as a UTC date. Call after Validate.
func (c Config) StartTime() time.Time {
	t, _ := time.Parse(dateLayout, c.Start)
	return t
}

func validFormat(f string) bool {
	for _, ok := range Formats {
		if f == ok {
			return true
		}
	}
	return false
}
