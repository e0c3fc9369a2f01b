package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"evcal/internal/highlight"
	appLog "evcal/internal/log"
)

// NOTE: Load creates a default config file on first run; Save always
// writes atomically with 0600 permissions.

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// OverflowConfig tunes the generated colors used once the palette runs out.
type OverflowConfig struct {
	Saturation float64 `yaml:"saturation" json:"saturation"`
	Value      float64 `yaml:"value" json:"value"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataFile is the JSON document holding all events.
	DataFile string `yaml:"data_file" json:"data_file"`

	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in month views. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// ReloadCron is a cron-style schedule (e.g. "*/5 * * * *") on which the
	// server re-reads DataFile. Empty disables periodic reload.
	ReloadCron string `yaml:"reload" json:"reload"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// AutoJump moves the month view to the earliest selected event after a
	// filter is applied.
	AutoJump bool `yaml:"auto_jump" json:"auto_jump"`

	// Palette is the ordered list of hand-picked highlight colors (#rrggbb).
	Palette []string `yaml:"palette" json:"palette"`

	Overflow OverflowConfig `yaml:"overflow" json:"overflow"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen     = "127.0.0.1:8080"
	defaultSaturation = 0.65
	defaultValue      = 0.90
)

// DefaultPath returns the per-user config location, falling back to the
// working directory when no config dir is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "evcal.yaml"
	}
	return filepath.Join(dir, "evcal", "config.yaml")
}

// DefaultDataFile places the event document next to the config by default.
func DefaultDataFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "schedule.json"
	}
	return filepath.Join(dir, "evcal", "schedule.json")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile:   DefaultDataFile(),
		Listen:     defaultListen,
		WeekStart:  "monday",
		ReloadCron: "",
		LogLevel:   "info",
		AutoJump:   true,
		Palette:    append([]string(nil), highlight.DefaultPalette...),
		Overflow: OverflowConfig{
			Saturation: defaultSaturation,
			Value:      defaultValue,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile()
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}

	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Palette == nil {
		c.Palette = append([]string(nil), highlight.DefaultPalette...)
	}
	valid := c.Palette[:0]
	for _, p := range c.Palette {
		col, err := colorful.Hex(strings.TrimSpace(p))
		if err != nil {
			appLog.Warn("dropping invalid palette color", "color", p)
			continue
		}
		valid = append(valid, col.Hex())
	}
	c.Palette = valid

	if c.Overflow.Saturation <= 0 || c.Overflow.Saturation > 1 {
		c.Overflow.Saturation = defaultSaturation
	}
	if c.Overflow.Value <= 0 || c.Overflow.Value > 1 {
		c.Overflow.Value = defaultValue
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".evcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// Assigner builds the highlight assigner described by the config.
func (c *Config) Assigner() *highlight.Assigner {
	return highlight.NewAssigner(c.Palette, highlight.HSVOverflow(c.Overflow.Saturation, c.Overflow.Value))
}
