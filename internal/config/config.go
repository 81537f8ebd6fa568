package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRoot        = "vdir"
	DefaultLogLevel    = "info"
	DefaultTimezone    = "UTC"
	DefaultHorizonDays = 7
	DefaultRefresh     = "*/15 * * * *"
)

// Config is the top-level application configuration.
type Config struct {
	// Root is the directory holding the collections.
	Root string `yaml:"root" json:"root" validate:"required"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn warning error"`

	// RequireICalUID rejects iCalendar items whose components do not share
	// a single UID.
	RequireICalUID bool `yaml:"require_ical_uid" json:"require_ical_uid"`

	// Timezone is the IANA timezone agendas are shown in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone" validate:"required,tzname"`

	// HorizonDays is the number of days an agenda covers.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days" validate:"min=1,max=366"`

	// Refresh is a cron-style schedule string (e.g. "*/15 * * * *") for
	// the watch command.
	Refresh string `yaml:"refresh" json:"refresh" validate:"required,cronspec"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Root:        DefaultRoot,
		LogLevel:    DefaultLogLevel,
		Timezone:    DefaultTimezone,
		HorizonDays: DefaultHorizonDays,
		Refresh:     DefaultRefresh,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	if c.Refresh == "" {
		c.Refresh = DefaultRefresh
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("tzname", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field values after Normalize.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path from the OS filesystem. See LoadFs.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads the YAML config at path. A missing file is a first run:
// the default config is written there (parents created, 0600) and
// returned. If that write fails the defaults are returned together with
// the error. An existing file is normalized and validated.
func LoadFs(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, SaveFs(fsys, path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path on the OS filesystem. See SaveFs.
func Save(path string, cfg *Config) error {
	return SaveFs(afero.NewOsFs(), path, cfg)
}

// SaveFs normalizes, validates and writes cfg as YAML. The file is
// staged next to path and renamed over it, so readers never see a
// partial config. Parents are created 0700, the file ends up 0600.
func SaveFs(fsys afero.Fs, path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fsys, dir, ".vdir-config-*.tmp")
	if err != nil {
		return err
	}
	staged := tmp.Name()
	defer fsys.Remove(staged)

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := fsys.Chmod(staged, 0o600); err != nil {
		return err
	}
	return fsys.Rename(staged, path)
}

// Save writes c to path, see Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
