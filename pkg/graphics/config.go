package graphics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration with TOML-friendly text (de)serialization,
// the same pattern the teacher project's pkg/config/duration.go uses for
// every tunable expressed as a time value.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q not allowed", s)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the process-wide, read-once-at-init tunables from
// spec.md §6.
type Config struct {
	// MaxSingleImageFileBytes bounds bytes written to a single image's
	// on-disk cache file during upload.
	MaxSingleImageFileBytes int64 `toml:"max_single_image_file_bytes"`

	// MaxTotalFileCacheBytes bounds the sum of every image's disk_size.
	MaxTotalFileCacheBytes int64 `toml:"max_total_file_cache_bytes"`

	// MaxSingleImageRAMBytes bounds a single composed raster (original or
	// scaled placement).
	MaxSingleImageRAMBytes int64 `toml:"max_single_image_ram_bytes"`

	// MaxTotalRAMBytes bounds images_ram_bytes.
	MaxTotalRAMBytes int64 `toml:"max_total_ram_bytes"`

	// MaxPlacements bounds both the image count and the placement count
	// (spec.md §4.2 budgets 1 and 2 share this single configured limit).
	MaxPlacements int `toml:"max_placements"`

	// ExcessToleranceRatio is how far over a budget is tolerated before
	// check_limits runs (spec.md §4.2).
	ExcessToleranceRatio float64 `toml:"excess_tolerance_ratio"`

	// CacheDirPrefix names the temp-dir template ("<prefix>-XXXXXX") used
	// to create the process's private cache directory (spec.md §6).
	CacheDirPrefix string `toml:"cache_dir_prefix"`

	// EvictionSweepInterval is an ambient tunable expressed the same way
	// the teacher expresses every polling interval. Nothing in this module
	// reads it: the engine exports no eviction entry point and runs
	// check_limits synchronously at the end of every command (spec.md §5).
	EvictionSweepInterval Duration `toml:"eviction_sweep_interval"`
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxSingleImageFileBytes: 20 * 1024 * 1024,
		MaxTotalFileCacheBytes:  300 * 1024 * 1024,
		MaxSingleImageRAMBytes:  100 * 1024 * 1024,
		MaxTotalRAMBytes:        300 * 1024 * 1024,
		MaxPlacements:           4096,
		ExcessToleranceRatio:    0.05,
		CacheDirPrefix:          "kittygfx",
		EvictionSweepInterval:   Duration{30 * time.Second},
	}
}

// LoadConfig reads configuration from a TOML file, falling back to
// DefaultConfig() if the file does not exist. Mirrors the cascade in the
// teacher's pkg/config/load.go (Load/LoadFromFile/LoadFromReader split).
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("graphics: open config %s: %w", path, err)
	}
	defer f.Close()
	return LoadConfigFromReader(f)
}

// LoadConfigFromReader decodes TOML from r on top of DefaultConfig(), then
// applies environment overrides.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("graphics: decode config: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks KITTYGFX_* environment variables, mirroring the
// teacher's PPULSE_* override cascade in pkg/config/load.go.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KITTYGFX_CACHE_DIR_PREFIX"); v != "" {
		cfg.CacheDirPrefix = v
	}
	if v := os.Getenv("KITTYGFX_MAX_TOTAL_RAM_BYTES"); v != "" {
		if n, err := parsePositiveInt64(v); err == nil {
			cfg.MaxTotalRAMBytes = n
		}
	}
	if v := os.Getenv("KITTYGFX_MAX_TOTAL_FILE_CACHE_BYTES"); v != "" {
		if n, err := parsePositiveInt64(v); err == nil {
			cfg.MaxTotalFileCacheBytes = n
		}
	}
}

func parsePositiveInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return n, nil
}
