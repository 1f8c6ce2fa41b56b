package graphics

import (
	"strings"
	"testing"
)

func TestLoadConfigFromReaderAppliesDefaultsAndOverrides(t *testing.T) {
	toml := `
max_placements = 10
excess_tolerance_ratio = 0.1
`
	cfg, err := LoadConfigFromReader(strings.NewReader(toml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxPlacements != 10 {
		t.Errorf("MaxPlacements = %d, want 10", cfg.MaxPlacements)
	}
	if cfg.MaxTotalRAMBytes != DefaultConfig().MaxTotalRAMBytes {
		t.Error("unset fields should keep their DefaultConfig value")
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/kittygfx.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxPlacements != DefaultConfig().MaxPlacements {
		t.Error("expected DefaultConfig() when the file is absent")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KITTYGFX_CACHE_DIR_PREFIX", "custom-prefix")
	t.Setenv("KITTYGFX_MAX_TOTAL_RAM_BYTES", "2048")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.CacheDirPrefix != "custom-prefix" {
		t.Errorf("CacheDirPrefix = %q, want custom-prefix", cfg.CacheDirPrefix)
	}
	if cfg.MaxTotalRAMBytes != 2048 {
		t.Errorf("MaxTotalRAMBytes = %d, want 2048", cfg.MaxTotalRAMBytes)
	}
}

func TestApplyEnvOverridesIgnoresNonPositive(t *testing.T) {
	t.Setenv("KITTYGFX_MAX_TOTAL_FILE_CACHE_BYTES", "-5")
	cfg := DefaultConfig()
	want := cfg.MaxTotalFileCacheBytes
	applyEnvOverrides(cfg)
	if cfg.MaxTotalFileCacheBytes != want {
		t.Error("a non-positive override should be ignored")
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("5s")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Duration.Seconds() != 5 {
		t.Errorf("Duration = %v, want 5s", d.Duration)
	}

	var neg Duration
	if err := neg.UnmarshalText([]byte("-1s")); err == nil {
		t.Error("expected an error for a negative duration")
	}

	var empty Duration
	if err := empty.UnmarshalText([]byte("")); err != nil || empty.Duration != 0 {
		t.Error("empty text should unmarshal to a zero duration with no error")
	}
}
