package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ironsheep/leafmetrics/internal/measure"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leafmetrics.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("defaults differ:\ngot  %+v\nwant %+v", cfg, Default())
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
store:
  backend: redis
  redis:
    addr: cache:6379
    ttl: 48h
measure:
  leaf:
    hue_max: 70
  scale:
    sample_fractions: [0.3, 0.5, 0.7]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Store.Backend != "redis" || cfg.Store.Redis.Addr != "cache:6379" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Store.Redis.TTL != 48*time.Hour {
		t.Errorf("TTL: got %v, want 48h", cfg.Store.Redis.TTL)
	}
	if cfg.Measure.Leaf.HueMax != 70 {
		t.Errorf("HueMax: got %d, want 70", cfg.Measure.Leaf.HueMax)
	}
	if !reflect.DeepEqual(cfg.Measure.Scale.SampleFractions, []float64{0.3, 0.5, 0.7}) {
		t.Errorf("SampleFractions: got %v", cfg.Measure.Scale.SampleFractions)
	}

	def := measure.DefaultConfig()
	if cfg.Measure.Leaf.SaturationMin != def.Leaf.SaturationMin || cfg.Measure.Sheet.Hough != def.Sheet.Hough {
		t.Error("untouched measure settings should keep their defaults")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEAFMETRICS_MEASURE_SHEET_WHITE_THRESHOLD", "130")
	t.Setenv("LEAFMETRICS_STORE_DIR", "/data/records")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Measure.Sheet.WhiteThreshold != 130 {
		t.Errorf("WhiteThreshold: got %d, want 130", cfg.Measure.Sheet.WhiteThreshold)
	}
	if cfg.Store.Dir != "/data/records" {
		t.Errorf("Store.Dir: got %q", cfg.Store.Dir)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}

	path := writeConfig(t, "measure:\n  leaf:\n    width_samples: 1\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected validation error")
	}
}
