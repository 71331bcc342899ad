package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BarCut/internal/model"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvKerf, "2.5")
	t.Setenv(EnvAlgorithm, "Genetic")
	t.Setenv(EnvStockLengths, "6000, 8000,12000")
	t.Setenv(EnvLogLevel, "debug")

	cfg := model.DefaultAppConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.DefaultKerfWidth != 2.5 {
		t.Errorf("expected kerf 2.5, got %f", cfg.DefaultKerfWidth)
	}
	if cfg.DefaultAlgorithm != model.AlgorithmGenetic {
		t.Errorf("expected genetic, got %s", cfg.DefaultAlgorithm)
	}
	if len(cfg.DefaultStockLengths) != 3 || cfg.DefaultStockLengths[1] != 8000 {
		t.Errorf("unexpected stock lengths %v", cfg.DefaultStockLengths)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv(EnvKerf, "wide")
	t.Setenv(EnvAlgorithm, "simulated-annealing")
	t.Setenv(EnvStockLengths, "6000,-1")

	cfg := model.DefaultAppConfig()
	err := ApplyEnv(&cfg)
	if err == nil {
		t.Fatal("expected an error for invalid values")
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultKerfWidth != defaults.DefaultKerfWidth {
		t.Errorf("kerf changed to %f", cfg.DefaultKerfWidth)
	}
	if cfg.DefaultAlgorithm != defaults.DefaultAlgorithm {
		t.Errorf("algorithm changed to %s", cfg.DefaultAlgorithm)
	}
	if len(cfg.DefaultStockLengths) != len(defaults.DefaultStockLengths) {
		t.Errorf("stock lengths changed to %v", cfg.DefaultStockLengths)
	}
}

func TestApplyEnv_SawDialect(t *testing.T) {
	t.Setenv(EnvSawDialect, "Fanuc")
	cfg := model.DefaultAppConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Saw.Dialect != "Fanuc" {
		t.Errorf("expected Fanuc, got %s", cfg.Saw.Dialect)
	}

	t.Setenv(EnvSawDialect, "Heidenhain")
	cfg = model.DefaultAppConfig()
	if err := ApplyEnv(&cfg); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
	if cfg.Saw.Dialect != model.DefaultSawSettings().Dialect {
		t.Errorf("dialect changed to %s", cfg.Saw.Dialect)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("BARCUT_LOG_FORMAT=json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogFormat, "")
	os.Unsetenv(EnvLogFormat)

	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles failed: %v", err)
	}
	if got := os.Getenv(EnvLogFormat); got != "json" {
		t.Errorf("expected json from env file, got %q", got)
	}
}

func TestParseLengths(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"6000", 1, false},
		{"6000,12000", 2, false},
		{" 6000 , ,12000 ", 2, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLengths(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLengths(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("ParseLengths(%q) = %v, want %d values", tt.in, got, tt.want)
		}
	}
}
