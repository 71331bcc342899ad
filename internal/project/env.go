package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/piwi3910/BarCut/internal/model"
)

// Environment variables that override the stored configuration.
const (
	EnvKerf           = "BARCUT_KERF"
	EnvAngleTolerance = "BARCUT_ANGLE_TOLERANCE"
	EnvMinMiter       = "BARCUT_MIN_MITER"
	EnvAlgorithm      = "BARCUT_ALGORITHM"
	EnvStockLengths   = "BARCUT_STOCK_LENGTHS" // comma-separated mm
	EnvLogLevel       = "BARCUT_LOG_LEVEL"
	EnvLogFormat      = "BARCUT_LOG_FORMAT"
	EnvSawDialect     = "BARCUT_SAW_DIALECT"
)

// LoadEnvFiles loads KEY=VALUE pairs from the given .env files (".env" when
// none are named) without overriding variables already set. Missing files
// are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config fields from BARCUT_* variables. Unparseable
// values are reported and leave the field unchanged.
func ApplyEnv(config *model.AppConfig) error {
	var errs []error

	floatVar := func(name string, dst *float64) {
		v, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid value %q", name, v))
			return
		}
		*dst = f
	}

	floatVar(EnvKerf, &config.DefaultKerfWidth)
	floatVar(EnvAngleTolerance, &config.DefaultAngleTolerance)
	floatVar(EnvMinMiter, &config.DefaultMinMiterAngle)

	if v := strings.TrimSpace(os.Getenv(EnvAlgorithm)); v != "" {
		switch a := model.Algorithm(strings.ToLower(v)); a {
		case model.AlgorithmGreedy, model.AlgorithmGenetic:
			config.DefaultAlgorithm = a
		default:
			errs = append(errs, fmt.Errorf("%s: unknown algorithm %q", EnvAlgorithm, v))
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvStockLengths)); v != "" {
		lengths, err := ParseLengths(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvStockLengths, err))
		} else {
			config.DefaultStockLengths = lengths
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		config.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSawDialect)); v != "" {
		if model.GetSawDialect(v).Name != v {
			errs = append(errs, fmt.Errorf("%s: unknown dialect %q", EnvSawDialect, v))
		} else {
			config.Saw.Dialect = v
		}
	}

	return errors.Join(errs...)
}

// ParseLengths reads a comma-separated list of positive lengths in mm.
func ParseLengths(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid length %q", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no lengths in %q", s)
	}
	return out, nil
}
