package model

// Algorithm selects the nesting strategy.
type Algorithm string

const (
	AlgorithmGreedy  Algorithm = "greedy"  // Boundary-aware greedy fill with look-ahead (fast, deterministic)
	AlgorithmGenetic Algorithm = "genetic" // Seeded genetic search over piece order (slower, sometimes better)
)

// GeneticSettings holds parameters for the genetic nesting search.
type GeneticSettings struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`
	EliteCount     int     `json:"elite_count"`
}

// NestSettings holds the cutting-stock optimizer configuration. The
// tolerances are tuned constants rather than derived values.
type NestSettings struct {
	Algorithm           Algorithm       `json:"algorithm"`
	KerfWidth           float64         `json:"kerf_width"`            // Saw blade allowance between non-flush pieces, mm
	AngleTolerance      float64         `json:"angle_tolerance"`       // Max miter angle difference for a shared cut, degrees
	MinMiterAngle       float64         `json:"min_miter_angle"`       // Below this a cut is square, degrees
	ConfidenceThreshold float64         `json:"confidence_threshold"`  // End cuts below this are treated as square
	MaxSharedFraction   float64         `json:"max_shared_fraction"`   // Cap on shared overlap relative to the shorter piece
	DefaultProfileDepth float64         `json:"default_profile_depth"` // Used when neither geometry nor profile name gives a depth, mm
	Lookahead           int             `json:"lookahead"`             // Starting candidates simulated per bar
	IterationFactor     int             `json:"iteration_factor"`      // Iteration cap is IterationFactor*pieces + 1
	EnablePairing       bool            `json:"enable_pairing"`
	Seed                int64           `json:"seed"`
	Genetic             GeneticSettings `json:"genetic"`
	MinRemnantLength    float64         `json:"min_remnant_length"` // Shortest leftover kept as reusable stock, mm
}

// DefaultGeneticSettings returns sensible default parameters.
func DefaultGeneticSettings() GeneticSettings {
	return GeneticSettings{
		PopulationSize: 40,
		Generations:    60,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

func DefaultNestSettings() NestSettings {
	return NestSettings{
		Algorithm:           AlgorithmGreedy,
		KerfWidth:           3.0,
		AngleTolerance:      1.0,
		MinMiterAngle:       2.0,
		ConfidenceThreshold: 0.5,
		MaxSharedFraction:   0.5,
		DefaultProfileDepth: 400.0,
		Lookahead:           5,
		IterationFactor:     4,
		EnablePairing:       true,
		Seed:                1,
		Genetic:             DefaultGeneticSettings(),
		MinRemnantLength:    500.0,
	}
}

// Unit is a linear unit convention for incoming coordinates.
type Unit string

const (
	UnitMeters      Unit = "m"
	UnitMillimeters Unit = "mm"
)

// ToMillimeters returns the factor converting a value in u to millimeters.
func (u Unit) ToMillimeters() float64 {
	if u == UnitMeters {
		return 1000.0
	}
	return 1.0
}

// ScalePolicy holds the thresholds used to guess the unit convention from
// sampled raw lengths. The ambiguous band is a vendor-export heuristic and
// is meant to be tuned per source.
type ScalePolicy struct {
	SmallBelow     float64 `json:"small_below"`     // Mean below this: meters
	LargeAbove     float64 `json:"large_above"`     // Mean above this: millimeters
	AmbiguousPivot float64 `json:"ambiguous_pivot"` // Splits the band in between
	AmbiguousHigh  Unit    `json:"ambiguous_high"`  // Unit when mean > pivot
	AmbiguousLow   Unit    `json:"ambiguous_low"`   // Unit when mean <= pivot
	Default        Unit    `json:"default"`         // Unit when nothing could be sampled
	SampleSize     int     `json:"sample_size"`
}

func DefaultScalePolicy() ScalePolicy {
	return ScalePolicy{
		SmallBelow:     1.0,
		LargeAbove:     1000.0,
		AmbiguousPivot: 10.0,
		AmbiguousHigh:  UnitMillimeters,
		AmbiguousLow:   UnitMeters,
		Default:        UnitMeters,
		SampleSize:     10,
	}
}

// ExtractSettings holds the geometry extraction tolerances.
type ExtractSettings struct {
	PlaneResidualTolerance float64     `json:"plane_residual_tolerance"`  // mm; mean residual at which confidence reaches 0
	EndSlicePercent        float64     `json:"end_slice_percent"`         // Capture window as a share of the length
	NativeDepthPassThrough float64     `json:"native_depth_pass_through"` // Raw extrusion depths above this are already mm
	LengthMismatch         float64     `json:"length_mismatch"`           // mm; mesh length wins over native depth beyond this
	Workers                int         `json:"workers"`                   // 0 = GOMAXPROCS
	Scale                  ScalePolicy `json:"scale"`
}

func DefaultExtractSettings() ExtractSettings {
	return ExtractSettings{
		PlaneResidualTolerance: 2.0,
		EndSlicePercent:        0.01,
		NativeDepthPassThrough: 100.0,
		LengthMismatch:         1.0,
		Workers:                0,
		Scale:                  DefaultScalePolicy(),
	}
}
