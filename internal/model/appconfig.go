package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default nesting settings applied to every run
	DefaultKerfWidth           float64   `json:"default_kerf_width"`
	DefaultAngleTolerance      float64   `json:"default_angle_tolerance"`
	DefaultMinMiterAngle       float64   `json:"default_min_miter_angle"`
	DefaultConfidenceThreshold float64   `json:"default_confidence_threshold"`
	DefaultAlgorithm           Algorithm `json:"default_algorithm"`
	DefaultStockLengths        []float64 `json:"default_stock_lengths"` // mm, used when a profile has no inventory entry

	// Extraction defaults
	PlaneResidualTolerance float64     `json:"plane_residual_tolerance"`
	Scale                  ScalePolicy `json:"scale"`

	// Saw program output
	Saw SawSettings `json:"saw"`

	// Application preferences
	LogLevel      string   `json:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat     string   `json:"log_format"` // "json" or "console"
	RecentReports []string `json:"recent_reports"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching DefaultNestSettings and DefaultExtractSettings.
func DefaultAppConfig() AppConfig {
	nest := DefaultNestSettings()
	extract := DefaultExtractSettings()
	return AppConfig{
		DefaultKerfWidth:           nest.KerfWidth,
		DefaultAngleTolerance:      nest.AngleTolerance,
		DefaultMinMiterAngle:       nest.MinMiterAngle,
		DefaultConfidenceThreshold: nest.ConfidenceThreshold,
		DefaultAlgorithm:           nest.Algorithm,
		DefaultStockLengths:        []float64{6000, 12000},
		PlaneResidualTolerance:     extract.PlaneResidualTolerance,
		Scale:                      extract.Scale,
		Saw:                        DefaultSawSettings(),
		LogLevel:                   "info",
		LogFormat:                  "console",
		RecentReports:              []string{},
	}
}

// ApplyToNestSettings copies the default values from AppConfig into a NestSettings struct.
func (c AppConfig) ApplyToNestSettings(s *NestSettings) {
	s.KerfWidth = c.DefaultKerfWidth
	s.AngleTolerance = c.DefaultAngleTolerance
	s.MinMiterAngle = c.DefaultMinMiterAngle
	s.ConfidenceThreshold = c.DefaultConfidenceThreshold
	if c.DefaultAlgorithm != "" {
		s.Algorithm = c.DefaultAlgorithm
	}
}

// ApplyToExtractSettings copies the extraction defaults into an ExtractSettings struct.
func (c AppConfig) ApplyToExtractSettings(s *ExtractSettings) {
	if c.PlaneResidualTolerance > 0 {
		s.PlaneResidualTolerance = c.PlaneResidualTolerance
	}
	if c.Scale.SampleSize > 0 {
		s.Scale = c.Scale
	}
}
