package model

// SawSettings configures the program written for a CNC bar saw. The saw
// is modelled with three axes: X feeds the bar to the cut position, A
// swivels the saw head for miters and Z strokes the blade, with Z=0 on
// the top face of the section.
type SawSettings struct {
	Dialect    string  `json:"dialect"`     // Name of a SawDialect
	FeedRate   float64 `json:"feed_rate"`   // Blade feed through the section, mm/min
	BladeSpeed int     `json:"blade_speed"` // Blade RPM; 0 leaves it to the machine
	SafeZ      float64 `json:"safe_z"`      // Blade parked above the section, mm
	Clearance  float64 `json:"clearance"`   // Blade travel past the bottom face, mm
	MaxSwivel  float64 `json:"max_swivel"`  // Largest head swivel the saw supports, degrees
}

func DefaultSawSettings() SawSettings {
	return SawSettings{
		Dialect:    "Generic",
		FeedRate:   150,
		BladeSpeed: 0,
		SafeZ:      20,
		Clearance:  5,
		MaxSwivel:  60,
	}
}

// SawDialect describes the program syntax a saw controller accepts.
type SawDialect struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	StartCode  []string `json:"start_code"`  // Commands at start of file
	BladeStart string   `json:"blade_start"` // Blade on command (e.g., "M3 S%d")
	BladeStop  string   `json:"blade_stop"`
	PauseCode  string   `json:"pause_code"` // Operator stop while the next bar is loaded

	RapidMove string `json:"rapid_move"` // G0 or equivalent
	FeedMove  string `json:"feed_move"`  // G1 or equivalent

	EndCode []string `json:"end_code"` // Commands at end of file; [SafeZ] is substituted

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"` // e.g. ")" for Fanuc
	DecimalPlaces int    `json:"decimal_places"`
}

// SawDialects lists the built-in dialects. Generic is last and is the
// fallback for unknown names.
var SawDialects = []SawDialect{
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC with X feed, A swivel and Z blade axes",
		StartCode:     []string{"G90", "G21", "G94"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M5",
		PauseCode:     "M0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 A0", "M5", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Fanuc",
		Description:   "Fanuc-style controls with parenthesised comments",
		StartCode:     []string{"G90", "G21", "G94"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M05",
		PauseCode:     "M00",
		RapidMove:     "G00",
		FeedMove:      "G01",
		EndCode:       []string{"G00 Z[SafeZ]", "G00 A0", "M05", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 3,
	},
	{
		Name:          "Generic",
		Description:   "Generic G-code",
		StartCode:     []string{"G90", "G21"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M5",
		PauseCode:     "M0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 A0", "M5", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
}

// GetSawDialect returns a dialect by name, or Generic if not found.
func GetSawDialect(name string) SawDialect {
	for _, d := range SawDialects {
		if d.Name == name {
			return d
		}
	}
	return SawDialects[len(SawDialects)-1]
}

// SawDialectNames lists the built-in dialect names.
func SawDialectNames() []string {
	names := make([]string, 0, len(SawDialects))
	for _, d := range SawDialects {
		names = append(names, d.Name)
	}
	return names
}
