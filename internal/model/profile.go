package model

import (
	"regexp"
	"strconv"
	"strings"
)

// fallbackProfileDepth is returned when the profile name carries no size.
const fallbackProfileDepth = 400.0

var (
	diameterPattern = regexp.MustCompile(`(?:Ø|DIAMETER|CHS)\s*(\d+(?:\.\d+)?)`)
	iBeamPattern    = regexp.MustCompile(`(?:IPE|HE[ABM]|UPN|UPE)\s*(\d+(?:\.\d+)?)`)
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// EstimateProfileDepth guesses the section depth in mm from a profile name:
// IPE400 -> 400, HEA220 -> 220, RHS250*150*6.0 -> 250, Ø219.1*3 -> 219.1.
// Unrecognized names return 400.
func EstimateProfileDepth(profileKey string) float64 {
	if d, ok := ParseProfileDepth(profileKey); ok {
		return d
	}
	return fallbackProfileDepth
}

// ParseProfileDepth reads the section depth from a profile name, reporting
// false when the name carries no recognizable size.
func ParseProfileDepth(profileKey string) (float64, bool) {
	key := strings.ToUpper(strings.TrimSpace(profileKey))
	if key == "" || key == UnknownProfile {
		return 0, false
	}

	if m := diameterPattern.FindStringSubmatch(key); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v, true
		}
	}
	if m := iBeamPattern.FindStringSubmatch(key); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v, true
		}
	}

	// Hollow sections list their dimensions; the largest is the depth.
	if strings.Contains(key, "RHS") || strings.Contains(key, "SHS") {
		best := 0.0
		for _, s := range numberPattern.FindAllString(key, -1) {
			if v, err := strconv.ParseFloat(s, 64); err == nil && v > best {
				best = v
			}
		}
		if best > 0 {
			return best, true
		}
	}

	return 0, false
}
