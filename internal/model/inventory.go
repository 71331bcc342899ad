package model

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// StockPreset lists the mill lengths available for one profile.
type StockPreset struct {
	ID           string    `json:"id"`
	Profile      string    `json:"profile"`       // Profile key this preset applies to
	Lengths      []float64 `json:"lengths"`       // Available bar lengths in mm
	PricePerBar  float64   `json:"price_per_bar"` // Optional; 0 = not set
	Supplier     string    `json:"supplier,omitempty"`
	MaterialNote string    `json:"material_note,omitempty"`
}

// NewStockPreset creates a new StockPreset with a generated ID.
func NewStockPreset(profile string, lengths ...float64) StockPreset {
	return StockPreset{
		ID:      uuid.New().String()[:8],
		Profile: profile,
		Lengths: append([]float64(nil), lengths...),
	}
}

// Inventory holds the stock presets known to the application.
type Inventory struct {
	Defaults []float64     `json:"defaults"` // Lengths used for profiles without a preset
	Stocks   []StockPreset `json:"stocks"`
}

// DefaultInventory returns an inventory with common European mill lengths.
func DefaultInventory() Inventory {
	return Inventory{
		Defaults: []float64{6000, 12000},
		Stocks: []StockPreset{
			NewStockPreset("IPE200", 6000, 8000, 12000),
			NewStockPreset("HEA200", 6000, 12000),
			NewStockPreset("RHS200*100*5", 6000, 12000),
		},
	}
}

// LengthsFor returns the stock lengths for a profile, matching the profile
// key case-insensitively and ignoring spaces. Falls back to Defaults.
func (inv Inventory) LengthsFor(profile string) []float64 {
	key := normalizeProfile(profile)
	for _, s := range inv.Stocks {
		if normalizeProfile(s.Profile) == key && len(s.Lengths) > 0 {
			return append([]float64(nil), s.Lengths...)
		}
	}
	return append([]float64(nil), inv.Defaults...)
}

// FindByProfile returns the preset for a profile, or nil.
func (inv *Inventory) FindByProfile(profile string) *StockPreset {
	key := normalizeProfile(profile)
	for i := range inv.Stocks {
		if normalizeProfile(inv.Stocks[i].Profile) == key {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// Profiles returns the profile keys with a preset, sorted.
func (inv Inventory) Profiles() []string {
	names := make([]string, 0, len(inv.Stocks))
	for _, s := range inv.Stocks {
		names = append(names, s.Profile)
	}
	sort.Strings(names)
	return names
}

func normalizeProfile(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
