package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/BarCut/internal/model"
)

// DefaultInventoryPath returns the default file path for the inventory file.
// This is located at ~/.barcut/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create inventory directory: %w", err)
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, fmt.Errorf("read inventory: %w", err)
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	return inv, nil
}

// ImportInventory imports an inventory from a user-specified JSON file,
// merging it with the existing inventory. Duplicate IDs are skipped; an
// imported preset for a profile that already has one adds its lengths.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, fmt.Errorf("read inventory: %w", err)
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, fmt.Errorf("parse inventory %s: %w", path, err)
	}

	stockIDs := make(map[string]bool, len(existing.Stocks))
	for _, s := range existing.Stocks {
		stockIDs[s.ID] = true
	}

	for _, s := range imported.Stocks {
		if stockIDs[s.ID] {
			continue
		}
		if cur := existing.FindByProfile(s.Profile); cur != nil {
			cur.Lengths = mergeLengths(cur.Lengths, s.Lengths)
			continue
		}
		existing.Stocks = append(existing.Stocks, s)
		stockIDs[s.ID] = true
	}

	if len(existing.Defaults) == 0 {
		existing.Defaults = imported.Defaults
	}
	return existing, nil
}

// AddStockPreset merges preset into the inventory. Lengths go into an
// existing preset for the same profile, whose price and supplier are
// replaced when the new preset sets them.
func AddStockPreset(inv model.Inventory, preset model.StockPreset) model.Inventory {
	cur := inv.FindByProfile(preset.Profile)
	if cur == nil {
		inv.Stocks = append(inv.Stocks, preset)
		return inv
	}
	cur.Lengths = mergeLengths(cur.Lengths, preset.Lengths)
	if preset.PricePerBar > 0 {
		cur.PricePerBar = preset.PricePerBar
	}
	if preset.Supplier != "" {
		cur.Supplier = preset.Supplier
	}
	return inv
}

// AddRemnants registers reusable offcuts as stock, one length per remnant,
// under the remnant's profile.
func AddRemnants(inv model.Inventory, remnants []model.Remnant) model.Inventory {
	for _, r := range remnants {
		if cur := inv.FindByProfile(r.Profile); cur != nil {
			cur.Lengths = mergeLengths(cur.Lengths, []float64{r.Length})
			continue
		}
		inv.Stocks = append(inv.Stocks, r.ToStockPreset())
	}
	return inv
}

func mergeLengths(a, b []float64) []float64 {
	out := append([]float64(nil), a...)
	for _, l := range b {
		dup := false
		for _, have := range out {
			if have == l {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	return out
}
