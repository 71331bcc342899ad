package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.NestSettings
}

// ComparisonResult holds the nesting reports and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario         ComparisonScenario
	Reports          []model.NestingReport
	BarsUsed         int
	TotalStockLength float64
	TotalWaste       float64
	WastePercent     float64
	SharedSavings    float64
	RejectedCount    int
}

// CompareScenarios runs nesting for each scenario and returns the results
// in scenario order. This enables side-by-side comparison of different
// parameters (algorithm, kerf width, pairing).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, pieces []model.Piece, catalog StockCatalog, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt := New(scenario.Settings, opts...)
		reports, err := opt.Optimize(ctx, pieces, catalog)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		res := ComparisonResult{Scenario: scenario, Reports: reports}
		for _, r := range reports {
			res.BarsUsed += len(r.CuttingPatterns)
			res.TotalStockLength += r.TotalStockLength
			res.TotalWaste += r.TotalWaste
			res.RejectedCount += len(r.RejectedParts)
			for _, p := range r.CuttingPatterns {
				res.SharedSavings += p.SharedSavings
			}
		}
		if res.TotalStockLength > 0 {
			res.WastePercent = res.TotalWaste / res.TotalStockLength * 100.0
		}
		results = append(results, res)
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.NestSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: Try the other algorithm
	altAlgo := baseSettings
	if baseSettings.Algorithm == model.AlgorithmGenetic {
		altAlgo.Algorithm = model.AlgorithmGreedy
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Greedy Algorithm",
			Settings: altAlgo,
		})
	} else {
		altAlgo.Algorithm = model.AlgorithmGenetic
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Genetic Algorithm",
			Settings: altAlgo,
		})
	}

	// Scenario: Tighter kerf (simulate thinner blade)
	if baseSettings.KerfWidth > 1.0 {
		tightKerf := baseSettings
		tightKerf.KerfWidth = baseSettings.KerfWidth * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %.1fmm (half)", tightKerf.KerfWidth),
			Settings: tightKerf,
		})
	}

	// Scenario: No shared miter cuts
	if baseSettings.EnablePairing {
		noPairs := baseSettings
		noPairs.EnablePairing = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Shared Cuts",
			Settings: noPairs,
		})
	}

	return scenarios
}
