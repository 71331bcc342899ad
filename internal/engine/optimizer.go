package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/BarCut/internal/diag"
	"github.com/piwi3910/BarCut/internal/model"
)

// Optimizer nests linear pieces onto stock bars.
type Optimizer struct {
	Settings model.NestSettings
	log      diag.Sink
	metrics  *diag.Metrics
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the diagnostics sink.
func WithLogger(s diag.Sink) Option {
	return func(o *Optimizer) { o.log = diag.OrNop(s) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *diag.Metrics) Option {
	return func(o *Optimizer) { o.metrics = m }
}

func New(settings model.NestSettings, opts ...Option) *Optimizer {
	o := &Optimizer{Settings: settings, log: diag.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StockCatalog supplies the stock lengths available for a profile.
// model.Inventory implements it.
type StockCatalog interface {
	LengthsFor(profile string) []float64
}

// FixedStock offers the same lengths for every profile.
type FixedStock []float64

func (f FixedStock) LengthsFor(string) []float64 { return f }

// Optimize groups pieces by profile and nests each group concurrently.
// Reports are sorted by profile name. If ctx is cancelled, the groups
// already nested are returned together with the context error.
func (o *Optimizer) Optimize(ctx context.Context, pieces []model.Piece, catalog StockCatalog) ([]model.NestingReport, error) {
	groups := model.GroupByProfile(pieces)
	profiles := make([]string, 0, len(groups))
	for p := range groups {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)

	results := make([]*model.NestingReport, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, profile := range profiles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := o.Nest(profile, groups[profile], catalog.LengthsFor(profile))
			results[i] = &r
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	reports := make([]model.NestingReport, 0, len(profiles))
	for _, r := range results {
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports, err
}

// Nest lays out one profile group on the given stock lengths. It never
// fails: pieces that cannot be placed are listed as rejected.
func (o *Optimizer) Nest(profile string, pieces []model.Piece, stockLengths []float64) model.NestingReport {
	started := time.Now()
	log := diag.OrNop(o.log)

	report := model.NestingReport{
		ProfileName:     profile,
		Algorithm:       o.algorithm(),
		CuttingPatterns: []model.CuttingPattern{},
		RejectedParts:   []model.RejectedPart{},
	}

	stocks := normalizeStock(stockLengths)
	longest := 0.0
	if len(stocks) > 0 {
		longest = stocks[len(stocks)-1]
	}
	reject := func(p model.Piece, reason string) {
		report.RejectedParts = append(report.RejectedParts, model.RejectedPart{
			PieceID:     p.ID,
			Length:      p.Length,
			StockLength: longest,
			Reason:      reason,
		})
	}

	var valid []model.Piece
	for _, p := range pieces {
		switch {
		case len(stocks) == 0:
			reject(p, "no stock lengths available")
		case !(p.Length > 0) || math.IsInf(p.Length, 0):
			reject(p, fmt.Sprintf("invalid piece length %v", p.Length))
		case p.Length > longest+epsilon:
			reject(p, fmt.Sprintf("piece length %.1f mm exceeds longest stock %.1f mm", p.Length, longest))
		default:
			valid = append(valid, p)
		}
	}

	units := o.buildUnits(valid, longest)

	var patterns []model.CuttingPattern
	var leftover []unit
	var reason string
	if len(units) > 0 {
		if report.Algorithm == model.AlgorithmGenetic {
			patterns, leftover, reason = o.nestGenetic(units, stocks)
		} else {
			patterns, leftover, reason = o.nestGreedy(units, stocks)
		}
	}
	report.CuttingPatterns = append(report.CuttingPatterns, patterns...)
	for _, u := range leftover {
		for _, m := range u.members {
			reject(m.piece, reason)
		}
	}
	report.Summarize()

	log.Info("nested profile",
		zap.String("profile", profile),
		zap.String("algorithm", string(report.Algorithm)),
		zap.Int("pieces", len(pieces)),
		zap.Int("bars", len(report.CuttingPatterns)),
		zap.Int("rejected", len(report.RejectedParts)),
		zap.Float64("waste_mm", report.TotalWaste))
	o.metrics.RecordNesting(profile, string(report.Algorithm), len(report.CuttingPatterns),
		len(report.RejectedParts), report.TotalWaste, time.Since(started).Seconds())

	return report
}

func (o *Optimizer) algorithm() model.Algorithm {
	if o.Settings.Algorithm == model.AlgorithmGenetic {
		return model.AlgorithmGenetic
	}
	return model.AlgorithmGreedy
}

// buildUnits forms complementary pairs when enabled and returns all units
// longest first.
func (o *Optimizer) buildUnits(pieces []model.Piece, longest float64) []unit {
	var units []unit
	singles := pieces
	if o.Settings.EnablePairing {
		var pairs []Pair
		pairs, singles = MatchComplementary(pieces, o.Settings, longest)
		for _, p := range pairs {
			units = append(units, pairUnit(p))
		}
	}
	for _, p := range singles {
		units = append(units, singleUnit(p))
	}
	sortUnits(units)
	return units
}

// discardPattern logs a pattern that failed validation together with the
// pieces it held and every piece left unplaced because of it.
func (o *Optimizer) discardPattern(cp model.CuttingPattern, pool []unit, err error) {
	ids := make([]string, len(cp.Parts))
	for i, pl := range cp.Parts {
		ids[i] = pl.PieceID
	}
	var unplaced []string
	for _, u := range pool {
		for _, m := range u.members {
			unplaced = append(unplaced, m.piece.ID)
		}
	}
	diag.OrNop(o.log).Warn("discarding invalid cutting pattern",
		zap.Float64("stock", cp.StockLength),
		zap.Strings("pattern_pieces", ids),
		zap.Strings("unplaced_pieces", unplaced),
		zap.Error(err))
}

// nestGreedy fills bars one at a time until every unit is placed or no
// progress is made. Patterns that fail validation are dropped and their
// units stay in the pool.
func (o *Optimizer) nestGreedy(units []unit, stocks []float64) ([]model.CuttingPattern, []unit, string) {
	pool := units
	var patterns []model.CuttingPattern

	factor := o.Settings.IterationFactor
	if factor < 1 {
		factor = 1
	}
	maxIter := factor*len(units) + 1
	reason := ""

	for iter := 0; len(pool) > 0; iter++ {
		if iter >= maxIter {
			reason = fmt.Sprintf("not placed within %d iterations", maxIter)
			break
		}
		b, rest := o.nextBar(stocks, pool)
		if len(b.steps) == 0 {
			reason = "no stock bar could hold the piece"
			break
		}
		cp := o.pattern(b)
		if err := validatePattern(cp, o.Settings.KerfWidth); err != nil {
			o.discardPattern(cp, pool, err)
			reason = "cutting pattern failed validation"
			break
		}
		patterns = append(patterns, cp)
		pool = rest
	}
	return patterns, pool, reason
}

// normalizeStock drops non-positive lengths and returns the distinct
// lengths ascending.
func normalizeStock(lengths []float64) []float64 {
	out := make([]float64, 0, len(lengths))
	for _, l := range lengths {
		if l > 0 && !math.IsInf(l, 0) {
			out = append(out, l)
		}
	}
	sort.Float64s(out)
	var uniq []float64
	for _, l := range out {
		if len(uniq) == 0 || l-uniq[len(uniq)-1] > epsilon {
			uniq = append(uniq, l)
		}
	}
	return uniq
}
