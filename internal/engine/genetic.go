package engine

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/diag"
	"github.com/piwi3910/BarCut/internal/model"
)

// gene represents a single unit placement decision in the chromosome.
type gene struct {
	unitIndex int  // Index into the units slice
	flipped   bool // Whether the unit is laid end for end
}

// chromosome represents a candidate solution: an ordering of units with flip flags.
type chromosome struct {
	genes   []gene
	fitness float64
}

// geneticOptimizer searches unit orderings, decoding each by next-fit.
type geneticOptimizer struct {
	opt    *Optimizer
	config model.GeneticSettings
	units  []unit
	stocks []float64
	rng    *rand.Rand
}

func newGeneticOptimizer(opt *Optimizer, config model.GeneticSettings, units []unit, stocks []float64, seed int64) *geneticOptimizer {
	defaults := model.DefaultGeneticSettings()
	if config.PopulationSize < 1 {
		config.PopulationSize = defaults.PopulationSize
	}
	if config.Generations < 0 {
		config.Generations = defaults.Generations
	}
	if config.TournamentSize < 1 {
		config.TournamentSize = defaults.TournamentSize
	}
	return &geneticOptimizer{
		opt:    opt,
		config: config,
		units:  units,
		stocks: stocks,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// optimize runs the genetic algorithm and returns the bars of the best individual.
func (g *geneticOptimizer) optimize() []bar {
	if len(g.units) == 0 || len(g.stocks) == 0 {
		return nil
	}

	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := g.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}

		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	return g.decode(population[0])
}

// initPopulation creates the initial random population, with the greedy
// longest-first order as the first individual.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.units)
	population := make([]chromosome, g.config.PopulationSize)

	for i := range population {
		genes := make([]gene, n)
		perm := g.rng.Perm(n)
		for j := 0; j < n; j++ {
			genes[j] = gene{unitIndex: perm[j], flipped: g.rng.Float64() < 0.5}
		}
		population[i] = chromosome{genes: genes}
	}

	population[0] = g.createGreedyChromosome()
	return population
}

// createGreedyChromosome orders units as the greedy optimizer sees them.
// Units arrive sorted longest first.
func (g *geneticOptimizer) createGreedyChromosome() chromosome {
	genes := make([]gene, len(g.units))
	for i := range genes {
		genes[i] = gene{unitIndex: i}
	}
	return chromosome{genes: genes}
}

// evaluate scores a chromosome by the share of consumed stock that ends up
// in pieces.
func (g *geneticOptimizer) evaluate(c chromosome) float64 {
	bars := g.decode(c)
	var pieceLen, stockLen float64
	for _, b := range bars {
		pieceLen += b.placedLength()
		stockLen += b.stock
	}
	if stockLen == 0 {
		return 0
	}
	return pieceLen / stockLen
}

// decode lays units out in chromosome order by next-fit on the longest
// stock, then shrinks every bar to the shortest stock that still holds it.
func (g *geneticOptimizer) decode(c chromosome) []bar {
	longest := g.stocks[len(g.stocks)-1]
	kerf := g.opt.Settings.KerfWidth

	var bars []bar
	cur := bar{stock: longest}
	for _, gn := range c.genes {
		u := g.units[gn.unitIndex]
		if gn.flipped {
			u = u.flip()
		}
		if len(cur.steps) > 0 {
			needsKerf := !flush(cur.trailing(), u.lead(), g.opt.Settings)
			if cur.fits(u, needsKerf, kerf) {
				cur.push(u, needsKerf, kerf)
				continue
			}
			bars = append(bars, cur)
			cur = bar{stock: longest}
		}
		cur.push(u, false, kerf)
	}
	if len(cur.steps) > 0 {
		bars = append(bars, cur)
	}

	for i := range bars {
		for _, s := range g.stocks {
			if bars[i].used <= s+epsilon {
				bars[i].stock = s
				break
			}
		}
	}
	return bars
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]gene, n)}

	inSegment := make(map[int]bool)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i].unitIndex] = true
	}

	childIdx := (point2 + 1) % n
	for _, pg := range parent2.genes {
		if !inSegment[pg.unitIndex] {
			child.genes[childIdx] = pg
			childIdx = (childIdx + 1) % n
		}
	}

	return child
}

// mutate applies random swap and flip mutations to a chromosome.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n == 0 {
		return
	}

	if n >= 2 && g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		c.genes[i].flipped = !c.genes[i].flipped
	}
}

// copyChromosome creates a deep copy of a chromosome.
func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness}
}

// nestGenetic runs the genetic search for one group. If any decoded bar
// fails validation the group is nested greedily instead.
func (o *Optimizer) nestGenetic(units []unit, stocks []float64) ([]model.CuttingPattern, []unit, string) {
	config := o.Settings.Genetic

	// Scale generations for larger problems
	if len(units) > 50 && config.Generations < 150 {
		config.Generations = 150
	}

	ga := newGeneticOptimizer(o, config, units, stocks, o.Settings.Seed)
	bars := ga.optimize()

	patterns := make([]model.CuttingPattern, 0, len(bars))
	for _, b := range bars {
		cp := o.pattern(b)
		if err := validatePattern(cp, o.Settings.KerfWidth); err != nil {
			diag.OrNop(o.log).Warn("genetic layout failed validation, using greedy",
				zap.Float64("stock", cp.StockLength),
				zap.Error(err))
			return o.nestGreedy(units, stocks)
		}
		patterns = append(patterns, cp)
	}
	return patterns, nil, ""
}
