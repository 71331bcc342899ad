package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

const epsilon = 1e-6

// member is one piece inside a unit, with its orientation on the bar.
type member struct {
	piece   model.Piece
	flipped bool
}

func (m member) lead() *model.EndCut {
	if m.flipped {
		return m.piece.EndCuts.End
	}
	return m.piece.EndCuts.Start
}

func (m member) trail() *model.EndCut {
	if m.flipped {
		return m.piece.EndCuts.Start
	}
	return m.piece.EndCuts.End
}

// unit is what the optimizer places: a single piece, or a complementary
// pair that is never split.
type unit struct {
	members []member
	shared  float64
}

func singleUnit(p model.Piece) unit {
	return unit{members: []member{{piece: p}}}
}

func pairUnit(p Pair) unit {
	return unit{
		members: []member{{piece: p.A, flipped: p.FlipA}, {piece: p.B, flipped: p.FlipB}},
		shared:  p.Shared,
	}
}

// length is the bar length the unit consumes, before any kerf.
func (u unit) length() float64 {
	var l float64
	for _, m := range u.members {
		l += m.piece.Length
	}
	return l - u.shared
}

// pieceLength is the summed length of the pieces in the unit.
func (u unit) pieceLength() float64 {
	return u.length() + u.shared
}

func (u unit) lead() *model.EndCut  { return u.members[0].lead() }
func (u unit) trail() *model.EndCut { return u.members[len(u.members)-1].trail() }

// flip reverses the unit end for end.
func (u unit) flip() unit {
	n := len(u.members)
	out := unit{members: make([]member, n), shared: u.shared}
	for i, m := range u.members {
		out.members[n-1-i] = member{piece: m.piece, flipped: !m.flipped}
	}
	return out
}

// sortUnits orders units longest first, keeping input order on ties.
func sortUnits(units []unit) {
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].length() > units[j].length()
	})
}

// step is a unit placed on a bar, with or without a kerf gap before it.
type step struct {
	u    unit
	kerf bool
}

// bar is a stock bar being filled.
type bar struct {
	stock float64
	steps []step
	used  float64
	kerfs int
}

func (b *bar) trailing() *model.EndCut {
	if len(b.steps) == 0 {
		return nil
	}
	return b.steps[len(b.steps)-1].u.trail()
}

func (b *bar) push(u unit, kerf bool, width float64) {
	if kerf {
		b.used += width
		b.kerfs++
	}
	b.used += u.length()
	b.steps = append(b.steps, step{u: u, kerf: kerf})
}

func (b *bar) fits(u unit, kerf bool, width float64) bool {
	need := b.used + u.length()
	if kerf {
		need += width
	}
	return need <= b.stock+epsilon
}

func (b *bar) placedLength() float64 {
	var total float64
	for _, st := range b.steps {
		total += st.u.pieceLength()
	}
	return total
}

// fill builds one bar from pool, optionally seeding it with pool[first] in
// the given orientation. It returns the bar and the units left over.
func (o *Optimizer) fill(stock float64, pool []unit, first int, flipFirst bool) (bar, []unit) {
	b := bar{stock: stock}
	remaining := make([]unit, len(pool))
	copy(remaining, pool)

	if first >= 0 && first < len(remaining) {
		u := remaining[first]
		if flipFirst {
			u = u.flip()
		}
		if b.fits(u, false, 0) {
			b.push(u, false, 0)
			remaining = append(remaining[:first], remaining[first+1:]...)
		}
	}

	for {
		idx, u, kerf := o.pickNext(&b, remaining)
		if idx < 0 {
			break
		}
		b.push(u, kerf, o.Settings.KerfWidth)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return b, remaining
}

// pickNext chooses the next unit for b: the longest unit that sits flush
// against the current trailing cut (flipping it if that makes it flush),
// else the longest unit that fits after a kerf.
func (o *Optimizer) pickNext(b *bar, remaining []unit) (int, unit, bool) {
	if len(b.steps) == 0 {
		for i, u := range remaining {
			if b.fits(u, false, 0) {
				return i, u, false
			}
		}
		return -1, unit{}, false
	}

	trail := b.trailing()
	for i, u := range remaining {
		if !b.fits(u, false, 0) {
			continue
		}
		if flush(trail, u.lead(), o.Settings) {
			return i, u, false
		}
		if f := u.flip(); flush(trail, f.lead(), o.Settings) {
			return i, f, false
		}
	}

	for i, u := range remaining {
		if b.fits(u, true, o.Settings.KerfWidth) {
			return i, u, true
		}
	}
	return -1, unit{}, false
}

// bestFill simulates a complete fill for each of the longest few units as
// the opening unit, in both orientations, and keeps the one that places
// the most length, then uses the fewest kerfs.
func (o *Optimizer) bestFill(stock float64, pool []unit) (bar, []unit) {
	k := o.Settings.Lookahead
	if k < 1 {
		k = 1
	}
	if k > len(pool) {
		k = len(pool)
	}

	var best bar
	var bestRest []unit
	found := false
	for i := 0; i < k; i++ {
		if pool[i].length() > stock+epsilon {
			continue
		}
		for _, flipped := range []bool{false, true} {
			b, rest := o.fill(stock, pool, i, flipped)
			if !found || betterBar(b, best) {
				best, bestRest, found = b, rest, true
			}
		}
	}
	if !found {
		return o.fill(stock, pool, -1, false)
	}
	return best, bestRest
}

func betterBar(a, b bar) bool {
	pa, pb := a.placedLength(), b.placedLength()
	if math.Abs(pa-pb) > epsilon {
		return pa > pb
	}
	return a.kerfs < b.kerfs
}

// nextBar picks the stock for the next bar: the shortest stock whose trial
// fill places every remaining unit, else the longest stock.
func (o *Optimizer) nextBar(stocks []float64, pool []unit) (bar, []unit) {
	longestUnit := pool[0].length()
	longestStock := stocks[len(stocks)-1]

	for _, s := range stocks {
		if s+epsilon < longestUnit {
			continue
		}
		b, rest := o.bestFill(s, pool)
		if len(rest) == 0 || s == longestStock {
			return b, rest
		}
	}
	return o.bestFill(longestStock, pool)
}

// pattern lays out the bar's units from its start and computes the totals.
func (o *Optimizer) pattern(b bar) model.CuttingPattern {
	cp := model.CuttingPattern{StockLength: b.stock, Parts: []model.Placement{}}
	pos := 0.0
	for _, st := range b.steps {
		if st.kerf {
			pos += o.Settings.KerfWidth
			cp.KerfTotal += o.Settings.KerfWidth
		}
		pair := len(st.u.members) > 1
		for j, m := range st.u.members {
			consumed := m.piece.Length
			if j > 0 {
				pos -= st.u.shared
				consumed -= st.u.shared
				cp.SharedSavings += st.u.shared
			}
			cp.Parts = append(cp.Parts, model.Placement{
				PieceID:           m.piece.ID,
				CutPosition:       pos,
				Length:            m.piece.Length,
				ConsumedLength:    consumed,
				ComplementaryPair: pair,
				Flipped:           m.flipped,
			})
			pos += m.piece.Length
		}
	}
	cp.ConsumedLength = pos
	cp.Waste = b.stock - pos
	if cp.Waste < 0 && cp.Waste > -epsilon {
		cp.Waste = 0
	}
	if b.stock > 0 {
		cp.WastePercentage = cp.Waste / b.stock * 100.0
	}
	return cp
}

// validatePattern recomputes the pattern from its placements alone: each
// placement must end exactly its consumed length, or that plus one kerf,
// after the previous one, and the totals must agree and fit the stock.
func validatePattern(p model.CuttingPattern, kerf float64) error {
	var consumed, kerfTotal, prevEnd float64
	for i, pl := range p.Parts {
		if pl.Length <= 0 || pl.ConsumedLength <= 0 || pl.ConsumedLength > pl.Length+epsilon {
			return fmt.Errorf("placement %d (%s): bad length %.3f/%.3f", i, pl.PieceID, pl.ConsumedLength, pl.Length)
		}
		if pl.CutPosition < -epsilon {
			return fmt.Errorf("placement %d (%s): negative position %.3f", i, pl.PieceID, pl.CutPosition)
		}
		end := pl.CutPosition + pl.Length
		gap := end - prevEnd - pl.ConsumedLength
		switch {
		case math.Abs(gap) <= epsilon:
		case kerf > 0 && math.Abs(gap-kerf) <= epsilon && i > 0:
			kerfTotal += kerf
		default:
			return fmt.Errorf("placement %d (%s): unexpected gap %.3f", i, pl.PieceID, gap)
		}
		consumed += pl.ConsumedLength
		prevEnd = end
	}
	consumed += kerfTotal

	if math.Abs(consumed-p.ConsumedLength) > epsilon {
		return fmt.Errorf("consumed length %.3f disagrees with placements %.3f", p.ConsumedLength, consumed)
	}
	if math.Abs(kerfTotal-p.KerfTotal) > epsilon {
		return fmt.Errorf("kerf total %.3f disagrees with placements %.3f", p.KerfTotal, kerfTotal)
	}
	if consumed > p.StockLength+epsilon {
		return fmt.Errorf("consumed length %.3f exceeds stock %.3f", consumed, p.StockLength)
	}
	if math.Abs(p.StockLength-consumed-p.Waste) > epsilon {
		return fmt.Errorf("waste %.3f disagrees with stock minus consumed %.3f", p.Waste, p.StockLength-consumed)
	}
	return nil
}
