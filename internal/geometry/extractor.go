package geometry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/BarCut/internal/diag"
	"github.com/piwi3910/BarCut/internal/model"
)

// Strategy is one way of turning an element into a piece. Strategies may
// fail for any reason; the extractor moves on to the next one.
type Strategy interface {
	Name() model.SourceMethod
	TryExtract(el Element, scale ScaleFactor) (model.Piece, error)
}

// Extractor runs an ordered chain of strategies over elements.
type Extractor struct {
	Settings   model.ExtractSettings
	strategies []Strategy
	log        diag.Sink
	metrics    *diag.Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the diagnostics sink.
func WithLogger(s diag.Sink) Option {
	return func(e *Extractor) { e.log = diag.OrNop(s) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *diag.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithStrategies replaces the default native-then-mesh chain.
func WithStrategies(s ...Strategy) Option {
	return func(e *Extractor) { e.strategies = s }
}

// NewExtractor creates an extractor with the native strategy followed by
// the mesh fallback.
func NewExtractor(settings model.ExtractSettings, opts ...Option) *Extractor {
	e := &Extractor{
		Settings: settings,
		strategies: []Strategy{
			NativeStrategy(settings),
			MeshStrategy(settings),
		},
		log: diag.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	errBadLength = errors.New("length is not a finite positive number")
	errBadStart  = errors.New("start point is not finite")
)

// Extract returns the piece for el, or false when no strategy produced one
// or the element is not a linear member. It never panics.
func (e *Extractor) Extract(el Element, scale ScaleFactor) (model.Piece, bool) {
	log := diag.OrNop(e.log)
	if !IsLinearKind(el.Kind) {
		log.Debug("skipping non-linear element", zap.String("id", el.ID), zap.String("kind", el.Kind))
		return model.Piece{}, false
	}

	for _, s := range e.strategies {
		p, err := safeTry(s, el, scale)
		if err == nil {
			p, err = normalize(p, el, s.Name())
		}
		if err != nil {
			log.Debug("strategy failed",
				zap.String("id", el.ID),
				zap.String("strategy", string(s.Name())),
				zap.Error(err))
			continue
		}
		e.metrics.RecordExtracted(string(p.SourceMethod))
		return p, true
	}

	log.Warn("no piece extracted", zap.String("id", el.ID), zap.String("kind", el.Kind))
	e.metrics.RecordExtractionFailure(el.Kind)
	return model.Piece{}, false
}

// ExtractAll extracts every element concurrently and returns the pieces in
// input order, skipping elements without a piece. Cancelling ctx stops new
// work; pieces finished so far are returned with the context error.
func (e *Extractor) ExtractAll(ctx context.Context, elements []Element, scale ScaleFactor) ([]model.Piece, error) {
	workers := e.Settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*model.Piece, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, el := range elements {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if p, ok := e.Extract(el, scale); ok {
				results[i] = &p
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	pieces := make([]model.Piece, 0, len(elements))
	for _, p := range results {
		if p != nil {
			pieces = append(pieces, *p)
		}
	}
	return pieces, err
}

func safeTry(s Strategy, el Element, scale ScaleFactor) (p model.Piece, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.TryExtract(el, scale)
}

// normalize enforces the piece invariants: unit axis, finite positive
// length, end = start + axis*length, and a profile key.
func normalize(p model.Piece, el Element, method model.SourceMethod) (model.Piece, error) {
	axis := p.Axis.R3()
	if !finiteVec(axis) || r3.Norm(axis) < 1e-9 {
		return model.Piece{}, errDegenerate
	}
	axis = r3.Unit(axis)
	if !(p.Length > 0) || math.IsInf(p.Length, 0) {
		return model.Piece{}, errBadLength
	}
	start := p.Start.R3()
	if !finiteVec(start) {
		return model.Piece{}, errBadStart
	}

	p.Axis = model.FromR3(axis)
	p.End = model.FromR3(r3.Add(start, r3.Scale(p.Length, axis)))
	if p.ID == "" {
		p.ID = el.ID
	}
	if p.ElementType == "" {
		p.ElementType = el.Kind
	}
	if p.ProfileKey == "" {
		p.ProfileKey = profileKey(el)
	}
	if math.IsNaN(p.ProfileDepth) || p.ProfileDepth < 0 {
		p.ProfileDepth = 0
	}
	p.SourceMethod = method
	return p, nil
}

func profileKey(el Element) string {
	switch {
	case el.ProfileName != "":
		return el.ProfileName
	case el.Label != "":
		return el.Label
	default:
		return model.UnknownProfile
	}
}
