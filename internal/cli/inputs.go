package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/importer"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

// pieceInput selects where the pieces to nest come from.
type pieceInput struct {
	piecesPath string
	listPath   string
}

func (p *pieceInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.piecesPath, "pieces", "p", "", "Pieces JSON written by extract")
	cmd.Flags().StringVarP(&p.listPath, "list", "l", "", "Piece list: .csv, .xlsx or .dxf")
	cmd.MarkFlagsMutuallyExclusive("pieces", "list")
	cmd.MarkFlagsOneRequired("pieces", "list")
}

// load reads the pieces. Row problems in a piece list are logged; the load
// only fails when no piece could be read at all.
func (p *pieceInput) load(log *zap.Logger) ([]model.Piece, error) {
	if p.piecesPath != "" {
		return importer.LoadPieces(p.piecesPath)
	}

	var result importer.ImportResult
	switch ext := strings.ToLower(filepath.Ext(p.listPath)); ext {
	case ".csv", ".txt":
		result = importer.ImportCSV(p.listPath)
	case ".xlsx", ".xlsm":
		result = importer.ImportExcel(p.listPath)
	case ".dxf":
		result = importer.ImportDXF(p.listPath)
	default:
		return nil, fmt.Errorf("unsupported piece list format %q", ext)
	}

	for _, w := range result.Warnings {
		log.Warn("piece list warning", zap.String("file", p.listPath), zap.String("detail", w))
	}
	for _, e := range result.Errors {
		log.Warn("piece list row skipped", zap.String("file", p.listPath), zap.String("detail", e))
	}
	if len(result.Pieces) == 0 {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("import %s: %s", p.listPath, result.Errors[0])
		}
		return nil, fmt.Errorf("import %s: no pieces found", p.listPath)
	}
	return result.Pieces, nil
}

// stockInput selects the stock bars: an inventory file, explicit lengths,
// or the configured default lengths.
type stockInput struct {
	stock         string
	inventoryPath string
}

func (s *stockInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.stock, "stock", "s", "", "Comma-separated stock lengths in mm, e.g. 6000,12000")
	cmd.Flags().StringVar(&s.inventoryPath, "inventory", "", "Inventory JSON with per-profile stock lengths")
}

// catalog returns the stock catalog and, when an inventory file was named,
// the loaded inventory. Explicit lengths replace the inventory defaults.
func (s *stockInput) catalog(config model.AppConfig) (engine.StockCatalog, *model.Inventory, error) {
	var lengths []float64
	if s.stock != "" {
		l, err := project.ParseLengths(s.stock)
		if err != nil {
			return nil, nil, fmt.Errorf("--stock: %w", err)
		}
		lengths = l
	}

	if s.inventoryPath != "" {
		inv, err := project.LoadInventory(s.inventoryPath)
		if err != nil {
			return nil, nil, err
		}
		if lengths != nil {
			inv.Defaults = lengths
		}
		return inv, &inv, nil
	}

	if lengths == nil {
		lengths = config.DefaultStockLengths
	}
	if len(lengths) == 0 {
		return nil, nil, fmt.Errorf("no stock lengths: use --stock or --inventory")
	}
	return engine.FixedStock(lengths), nil, nil
}

// settingsFlags override individual nesting settings.
type settingsFlags struct {
	algorithm string
	kerf      float64
	noPairing bool
	seed      int64
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "Nesting algorithm: greedy or genetic")
	cmd.Flags().Float64VarP(&f.kerf, "kerf", "k", 0, "Saw kerf width (mm)")
	cmd.Flags().BoolVar(&f.noPairing, "no-pairing", false, "Do not pair complementary miters")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for the genetic search")
}

func (f *settingsFlags) apply(cmd *cobra.Command, s *model.NestSettings) error {
	if f.algorithm != "" {
		switch a := model.Algorithm(strings.ToLower(f.algorithm)); a {
		case model.AlgorithmGreedy, model.AlgorithmGenetic:
			s.Algorithm = a
		default:
			return fmt.Errorf("unknown algorithm %q (want greedy or genetic)", f.algorithm)
		}
	}
	if cmd.Flags().Changed("kerf") {
		if f.kerf < 0 {
			return fmt.Errorf("--kerf must not be negative")
		}
		s.KerfWidth = f.kerf
	}
	if f.noPairing {
		s.EnablePairing = false
	}
	if cmd.Flags().Changed("seed") {
		s.Seed = f.seed
	}
	return nil
}
