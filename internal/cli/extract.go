package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/geometry"
	"github.com/piwi3910/BarCut/internal/importer"
	"github.com/piwi3910/BarCut/internal/model"
)

type extractOptions struct {
	modelPath string
	stlPath   string
	id        string
	profile   string
	unit      string
	out       string
}

func newExtractCmd(a *app) *cobra.Command {
	o := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract cut pieces from model geometry",
		Long: `Derive one cut piece per linear member: profile, axis, endpoints,
length in millimeters and the fitted plane of each end cut.

The model file is JSON, either {"unit": "m", "elements": [...]} or a bare
array of elements. A single member can also be read from an STL mesh.

With --unit auto the unit is taken from the model file, or guessed from
the extrusion depths of the beams. STL files are read as millimeters
unless --unit m is given.

Examples:
  # Extract every beam, column and member of a model
  barcut extract --model model.json --out pieces.json

  # Extract one member from a mesh
  barcut extract --stl rafter.stl --id R1 --profile IPE200 --out pieces.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.modelPath, "model", "m", "", "Model JSON file")
	f.StringVar(&o.stlPath, "stl", "", "STL mesh of a single member")
	f.StringVar(&o.id, "id", "", "Piece ID for an STL member (default: solid name)")
	f.StringVar(&o.profile, "profile", "", "Profile name for an STL member, e.g. IPE200")
	f.StringVarP(&o.unit, "unit", "u", "auto", "Coordinate unit: auto, m or mm")
	f.StringVarP(&o.out, "out", "o", "", "Output pieces file (default: stdout)")

	cmd.MarkFlagsMutuallyExclusive("model", "stl")
	cmd.MarkFlagsOneRequired("model", "stl")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, o *extractOptions) error {
	settings := a.extractSettings()

	var (
		elements []geometry.Element
		fileUnit model.Unit
	)
	if o.modelPath != "" {
		mf, err := importer.LoadModel(o.modelPath)
		if err != nil {
			return err
		}
		elements, fileUnit = mf.Elements, mf.Unit
	} else {
		el, err := importer.LoadSTL(o.stlPath, o.id, o.profile)
		if err != nil {
			return err
		}
		elements, fileUnit = []geometry.Element{el}, model.UnitMillimeters
	}

	scale, err := resolveUnit(o.unit, fileUnit, elements, settings.Scale)
	if err != nil {
		return err
	}
	a.logger.Info("extracting pieces",
		zap.Int("elements", len(elements)),
		zap.String("unit", string(scale.Unit)),
	)

	ex := geometry.NewExtractor(settings,
		geometry.WithLogger(a.logger),
		geometry.WithMetrics(a.metrics),
	)
	pieces, err := ex.ExtractAll(cmd.Context(), elements, scale)
	if err != nil {
		return err
	}

	if o.out == "" {
		return export.WriteJSON(cmd.OutOrStdout(), pieces)
	}
	if err := export.ExportJSON(o.out, pieces); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d of %d elements (%s) -> %s\n",
		len(pieces), len(elements), scale.Unit, o.out)
	return nil
}

// resolveUnit picks the scale from the --unit flag, the unit declared by
// the file, or the depth heuristic, in that order.
func resolveUnit(flag string, fileUnit model.Unit, elements []geometry.Element, policy model.ScalePolicy) (geometry.ScaleFactor, error) {
	switch u := model.Unit(strings.ToLower(strings.TrimSpace(flag))); u {
	case model.UnitMeters, model.UnitMillimeters:
		return geometry.NewScale(u), nil
	case "", "auto":
	default:
		return geometry.ScaleFactor{}, fmt.Errorf("unknown unit %q (want auto, m or mm)", flag)
	}
	if fileUnit != "" {
		return geometry.NewScale(fileUnit), nil
	}
	return geometry.ResolveScale(elements, policy), nil
}
