package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"
)

// minCenterline is the shortest DXF segment read as a piece, in mm.
const minCenterline = 1.0

// ImportDXF reads a centerline drawing. Each LINE, and each segment of an
// open LWPOLYLINE, becomes one square-cut piece whose profile is the layer
// name. Layer "0" and unnamed layers map to the unknown profile.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	skipped := 0
	add := func(layer string, a, b []float64) {
		start, end := point3(a), point3(b)
		p, ok := centerlinePiece(fmt.Sprintf("DXF-%d", len(result.Pieces)+1), layerProfile(layer), start, end)
		if !ok {
			skipped++
			return
		}
		result.Pieces = append(result.Pieces, p)
	}

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.Line:
			add(entityLayer(e.Layer()), e.Start, e.End)

		case *entity.LwPolyline:
			if e.Closed {
				result.Warnings = append(result.Warnings, "Skipped closed LWPOLYLINE (outline, not a centerline)")
				continue
			}
			for i := 1; i < len(e.Vertices); i++ {
				add(entityLayer(e.Layer()), e.Vertices[i-1], e.Vertices[i])
			}

		default:
			// Arcs, text and dimensions carry no cut lengths.
		}
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped %d segments shorter than %.1f mm", skipped, minCenterline))
	}
	if len(result.Pieces) == 0 {
		result.Errors = append(result.Errors, "No centerlines found in DXF file")
	}
	return result
}

func entityLayer(l *table.Layer) string {
	if l == nil {
		return ""
	}
	return l.Name()
}

func layerProfile(layer string) string {
	layer = strings.ToUpper(strings.TrimSpace(layer))
	if layer == "" || layer == "0" {
		return model.UnknownProfile
	}
	return layer
}

func point3(c []float64) model.Vec3 {
	var v model.Vec3
	for i := 0; i < len(c) && i < 3; i++ {
		v[i] = c[i]
	}
	return v
}

// centerlinePiece builds a square-cut piece running from start to end.
func centerlinePiece(id, profile string, start, end model.Vec3) (model.Piece, bool) {
	d := model.Vec3{end[0] - start[0], end[1] - start[1], end[2] - start[2]}
	length := d.Norm()
	if length < minCenterline || math.IsNaN(length) {
		return model.Piece{}, false
	}
	return model.Piece{
		ID:           id,
		ProfileKey:   profile,
		Length:       length,
		Axis:         model.Vec3{d[0] / length, d[1] / length, d[2] / length},
		Start:        start,
		End:          end,
		SourceMethod: model.SourceImported,
	}, true
}
