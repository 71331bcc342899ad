package importer

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hschendel/stl"
	"github.com/yofu/dxf"

	"github.com/piwi3910/BarCut/internal/geometry"
	"github.com/piwi3910/BarCut/internal/model"
)

// ─── Model JSON Tests ──────────────────────────────────────

func TestDecodeModel_Wrapped(t *testing.T) {
	doc := `{
  "unit": "m",
  "elements": [
    {"id": "B1", "kind": "IfcBeam", "profile_name": "IPE200",
     "solid": {"type": "extrusion", "extrusion": {"direction": [0, 0, 1], "depth": 6.0}}}
  ]
}`
	mf, err := DecodeModel(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mf.Unit != model.UnitMeters {
		t.Errorf("expected unit m, got %q", mf.Unit)
	}
	if len(mf.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(mf.Elements))
	}
	ext := geometry.FindExtrusion(mf.Elements[0].Solid)
	if ext == nil || ext.Depth != 6.0 {
		t.Errorf("expected extrusion with depth 6, got %+v", ext)
	}
}

func TestDecodeModel_BareArray(t *testing.T) {
	doc := ` [{"id": "M1", "mesh": {"vertices": [[0,0,0],[1000,0,0]]}}]`
	mf, err := DecodeModel(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mf.Unit != "" {
		t.Errorf("expected no unit hint, got %q", mf.Unit)
	}
	if len(mf.Elements) != 1 || mf.Elements[0].Mesh == nil {
		t.Fatalf("expected one mesh element, got %+v", mf.Elements)
	}
	if mf.Elements[0].Mesh.Vertices[1][0] != 1000 {
		t.Errorf("unexpected vertex %v", mf.Elements[0].Mesh.Vertices[1])
	}
}

func TestDecodeModel_UnknownUnit(t *testing.T) {
	_, err := DecodeModel(strings.NewReader(`{"unit": "ft", "elements": []}`))
	if err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestDecodeModel_Malformed(t *testing.T) {
	_, err := DecodeModel(strings.NewReader(`{"elements": [`))
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadModel_FileNotFound(t *testing.T) {
	_, err := LoadModel("/nonexistent/model.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadPieces_RoundTrip(t *testing.T) {
	pieces := []model.Piece{
		NewImportedPiece("B1", "IPE200", 3000, &model.EndCut{AngleDeg: 45, Confidence: 1}, nil),
		NewImportedPiece("B2", "IPE200", 2500, nil, nil),
	}
	data, err := json.Marshal(pieces)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pieces.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	got, err := LoadPieces(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(got))
	}
	if got[0].EndCuts.Start == nil || got[0].EndCuts.Start.AngleDeg != 45 {
		t.Errorf("expected the start miter to survive, got %+v", got[0].EndCuts.Start)
	}
}

func TestLoadPieces_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pieces.json")
	if err := os.WriteFile(path, []byte(`[{"profile_key": "IPE200", "length": 100}]`), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := LoadPieces(path); err == nil {
		t.Error("expected error for piece without id")
	}
}

// ─── STL Tests ─────────────────────────────────────────────

// boxSolid returns the 12 triangles of an axis-aligned box.
func boxSolid(lx, ly, lz float32) *stl.Solid {
	c := func(x, y, z float32) stl.Vec3 { return stl.Vec3{x, y, z} }
	v := [8]stl.Vec3{
		c(0, 0, 0), c(lx, 0, 0), c(lx, ly, 0), c(0, ly, 0),
		c(0, 0, lz), c(lx, 0, lz), c(lx, ly, lz), c(0, ly, lz),
	}
	quads := [][4]int{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {2, 3, 7, 6},
		{1, 2, 6, 5}, {0, 4, 7, 3},
	}
	s := &stl.Solid{Name: "beam", IsAscii: true}
	for _, q := range quads {
		s.Triangles = append(s.Triangles,
			stl.Triangle{Vertices: [3]stl.Vec3{v[q[0]], v[q[1]], v[q[2]]}},
			stl.Triangle{Vertices: [3]stl.Vec3{v[q[0]], v[q[2]], v[q[3]]}},
		)
	}
	return s
}

func TestLoadSTL_WeldsCorners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam.stl")
	if err := boxSolid(3000, 100, 200).WriteFile(path); err != nil {
		t.Fatalf("failed to write STL: %v", err)
	}

	el, err := LoadSTL(path, "", "IPE200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if el.ID != "beam" {
		t.Errorf("expected id from solid name, got %q", el.ID)
	}
	if el.ProfileName != "IPE200" {
		t.Errorf("expected profile IPE200, got %q", el.ProfileName)
	}
	if el.Mesh == nil {
		t.Fatal("expected a mesh")
	}
	if len(el.Mesh.Vertices) != 8 {
		t.Errorf("expected 8 welded vertices, got %d", len(el.Mesh.Vertices))
	}
	if len(el.Mesh.Faces) != 12 {
		t.Errorf("expected 12 faces, got %d", len(el.Mesh.Faces))
	}
}

func TestLoadSTL_ExtractsLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam.stl")
	if err := boxSolid(3000, 100, 200).WriteFile(path); err != nil {
		t.Fatalf("failed to write STL: %v", err)
	}

	el, err := LoadSTL(path, "B7", "IPE200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex := geometry.NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, geometry.Millimeters)
	if !ok {
		t.Fatal("expected a piece from the STL mesh")
	}
	if p.ID != "B7" {
		t.Errorf("expected id B7, got %q", p.ID)
	}
	if math.Abs(p.Length-3000) > 1e-3 {
		t.Errorf("expected length 3000, got %f", p.Length)
	}
	if p.SourceMethod != model.SourceMesh {
		t.Errorf("expected mesh source, got %s", p.SourceMethod)
	}
}

func TestLoadSTL_FileNotFound(t *testing.T) {
	if _, err := LoadSTL("/nonexistent/part.stl", "", ""); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

// ─── DXF Tests ─────────────────────────────────────────────

func TestImportDXF_Centerlines(t *testing.T) {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer("IPE200", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		t.Fatalf("add layer: %v", err)
	}
	if _, err := d.Line(0, 0, 0, 3000, 0, 0); err != nil {
		t.Fatalf("line: %v", err)
	}
	if _, err := d.Line(0, 0, 0, 0, 0, 0.5); err != nil {
		t.Fatalf("line: %v", err)
	}
	path := filepath.Join(t.TempDir(), "frame.dxf")
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	result := ImportDXF(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	p := result.Pieces[0]
	if p.ProfileKey != "IPE200" {
		t.Errorf("expected profile from layer, got %q", p.ProfileKey)
	}
	if math.Abs(p.Length-3000) > 1e-9 {
		t.Errorf("expected length 3000, got %f", p.Length)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the short segment")
	}
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF("/nonexistent/frame.dxf")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestLayerProfile(t *testing.T) {
	tests := []struct {
		layer string
		want  string
	}{
		{"0", model.UnknownProfile},
		{"", model.UnknownProfile},
		{" hea200 ", "HEA200"},
	}
	for _, tt := range tests {
		if got := layerProfile(tt.layer); got != tt.want {
			t.Errorf("layerProfile(%q) = %q, want %q", tt.layer, got, tt.want)
		}
	}
}
