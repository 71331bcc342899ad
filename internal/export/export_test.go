package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/BarCut/internal/model"
)

func miter(deg float64) *model.EndCut {
	return &model.EndCut{AngleDeg: deg, Confidence: 1}
}

// buildTestJob creates two profiles: an IPE200 bar holding a mitered pair
// plus a square piece, and a HEA200 bar with one piece and a rejection.
func buildTestJob() Job {
	pieces := []model.Piece{
		{ID: "A", ProfileKey: "IPE200", Length: 2000, EndCuts: model.EndCuts{End: miter(45)}},
		{ID: "B", ProfileKey: "IPE200", Length: 2000, EndCuts: model.EndCuts{Start: miter(45)}},
		{ID: "C", ProfileKey: "IPE200", Length: 1000},
		{ID: "D", ProfileKey: "HEA200", Length: 11000},
		{ID: "E", ProfileKey: "HEA200", Length: 13000},
	}
	ipe := model.NestingReport{
		ProfileName: "IPE200",
		Algorithm:   model.AlgorithmGreedy,
		CuttingPatterns: []model.CuttingPattern{{
			StockLength: 6000,
			Parts: []model.Placement{
				{PieceID: "A", CutPosition: 0, Length: 2000, ConsumedLength: 2000, ComplementaryPair: true},
				{PieceID: "B", CutPosition: 1800, Length: 2000, ConsumedLength: 1800, ComplementaryPair: true},
				{PieceID: "C", CutPosition: 3803, Length: 1000, ConsumedLength: 1000},
			},
			ConsumedLength:  4803,
			KerfTotal:       3,
			SharedSavings:   200,
			Waste:           1197,
			WastePercentage: 19.95,
		}},
	}
	ipe.Summarize()
	hea := model.NestingReport{
		ProfileName: "HEA200",
		Algorithm:   model.AlgorithmGreedy,
		CuttingPatterns: []model.CuttingPattern{{
			StockLength:     12000,
			Parts:           []model.Placement{{PieceID: "D", CutPosition: 0, Length: 11000, ConsumedLength: 11000}},
			ConsumedLength:  11000,
			Waste:           1000,
			WastePercentage: 1000.0 / 12000 * 100,
		}},
		RejectedParts: []model.RejectedPart{
			{PieceID: "E", Length: 13000, StockLength: 12000, Reason: "piece length 13000.0 mm exceeds longest stock 12000.0 mm"},
		},
	}
	hea.Summarize()
	return Job{
		Reports:  []model.NestingReport{hea, ipe},
		Pieces:   pieces,
		Settings: model.DefaultNestSettings(),
	}
}

// ─── Layout Tests ──────────────────────────────────────────

func TestLayoutBar_MiterRunsAndMating(t *testing.T) {
	job := buildTestJob()
	bar := job.layoutBar(job.Reports[1].CuttingPatterns[0], job.pieceIndex())

	if len(bar) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(bar))
	}
	if bar[0].StartRun != 0 {
		t.Errorf("expected square start on A, got run %f", bar[0].StartRun)
	}
	if math.Abs(bar[0].EndRun-200) > 1e-9 {
		t.Errorf("expected 200 mm run on A's end, got %f", bar[0].EndRun)
	}
	if !bar[1].StartInvert {
		t.Error("expected B's start to mate A's end")
	}
	if bar[2].StartInvert || bar[2].StartRun != 0 {
		t.Errorf("expected C square and unmated, got %+v", bar[2])
	}
}

func TestLayoutBar_FlippedPieceSwapsCuts(t *testing.T) {
	job := buildTestJob()
	pattern := model.CuttingPattern{
		StockLength: 6000,
		Parts:       []model.Placement{{PieceID: "A", Length: 2000, Flipped: true}},
	}
	bar := job.layoutBar(pattern, job.pieceIndex())

	if bar[0].StartRun == 0 || bar[0].EndRun != 0 {
		t.Errorf("expected the miter at the start after flipping, got %+v", bar[0])
	}
}

func TestLayoutBar_LowConfidenceIsSquare(t *testing.T) {
	job := buildTestJob()
	job.Pieces[0].EndCuts.End = &model.EndCut{AngleDeg: 45, Confidence: 0.1}
	bar := job.layoutBar(job.Reports[1].CuttingPatterns[0], job.pieceIndex())

	if bar[0].EndRun != 0 {
		t.Errorf("expected low-confidence cut drawn square, got %f", bar[0].EndRun)
	}
}

func TestLayoutBar_UnknownPiece(t *testing.T) {
	job := Job{Settings: model.DefaultNestSettings()}
	pattern := model.CuttingPattern{
		StockLength: 6000,
		Parts:       []model.Placement{{PieceID: "ghost", Length: 500}},
	}
	bar := job.layoutBar(pattern, job.pieceIndex())

	if len(bar) != 1 || bar[0].Piece.ID != "ghost" || bar[0].EndRun != 0 {
		t.Errorf("expected a square placeholder, got %+v", bar)
	}
}

func TestJob_Remnants(t *testing.T) {
	job := buildTestJob()
	rems := job.Remnants()

	if len(rems) != 2 {
		t.Fatalf("expected 2 remnants, got %d", len(rems))
	}
	byProfile := map[string]float64{}
	for _, r := range rems {
		byProfile[r.Profile] = r.Length
	}
	if math.Abs(byProfile["IPE200"]-1194) > 1e-9 {
		t.Errorf("expected 1194 mm IPE200 remnant, got %f", byProfile["IPE200"])
	}
	if math.Abs(byProfile["HEA200"]-997) > 1e-9 {
		t.Errorf("expected 997 mm HEA200 remnant, got %f", byProfile["HEA200"])
	}
}

func TestSumReports(t *testing.T) {
	job := buildTestJob()
	got := sumReports(job.Reports)

	if got.Bars != 2 || got.Placed != 4 || got.Rejected != 1 {
		t.Errorf("unexpected counts %+v", got)
	}
	if got.Stock != 18000 {
		t.Errorf("expected 18000 mm stock, got %f", got.Stock)
	}
	if got.Shared != 200 {
		t.Errorf("expected 200 mm shared savings, got %f", got.Shared)
	}
}

// ─── JSON Tests ────────────────────────────────────────────

func TestWriteJSON_Reports(t *testing.T) {
	job := buildTestJob()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, job.Reports); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(decoded))
	}
	for _, key := range []string{"profile_name", "cutting_patterns", "rejected_parts", "total_waste_percentage"} {
		if _, ok := decoded[0][key]; !ok {
			t.Errorf("expected key %q in report JSON", key)
		}
	}
}

func TestExportJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := ExportJSON(path, buildTestJob().Reports); err != nil {
		t.Fatalf("ExportJSON returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file not found: %v", err)
	}
}

func TestExportJSON_BadPath(t *testing.T) {
	if err := ExportJSON("/nonexistent/dir/report.json", nil); err == nil {
		t.Error("expected error for unwritable path")
	}
}

// ─── PDF Tests ─────────────────────────────────────────────

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.pdf")

	if err := ExportPDF(path, buildTestJob()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not found: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestExportPDF_EmptyJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	if err := ExportPDF(path, Job{}); err == nil {
		t.Error("expected error for empty job")
	}
}

func TestExportPDF_ManyBars(t *testing.T) {
	job := buildTestJob()
	base := job.Reports[1].CuttingPatterns[0]
	for i := 0; i < 25; i++ {
		job.Reports[1].CuttingPatterns = append(job.Reports[1].CuttingPatterns, base)
	}
	job.Reports[1].Summarize()

	path := filepath.Join(t.TempDir(), "many.pdf")
	if err := ExportPDF(path, job); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
}

func TestBarsPerPage(t *testing.T) {
	// 210 mm landscape page: 7 bars of 22 mm below the header.
	if got := barsPerPage(); got != 7 {
		t.Errorf("expected 7 bars per page, got %d", got)
	}
}

// ─── Label Tests ───────────────────────────────────────────

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildTestJob())

	if len(labels) != 4 {
		t.Fatalf("expected 4 labels, got %d", len(labels))
	}
	if labels[0].PieceID != "D" || labels[0].BarIndex != 1 {
		t.Errorf("expected D on bar 1 first, got %+v", labels[0])
	}
	a := labels[1]
	if a.PieceID != "A" || a.BarIndex != 2 {
		t.Errorf("expected A on bar 2, got %+v", a)
	}
	if a.EndAngle != 45 || a.StartAngle != 0 {
		t.Errorf("expected A end miter 45, got %+v", a)
	}
	if !a.SharedCut {
		t.Error("expected A marked as shared cut")
	}
	if labels[2].Position != 1800 {
		t.Errorf("expected B at 1800, got %f", labels[2].Position)
	}
}

func TestLabelInfo_JSONRoundTrip(t *testing.T) {
	info := LabelInfo{PieceID: "B1", Profile: "IPE200", Length: 2999.5, EndAngle: 45, BarIndex: 3, StockLength: 6000, Position: 120}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got LabelInfo
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != info {
		t.Errorf("round trip mismatch: %+v != %+v", got, info)
	}
}

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestJob()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not found: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestExportLabels_EmptyJob(t *testing.T) {
	if err := ExportLabels(filepath.Join(t.TempDir(), "labels.pdf"), Job{}); err == nil {
		t.Error("expected error for empty job")
	}
}

func TestExportLabels_ManyPieces(t *testing.T) {
	var parts []model.Placement
	for i := 0; i < 70; i++ {
		parts = append(parts, model.Placement{PieceID: fmt.Sprintf("P%02d", i), CutPosition: float64(i) * 80, Length: 77})
	}
	job := Job{
		Reports: []model.NestingReport{{
			ProfileName:     "RHS100*50*4",
			CuttingPatterns: []model.CuttingPattern{{StockLength: 6000, Parts: parts}},
		}},
		Settings: model.DefaultNestSettings(),
	}

	path := filepath.Join(t.TempDir(), "labels.pdf")
	if err := ExportLabels(path, job); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
}

// ─── XLSX Tests ────────────────────────────────────────────

func TestExportXLSX_Sheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	if err := ExportXLSX(path, buildTestJob()); err != nil {
		t.Fatalf("ExportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetCutList, SheetRejected, SheetRemnants}
	if len(sheets) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d: expected %s, got %s", i, want[i], sheets[i])
		}
	}

	cut, err := f.GetRows(SheetCutList)
	if err != nil {
		t.Fatalf("read cut list: %v", err)
	}
	if len(cut) != 5 {
		t.Errorf("expected header plus 4 rows, got %d", len(cut))
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if last := summary[len(summary)-1]; last[0] != "TOTAL" {
		t.Errorf("expected TOTAL row last, got %v", last)
	}

	rejected, _ := f.GetRows(SheetRejected)
	if len(rejected) != 2 || rejected[1][1] != "E" {
		t.Errorf("expected one rejected row for E, got %v", rejected)
	}
}

func TestExportXLSX_EmptyJob(t *testing.T) {
	if err := ExportXLSX(filepath.Join(t.TempDir(), "empty.xlsx"), Job{}); err == nil {
		t.Error("expected error for empty job")
	}
}

// ─── DXF Tests ─────────────────────────────────────────────

func TestExportDXF_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.dxf")
	if err := ExportDXF(path, buildTestJob()); err != nil {
		t.Fatalf("ExportDXF returned error: %v", err)
	}

	d, err := dxf.Open(path)
	if err != nil {
		t.Fatalf("cannot reopen drawing: %v", err)
	}
	lines := 0
	for _, e := range d.Entities() {
		if _, ok := e.(*entity.Line); ok {
			lines++
		}
	}
	// 2 bar outlines of 4 lines, 4 pieces with 2 edges each.
	if lines != 16 {
		t.Errorf("expected 16 lines, got %d", lines)
	}
}

func TestExportDXF_EmptyJob(t *testing.T) {
	if err := ExportDXF(filepath.Join(t.TempDir(), "empty.dxf"), Job{}); err == nil {
		t.Error("expected error for empty job")
	}
}
