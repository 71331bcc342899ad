package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
)

func sampleReports() []model.NestingReport {
	r := model.NestingReport{
		ProfileName: "IPE200",
		CuttingPatterns: []model.CuttingPattern{{
			StockLength:    6000,
			Parts:          []model.Placement{{PieceID: "B1", Length: 3000, ConsumedLength: 3000}},
			ConsumedLength: 3000,
			Waste:          3000,
		}},
	}
	r.Summarize()
	return []model.NestingReport{r}
}

func TestSaveAndLoadReport(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveReport(dir, "hall frame", model.DefaultNestSettings(), sampleReports())
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected report in %s, got %s", dir, path)
	}

	saved, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if saved.Name != "hall frame" || saved.ID == "" {
		t.Errorf("unexpected header %+v", saved)
	}
	if len(saved.Reports) != 1 || saved.Reports[0].TotalWaste != 3000 {
		t.Errorf("unexpected reports %+v", saved.Reports)
	}
	if saved.Settings.KerfWidth != model.DefaultNestSettings().KerfWidth {
		t.Errorf("expected settings kept, got %+v", saved.Settings)
	}
}

func TestLoadReportMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	if err := os.WriteFile(path, []byte(`{"name": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReport(path); err == nil {
		t.Fatal("expected error for report without id")
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	dir := t.TempDir()

	first, err := SaveReport(dir, "first", model.DefaultNestSettings(), sampleReports())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond)
	second, err := SaveReport(dir, "second", model.DefaultNestSettings(), sampleReports())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := ListReports(dir)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 reports, got %v", paths)
	}
	if paths[0] != second || paths[1] != first {
		t.Errorf("expected newest first, got %v", paths)
	}
}

func TestListReportsMissingDir(t *testing.T) {
	paths, err := ListReports(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected empty list, got %v", paths)
	}
}
