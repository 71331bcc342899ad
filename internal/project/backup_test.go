package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BarCut/internal/model"
)

func TestWriteAndReadBackup(t *testing.T) {
	dir := t.TempDir()
	reportsDir := filepath.Join(dir, "reports")
	if _, err := SaveReport(reportsDir, "hall A", model.DefaultNestSettings(), nil); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	cfg := model.DefaultAppConfig()
	cfg.DefaultKerfWidth = 2.0
	inv := model.DefaultInventory()

	path := filepath.Join(dir, "out", "backup.json")
	if _, err := WriteBackup(path, cfg, inv, reportsDir); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}

	backup, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if backup.Version != backupVersion {
		t.Errorf("expected version %s, got %s", backupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.DefaultKerfWidth != 2.0 {
		t.Errorf("expected DefaultKerfWidth=2.0, got %f", backup.Config.DefaultKerfWidth)
	}
	if len(backup.Inventory.Stocks) != len(inv.Stocks) {
		t.Errorf("expected %d stock presets, got %d", len(inv.Stocks), len(backup.Inventory.Stocks))
	}
	if len(backup.Reports) != 1 || backup.Reports[0].Name != "hall A" {
		t.Errorf("expected the saved report in the backup, got %+v", backup.Reports)
	}
}

func TestWriteBackup_NoReportsDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	backup, err := WriteBackup(path, model.DefaultAppConfig(), model.DefaultInventory(), filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	if backup.Reports == nil || len(backup.Reports) != 0 {
		t.Errorf("expected an empty report list, got %v", backup.Reports)
	}
}

func TestRestoreBackup(t *testing.T) {
	src := t.TempDir()
	srcReports := filepath.Join(src, "reports")
	if _, err := SaveReport(srcReports, "hall A", model.DefaultNestSettings(), nil); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	cfg := model.DefaultAppConfig()
	cfg.DefaultKerfWidth = 4
	backup, err := WriteBackup(filepath.Join(src, "backup.json"), cfg, model.DefaultInventory(), srcReports)
	if err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}

	dst := t.TempDir()
	configPath := filepath.Join(dst, "config.json")
	inventoryPath := filepath.Join(dst, "inventory.json")
	reportsDir := filepath.Join(dst, "reports")
	if err := RestoreBackup(backup, configPath, inventoryPath, reportsDir); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	restored, err := LoadAppConfig(configPath)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if restored.DefaultKerfWidth != 4 {
		t.Errorf("expected kerf 4, got %f", restored.DefaultKerfWidth)
	}
	if len(restored.RecentReports) != 1 {
		t.Fatalf("expected 1 recent report, got %v", restored.RecentReports)
	}

	saved, err := LoadReport(restored.RecentReports[0])
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if saved.ID != backup.Reports[0].ID {
		t.Errorf("expected report ID %s, got %s", backup.Reports[0].ID, saved.ID)
	}
	if _, err := os.Stat(inventoryPath); err != nil {
		t.Errorf("expected inventory file: %v", err)
	}
}

func TestReadBackupMissingFile(t *testing.T) {
	if _, err := ReadBackup(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadBackupInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBackup(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestReadBackupMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBackup(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestReadBackupNilRecentReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte(`{"version": "1.0.0", "config": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	backup, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if backup.Config.RecentReports == nil {
		t.Error("RecentReports should never be nil after reading")
	}
}
