package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
)

const backupVersion = "1.0.0"

// Backup bundles everything barcut keeps between runs: the config, the
// stock inventory and the saved nesting runs.
type Backup struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Inventory model.Inventory `json:"inventory"`
	Reports   []SavedReport   `json:"reports"`
}

// WriteBackup collects the saved reports in reportsDir and writes them,
// with config and inv, to one JSON file at path.
func WriteBackup(path string, config model.AppConfig, inv model.Inventory, reportsDir string) (Backup, error) {
	backup := Backup{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Inventory: inv,
		Reports:   []SavedReport{},
	}

	paths, err := ListReports(reportsDir)
	if err != nil {
		return Backup{}, err
	}
	for _, p := range paths {
		saved, err := LoadReport(p)
		if err != nil {
			return Backup{}, err
		}
		backup.Reports = append(backup.Reports, saved)
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return Backup{}, fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Backup{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Backup{}, fmt.Errorf("write backup: %w", err)
	}
	return backup, nil
}

// ReadBackup reads a backup file written by WriteBackup.
func ReadBackup(path string) (Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Backup{}, fmt.Errorf("read backup: %w", err)
	}
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return Backup{}, fmt.Errorf("parse backup %s: %w", path, err)
	}
	if backup.Version == "" {
		return Backup{}, fmt.Errorf("parse backup %s: missing version", path)
	}
	if backup.Config.RecentReports == nil {
		backup.Config.RecentReports = []string{}
	}
	return backup, nil
}

// RestoreBackup writes the contents of a backup back to disk. Saved
// reports keep their IDs; a report whose file already exists in
// reportsDir is left alone. The recent-report list is rebuilt from the
// restored files.
func RestoreBackup(backup Backup, configPath, inventoryPath, reportsDir string) error {
	config := backup.Config
	config.RecentReports = []string{}

	if len(backup.Reports) > 0 {
		if err := os.MkdirAll(reportsDir, 0755); err != nil {
			return fmt.Errorf("create reports directory: %w", err)
		}
	}
	// Reports are stored newest first; restore oldest first so the recent
	// list ends up newest first.
	for i := len(backup.Reports) - 1; i >= 0; i-- {
		saved := backup.Reports[i]
		path := filepath.Join(reportsDir, reportFileName(saved))
		if _, err := os.Stat(path); err != nil {
			data, err := json.MarshalIndent(saved, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal report %s: %w", saved.ID, err)
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
		AddRecentReport(&config, path)
	}

	if err := SaveInventory(inventoryPath, backup.Inventory); err != nil {
		return err
	}
	return SaveAppConfig(configPath, config)
}

// reportFileName names a saved report file the way SaveReport does. Runs
// with an unparseable timestamp are named by ID only.
func reportFileName(saved SavedReport) string {
	t, err := time.Parse(time.RFC3339, saved.CreatedAt)
	if err != nil {
		return saved.ID + ".json"
	}
	return fmt.Sprintf("%s-%s.json", t.UTC().Format(reportTimeLayout), saved.ID)
}
