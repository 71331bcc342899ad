package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/piwi3910/BarCut/internal/model"
)

const reportTimeLayout = "20060102T150405"

// SavedReport is a nesting run kept for later reference.
type SavedReport struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	CreatedAt string                `json:"created_at"`
	Settings  model.NestSettings    `json:"settings"`
	Reports   []model.NestingReport `json:"reports"`
}

// DefaultReportsDir returns the directory saved reports are written to,
// ~/.barcut/reports.
func DefaultReportsDir() string {
	return filepath.Join(DefaultConfigDir(), "reports")
}

// SaveReport writes a nesting run into dir as <timestamp>-<id>.json and
// returns the file path.
func SaveReport(dir, name string, settings model.NestSettings, reports []model.NestingReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}
	now := time.Now().UTC()
	saved := SavedReport{
		ID:        uuid.New().String()[:8],
		Name:      name,
		CreatedAt: now.Format(time.RFC3339),
		Settings:  settings,
		Reports:   reports,
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", now.Format(reportTimeLayout), saved.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// LoadReport reads a saved nesting run.
func LoadReport(path string) (SavedReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SavedReport{}, fmt.Errorf("read report: %w", err)
	}
	var saved SavedReport
	if err := json.Unmarshal(data, &saved); err != nil {
		return SavedReport{}, fmt.Errorf("parse report %s: %w", path, err)
	}
	if saved.ID == "" {
		return SavedReport{}, fmt.Errorf("parse report %s: missing id", path)
	}
	return saved, nil
}

// ListReports returns the saved report files in dir, newest first. A
// missing directory yields an empty list.
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list reports: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}
