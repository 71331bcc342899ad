// Package importer reads piece lists and geometry into the cutting model.
// Cut lists come from CSV or Excel sheets with automatic delimiter detection
// and case-insensitive header recognition; geometry comes from JSON element
// exports, STL meshes and DXF centerline drawings.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Pieces   []model.Piece
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID         int
	Profile    int
	Length     int
	Quantity   int
	StartAngle int
	EndAngle   int
	Depth      int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":          {"id", "mark", "piece", "piece id", "part", "name", "label", "tag"},
	"profile":     {"profile", "section", "profile key", "profile name", "size", "shape"},
	"length":      {"length", "len", "l", "cut length", "length mm"},
	"quantity":    {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	"start_angle": {"start angle", "start_angle", "angle start", "miter start", "start miter", "angle 1"},
	"end_angle":   {"end angle", "end_angle", "angle end", "miter end", "end miter", "angle 2"},
	"depth":       {"depth", "profile depth", "section depth", "height", "h"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Matching is case-insensitive against the known aliases of each role.
// Without a recognizable header the positional layout
// ID, Profile, Length, Quantity, StartAngle, EndAngle is returned with false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		ID:         -1,
		Profile:    -1,
		Length:     -1,
		Quantity:   -1,
		StartAngle: -1,
		EndAngle:   -1,
		Depth:      -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				var slot *int
				switch role {
				case "id":
					slot = &mapping.ID
				case "profile":
					slot = &mapping.Profile
				case "length":
					slot = &mapping.Length
				case "quantity":
					slot = &mapping.Quantity
				case "start_angle":
					slot = &mapping.StartAngle
				case "end_angle":
					slot = &mapping.EndAngle
				case "depth":
					slot = &mapping.Depth
				}
				if slot != nil && *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{
			ID:         0,
			Profile:    1,
			Length:     2,
			Quantity:   3,
			StartAngle: 4,
			EndAngle:   5,
			Depth:      -1,
		}, false
	}

	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts both "1234.5" and the European "1234,5".
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}

// parseAngle reads an optional miter angle in degrees. Empty means square.
func parseAngle(s string) (*model.EndCut, error) {
	if s == "" {
		return nil, nil
	}
	deg, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	deg = math.Abs(deg)
	if deg >= 90 {
		return nil, fmt.Errorf("angle %.1f out of range", deg)
	}
	return &model.EndCut{AngleDeg: deg, Confidence: 1}, nil
}

// NewImportedPiece builds an axis-aligned piece along +X from list values.
// Miter normals tilt in the XZ plane and point away from the piece.
func NewImportedPiece(id, profile string, length float64, startAngle, endAngle *model.EndCut) model.Piece {
	if profile == "" {
		profile = model.UnknownProfile
	}
	p := model.Piece{
		ID:           id,
		ProfileKey:   profile,
		Length:       length,
		Axis:         model.Vec3{1, 0, 0},
		Start:        model.Vec3{0, 0, 0},
		End:          model.Vec3{length, 0, 0},
		SourceMethod: model.SourceImported,
	}
	if startAngle != nil {
		c := *startAngle
		rad := c.AngleDeg * math.Pi / 180
		c.Normal = model.Vec3{-math.Cos(rad), 0, math.Sin(rad)}
		c.PlaneD = 0
		p.EndCuts.Start = &c
	}
	if endAngle != nil {
		c := *endAngle
		rad := c.AngleDeg * math.Pi / 180
		c.Normal = model.Vec3{math.Cos(rad), 0, math.Sin(rad)}
		c.PlaneD = -c.Normal[0] * length
		p.EndCuts.End = &c
	}
	return p
}

// parseRow extracts pieces from a row using the given column mapping. A
// quantity above one expands into numbered copies.
// Returns the pieces, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, pieceCount int) ([]model.Piece, string, string) {
	id := getCell(row, mapping.ID)
	profile := strings.ToUpper(getCell(row, mapping.Profile))

	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return nil, fmt.Sprintf("%s: Missing length value", rowLabel), ""
	}
	length, err := parseNumber(lengthStr)
	if err != nil {
		return nil, fmt.Sprintf("%s: Invalid length '%s'", rowLabel, lengthStr), ""
	}

	qty := 1
	if qtyStr := getCell(row, mapping.Quantity); qtyStr != "" {
		qty, err = strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
		}
	}

	if length <= 0 || qty <= 0 {
		return nil, fmt.Sprintf("%s: Length and quantity must be positive", rowLabel), ""
	}

	var warnings []string
	startCut, err := parseAngle(getCell(row, mapping.StartAngle))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%s: Ignoring start angle: %v", rowLabel, err))
	}
	endCut, err := parseAngle(getCell(row, mapping.EndAngle))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%s: Ignoring end angle: %v", rowLabel, err))
	}

	var depth float64
	if depthStr := getCell(row, mapping.Depth); depthStr != "" {
		depth, err = parseNumber(depthStr)
		if err != nil || depth < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Ignoring depth '%s'", rowLabel, depthStr))
			depth = 0
		}
	}

	if profile == "" {
		warnings = append(warnings, fmt.Sprintf("%s: Missing profile, grouped as %s", rowLabel, model.UnknownProfile))
	}

	base := id
	if base == "" {
		base = fmt.Sprintf("P%d-%s", pieceCount+1, uuid.NewString()[:8])
	}

	pieces := make([]model.Piece, 0, qty)
	for n := 0; n < qty; n++ {
		pid := base
		if qty > 1 {
			pid = fmt.Sprintf("%s-%d", base, n+1)
		}
		p := NewImportedPiece(pid, profile, length, startCut, endCut)
		p.ProfileDepth = depth
		pieces = append(pieces, p)
	}

	return pieces, "", strings.Join(warnings, "; ")
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports pieces from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports pieces from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports pieces from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into pieces.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if mapping.Length == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Length")
			return result
		}
	} else if len(rows[0]) >= 3 {
		// An unrecognized header still has a non-numeric length column.
		if _, err := parseNumber(strings.TrimSpace(rows[0][2])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		pieces, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Pieces))

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Pieces = append(result.Pieces, pieces...)
	}

	return result
}
