package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/BarCut/internal/geometry"
	"github.com/piwi3910/BarCut/internal/model"
)

// ModelFile is the JSON document produced by the model export step: a list
// of building elements plus an optional unit hint ("m" or "mm").
type ModelFile struct {
	Unit     model.Unit         `json:"unit,omitempty"`
	Elements []geometry.Element `json:"elements"`
}

// LoadModel reads a model JSON file. A bare array of elements is accepted
// as well as the wrapped form.
func LoadModel(path string) (ModelFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ModelFile{}, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return DecodeModel(f)
}

// DecodeModel reads a model document from r.
func DecodeModel(r io.Reader) (ModelFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ModelFile{}, fmt.Errorf("read model: %w", err)
	}

	var mf ModelFile
	if len(data) > 0 && firstNonSpace(data) == '[' {
		if err := json.Unmarshal(data, &mf.Elements); err != nil {
			return ModelFile{}, fmt.Errorf("decode model elements: %w", err)
		}
	} else if err := json.Unmarshal(data, &mf); err != nil {
		return ModelFile{}, fmt.Errorf("decode model: %w", err)
	}

	switch mf.Unit {
	case "", model.UnitMeters, model.UnitMillimeters:
	default:
		return ModelFile{}, fmt.Errorf("decode model: unknown unit %q", mf.Unit)
	}
	return mf, nil
}

// LoadPieces reads a piece list written by the extract command.
func LoadPieces(path string) ([]model.Piece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open pieces: %w", err)
	}
	var pieces []model.Piece
	if err := json.Unmarshal(data, &pieces); err != nil {
		return nil, fmt.Errorf("decode pieces: %w", err)
	}
	for i, p := range pieces {
		if p.ID == "" {
			return nil, fmt.Errorf("decode pieces: entry %d has no id", i)
		}
	}
	return pieces, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}
