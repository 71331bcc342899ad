package importer

import (
	"fmt"
	"math"

	"github.com/hschendel/stl"
	"github.com/piwi3910/BarCut/internal/geometry"
	"github.com/piwi3910/BarCut/internal/model"
)

// weldTolerance merges STL corners closer than this, in raw file units.
// STL stores every triangle with its own copy of each corner.
const weldTolerance = 1e-5

// LoadSTL reads an ASCII or binary STL file as a single mesh element.
// The element carries no placement; vertices are taken as world coordinates.
func LoadSTL(path, id, profile string) (geometry.Element, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return geometry.Element{}, fmt.Errorf("read stl: %w", err)
	}
	if len(solid.Triangles) == 0 {
		return geometry.Element{}, fmt.Errorf("read stl: %s has no triangles", path)
	}

	if id == "" {
		id = solid.Name
	}
	if id == "" {
		id = "stl-1"
	}

	return geometry.Element{
		ID:          id,
		Kind:        geometry.KindMember,
		Label:       solid.Name,
		ProfileName: profile,
		Mesh:        weldTriangles(solid.Triangles),
	}, nil
}

type weldKey [3]int64

func quantize(v stl.Vec3) weldKey {
	var k weldKey
	for i := range v {
		k[i] = int64(math.Round(float64(v[i]) / weldTolerance))
	}
	return k
}

// weldTriangles builds an indexed mesh, sharing corners that coincide.
func weldTriangles(tris []stl.Triangle) *geometry.Mesh {
	index := make(map[weldKey]int, len(tris))
	mesh := &geometry.Mesh{
		Vertices: make([]model.Vec3, 0, len(tris)),
		Faces:    make([][3]int, 0, len(tris)),
	}
	for _, t := range tris {
		var face [3]int
		for c, v := range t.Vertices {
			k := quantize(v)
			idx, ok := index[k]
			if !ok {
				idx = len(mesh.Vertices)
				index[k] = idx
				mesh.Vertices = append(mesh.Vertices, model.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
			}
			face[c] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh
}
