package bake

import (
	"fmt"

	"github.com/Faultbox/quadtess/internal/meshio"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// QuadsFromOBJ builds the quad patches of a baked mesh. Texture
// coordinates are used as given, in height-field pixels.
func QuadsFromOBJ(obj *meshio.OBJ) ([]QuadPatch, error) {
	quads := make([]QuadPatch, len(obj.Quads))
	for id, face := range obj.Quads {
		q := QuadPatch{ID: id, Verts: face.Verts}
		for k := range 4 {
			if face.Verts[k] >= len(obj.Positions) || face.Norms[k] >= len(obj.Normals) || face.UVs[k] >= len(obj.UVs) {
				return nil, fmt.Errorf("quad %d: corner %d: %w", id, k, meshio.ErrOBJIndex)
			}
			q.Quad[k] = tess.Vertex{
				Position: obj.Positions[face.Verts[k]],
				Normal:   obj.Normals[face.Norms[k]],
				UV:       obj.UVs[face.UVs[k]],
			}
		}
		quads[id] = q
	}
	return quads, nil
}

// ReferenceFromOBJ returns the triangulated surface of an OBJ mesh.
func ReferenceFromOBJ(obj *meshio.OBJ) Reference {
	return Reference{Vertices: obj.Positions, Indices: obj.Triangles}
}
