package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Faultbox/quadtess/pkg/tess"
)

// WriteOBJ writes a tessellated mesh as OBJ text. Every vertex carries its
// own position, texture coordinate and normal, so faces use the same index
// for all three.
func WriteOBJ(w io.Writer, m tess.Mesh[tess.Vertex]) error {
	bw := bufio.NewWriter(w)

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", ff(v.Position.X), ff(v.Position.Y), ff(v.Position.Z))
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vt %s %s\n", ff(v.UV.X), ff(v.UV.Y))
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vn %s %s %s\n", ff(v.Normal.X), ff(v.Normal.Y), ff(v.Normal.Z))
	}
	for _, t := range m.Triangles {
		a, b, c := t[0]+1, t[1]+1, t[2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}

// WriteOBJFile writes a tessellated mesh to an OBJ file on disk.
func WriteOBJFile(path string, m tess.Mesh[tess.Vertex]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, m); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return f.Close()
}

// ff formats a float with the fewest digits that round-trip.
func ff(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
