// Package meshio reads and writes Wavefront OBJ meshes.
package meshio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/quadtess/pkg/math"
)

// OBJ format errors.
var (
	ErrOBJSyntax = errors.New("malformed OBJ statement")
	ErrOBJIndex  = errors.New("OBJ index out of range")
)

// QuadFace indexes the position, texture and normal lists for the four
// corners of a quad face, in winding order.
type QuadFace struct {
	Verts [4]int
	UVs   [4]int
	Norms [4]int
}

// OBJ is the geometry of a parsed OBJ file. Indices are zero-based.
type OBJ struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2

	// Quads holds every four-cornered face that references a position,
	// texture coordinate and normal at each corner.
	Quads []QuadFace

	// Triangles holds every face fan-triangulated into position indices.
	Triangles []uint32
}

// faceCorner is one v/vt/vn reference; missing parts are -1.
type faceCorner struct {
	v, vt, vn int
}

// ParseOBJ parses OBJ text. Statements other than v, vt, vn and f are
// ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var p math.Vec3
			p, err = parseVec3(fields[1:])
			obj.Positions = append(obj.Positions, p)
		case "vn":
			var n math.Vec3
			n, err = parseVec3(fields[1:])
			obj.Normals = append(obj.Normals, n)
		case "vt":
			var uv math.Vec2
			uv, err = parseVec2(fields[1:])
			obj.UVs = append(obj.UVs, uv)
		case "f":
			err = obj.addFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

func (o *OBJ) addFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: face with %d corners", ErrOBJSyntax, len(fields))
	}

	corners := make([]faceCorner, len(fields))
	for i, f := range fields {
		c, err := o.parseCorner(f)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	for i := 1; i+1 < len(corners); i++ {
		o.Triangles = append(o.Triangles,
			uint32(corners[0].v), uint32(corners[i].v), uint32(corners[i+1].v))
	}

	if len(corners) != 4 {
		return nil
	}
	var q QuadFace
	for i, c := range corners {
		if c.vt < 0 || c.vn < 0 {
			return nil
		}
		q.Verts[i], q.UVs[i], q.Norms[i] = c.v, c.vt, c.vn
	}
	o.Quads = append(o.Quads, q)
	return nil
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn".
func (o *OBJ) parseCorner(s string) (faceCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return faceCorner{}, fmt.Errorf("%w: face corner %q", ErrOBJSyntax, s)
	}

	c := faceCorner{v: -1, vt: -1, vn: -1}
	refs := []*int{&c.v, &c.vt, &c.vn}
	counts := []int{len(o.Positions), len(o.UVs), len(o.Normals)}

	for i, part := range parts {
		if part == "" {
			if i == 0 {
				return faceCorner{}, fmt.Errorf("%w: face corner %q", ErrOBJSyntax, s)
			}
			continue
		}
		idx, err := resolveIndex(part, counts[i])
		if err != nil {
			return faceCorner{}, err
		}
		*refs[i] = idx
	}
	return c, nil
}

// resolveIndex converts a one-based or negative relative OBJ index into a
// zero-based index into a list of n elements.
func resolveIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrOBJSyntax, s)
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += n
	default:
		return 0, fmt.Errorf("%w: zero index", ErrOBJIndex)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %s with %d elements", ErrOBJIndex, s, n)
	}
	return idx, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: need 3 components, got %d", ErrOBJSyntax, len(fields))
	}
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %v", ErrOBJSyntax, err)
		}
		c[i] = f
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseVec2 reads u and an optional v; a third w component is ignored.
func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) < 1 {
		return math.Vec2{}, fmt.Errorf("%w: empty texture coordinate", ErrOBJSyntax)
	}
	var c [2]float64
	for i := range min(len(fields), 2) {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math.Vec2{}, fmt.Errorf("%w: %v", ErrOBJSyntax, err)
		}
		c[i] = f
	}
	return math.Vec2{X: c[0], Y: c[1]}, nil
}
