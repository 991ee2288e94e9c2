// Package meshio reads and writes triangle meshes as Wavefront OBJ, the
// interchange format scanners and slicers speak. Only the subset the fitting
// workflow needs is supported: vertices, faces, and material assignments.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"handfit/internal/mesh"
	"handfit/pkg/geometry"
)

// Read parses an OBJ stream into a mesh. Faces with more than three corners
// are fan-triangulated. Texture and normal references on face corners are
// ignored; vertex groups are not part of the format and come back empty.
func Read(r io.Reader) (*mesh.Mesh, error) {
	m := mesh.New()
	material := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var c [3]float64
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad coordinate %q", lineNo, fields[i+1])
				}
				c[i] = f
			}
			m.Vertices = append(m.Vertices, geometry.Vec3{X: c[0], Y: c[1], Z: c[2]})

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				v, err := parseVertexRef(ref, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %v", lineNo, err)
				}
				corners = append(corners, v)
			}
			for i := 1; i+1 < len(corners); i++ {
				m.Faces = append(m.Faces, mesh.Face{
					V:        [3]int{corners[0], corners[i], corners[i+1]},
					Material: material,
				})
			}

		case "usemtl":
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: usemtl needs a name", lineNo)
			}
			material = m.EnsureMaterial(fields[1])

		default:
			// vt, vn, o, g, s, mtllib: irrelevant to fitting, skipped.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(m.Vertices) == 0 {
		return nil, fmt.Errorf("no vertices found")
	}
	return m, nil
}

// parseVertexRef resolves one face corner ("7", "7/2", "7//3", "-1") to a
// zero-based vertex index.
func parseVertexRef(ref string, vertexCount int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	if n < 0 {
		n = vertexCount + n + 1
	}
	if n < 1 || n > vertexCount {
		return 0, fmt.Errorf("vertex reference %d out of range", n)
	}
	return n - 1, nil
}

// Write emits the mesh as OBJ. Faces are grouped by material so each slot
// produces a single usemtl block; untagged faces come first.
func Write(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}

	writeFaces := func(slot int) {
		for _, f := range m.Faces {
			if f.Material != slot {
				continue
			}
			fmt.Fprintf(bw, "f %d %d %d\n", f.V[0]+1, f.V[1]+1, f.V[2]+1)
		}
	}

	writeFaces(-1)
	for slot, name := range m.Materials {
		fmt.Fprintf(bw, "usemtl %s\n", name)
		writeFaces(slot)
	}
	return bw.Flush()
}

// LoadFile reads an OBJ file from disk.
func LoadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return m, nil
}

// SaveFile writes the mesh to an OBJ file on disk.
func SaveFile(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("%s: %v", path, err)
	}
	return f.Close()
}
