package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/tessellate"
)

// WriteOBJ writes parts as Wavefront OBJ, one "o" group per part. Face
// indices are 1-based and continue across parts.
func WriteOBJ(w io.Writer, parts []tessellate.Part) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# CAD Model Export\n")
	offset := uint32(1)
	for i, p := range parts {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Object%d", i+1)
		}
		fmt.Fprintf(bw, "o %s\n", name)
		m := p.Mesh
		for v := 0; v < m.VertexCount(); v++ {
			x := m.Vertex(uint32(v))
			fmt.Fprintf(bw, "v %s %s %s\n", num(x[0]), num(x[1]), num(x[2]))
		}
		for f := 0; f < m.TriangleCount(); f++ {
			t := m.Face(f)
			fmt.Fprintf(bw, "f %d %d %d\n", t[0]+offset, t[1]+offset, t[2]+offset)
		}
		offset += uint32(m.VertexCount())
	}
	return bw.Flush()
}

// ReadOBJ decodes the geometry of a Wavefront OBJ into one mesh. Polygons
// are fanned into triangles; texture and normal references are ignored,
// and negative (relative) indices are resolved.
func ReadOBJ(r io.Reader, name string) (*mesh.Mesh, error) {
	var (
		vertices []float32
		indices  []uint32
		line     int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "o":
			if name == "" && len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("meshio: obj line %d: vertex needs x y z", line)
			}
			for k := 1; k <= 3; k++ {
				f, err := strconv.ParseFloat(fields[k], 32)
				if err != nil {
					return nil, fmt.Errorf("meshio: obj line %d: %w", line, err)
				}
				vertices = append(vertices, float32(f))
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("meshio: obj line %d: face needs 3 vertices", line)
			}
			count := len(vertices) / 3
			poly := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := objIndex(ref, count)
				if err != nil {
					return nil, fmt.Errorf("meshio: obj line %d: %w", line, err)
				}
				poly = append(poly, idx)
			}
			for k := 1; k+1 < len(poly); k++ {
				indices = append(indices, poly[0], poly[k], poly[k+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("meshio: read obj: %w", err)
	}
	m := mesh.New(vertices, indices)
	m.Name = name
	return m, nil
}

// objIndex resolves a "v", "v/vt" or "v/vt/vn" reference to a 0-based vertex.
func objIndex(ref string, count int) (uint32, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("bad face reference %q", ref)
	}
	if n < 0 {
		n = count + n + 1
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("face reference %q: %w", ref, mesh.ErrIndexOutOfRange)
	}
	return uint32(n - 1), nil
}
