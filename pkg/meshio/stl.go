package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/tessellate"
)

const (
	stlSolidName   = "CADModel"
	stlHeaderSize  = 80
	stlRecordSize  = 50
	stlBinaryStart = stlHeaderSize + 4
)

// WriteSTL writes parts as one ASCII STL solid. Facet normals are taken
// from each triangle's corners; a degenerate triangle gets a zero normal.
func WriteSTL(w io.Writer, parts []tessellate.Part) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", stlSolidName)
	for _, p := range parts {
		m := p.Mesh
		for f := 0; f < m.TriangleCount(); f++ {
			t := m.Face(f)
			a, b, c := m.Vertex(t[0]), m.Vertex(t[1]), m.Vertex(t[2])
			n := facetNormal(a, b, c)
			fmt.Fprintf(bw, "  facet normal %s %s %s\n", num(n[0]), num(n[1]), num(n[2]))
			bw.WriteString("    outer loop\n")
			for _, v := range [3]mgl32.Vec3{a, b, c} {
				fmt.Fprintf(bw, "      vertex %s %s %s\n", num(v[0]), num(v[1]), num(v[2]))
			}
			bw.WriteString("    endloop\n")
			bw.WriteString("  endfacet\n")
		}
	}
	fmt.Fprintf(bw, "endsolid %s\n", stlSolidName)
	return bw.Flush()
}

// WriteBinarySTL writes parts as one binary STL.
func WriteBinarySTL(w io.Writer, parts []tessellate.Part) error {
	var count int
	for _, p := range parts {
		count += p.Mesh.TriangleCount()
	}
	if uint64(count) > math.MaxUint32 {
		return fmt.Errorf("meshio: %d triangles do not fit a binary STL", count)
	}

	bw := bufio.NewWriter(w)
	var header [stlHeaderSize]byte
	copy(header[:], "kiln binary STL "+stlSolidName)
	bw.Write(header[:])
	binary.Write(bw, binary.LittleEndian, uint32(count))

	var rec [stlRecordSize]byte
	for _, p := range parts {
		m := p.Mesh
		for f := 0; f < m.TriangleCount(); f++ {
			t := m.Face(f)
			a, b, c := m.Vertex(t[0]), m.Vertex(t[1]), m.Vertex(t[2])
			n := facetNormal(a, b, c)
			for i, v := range [4]mgl32.Vec3{n, a, b, c} {
				for k := 0; k < 3; k++ {
					binary.LittleEndian.PutUint32(rec[i*12+k*4:], math.Float32bits(v[k]))
				}
			}
			if _, err := bw.Write(rec[:]); err != nil {
				return fmt.Errorf("meshio: write stl: %w", err)
			}
		}
	}
	return bw.Flush()
}

func facetNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{}
}

// ReadSTL decodes an ASCII or binary STL. Stored facet normals are ignored;
// corners are welded within DefaultWeldTolerance.
func ReadSTL(r io.Reader, name string) (*mesh.Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("meshio: read stl: %w", err)
	}
	var m *mesh.Mesh
	if isBinarySTL(data) {
		m, err = readBinarySTL(data)
	} else {
		m, err = readASCIISTL(data)
	}
	if err != nil {
		return nil, err
	}
	if name != "" {
		m.Name = name
	}
	return m, nil
}

// isBinarySTL reports whether data is binary. An ASCII file starts with
// "solid", but so do some binary headers; the size check settles it.
func isBinarySTL(data []byte) bool {
	if len(data) < stlBinaryStart {
		return false
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return true
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:stlBinaryStart])
	return uint64(len(data)) == stlBinaryStart+uint64(count)*stlRecordSize
}

func readBinarySTL(data []byte) (*mesh.Mesh, error) {
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:stlBinaryStart])
	if need := stlBinaryStart + uint64(count)*stlRecordSize; uint64(len(data)) < need {
		return nil, fmt.Errorf("meshio: binary stl truncated: need %d bytes, have %d", need, len(data))
	}
	b := mesh.NewBuilder(DefaultWeldTolerance)
	off := stlBinaryStart
	for i := uint32(0); i < count; i++ {
		var corners [3][3]float32
		for v := 0; v < 3; v++ {
			for k := 0; k < 3; k++ {
				corners[v][k] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+12+v*12+k*4:]))
			}
		}
		b.Triangle(corners[0], corners[1], corners[2])
		off += stlRecordSize
	}
	return b.Mesh(), nil
}

func readASCIISTL(data []byte) (*mesh.Mesh, error) {
	b := mesh.NewBuilder(DefaultWeldTolerance)
	var (
		name    string
		corners [][3]float32
		inLoop  bool
		line    int
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				name = fields[1]
			}
		case "outer":
			inLoop = true
			corners = corners[:0]
		case "vertex":
			if !inLoop {
				return nil, fmt.Errorf("meshio: stl line %d: vertex outside loop", line)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("meshio: stl line %d: vertex needs x y z", line)
			}
			var v [3]float32
			for k := 0; k < 3; k++ {
				f, err := strconv.ParseFloat(fields[k+1], 32)
				if err != nil {
					return nil, fmt.Errorf("meshio: stl line %d: %w", line, err)
				}
				v[k] = float32(f)
			}
			corners = append(corners, v)
		case "endloop":
			if len(corners) != 3 {
				return nil, fmt.Errorf("meshio: stl line %d: loop has %d vertices", line, len(corners))
			}
			b.Triangle(corners[0], corners[1], corners[2])
			inLoop = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("meshio: read stl: %w", err)
	}
	m := b.Mesh()
	m.Name = name
	return m, nil
}
