package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/meshio"
	"github.com/chazu/kiln/pkg/tessellate"
)

// readMeshes loads every mesh in a .stl, .obj, .glb or .gltf file.
func readMeshes(path string) ([]*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var m *mesh.Mesh
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		m, err = meshio.ReadSTL(bytes.NewReader(data), name)
	case ".obj":
		m, err = meshio.ReadOBJ(bytes.NewReader(data), name)
	case ".glb", ".gltf":
		return meshio.ReadGLTF(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .stl, .obj, .glb or .gltf)", ext)
	}
	if err != nil {
		return nil, err
	}
	return []*mesh.Mesh{m}, nil
}

// readMesh loads a file that must hold exactly one mesh.
func readMesh(path string) (*mesh.Mesh, error) {
	ms, err := readMeshes(path)
	if err != nil {
		return nil, err
	}
	if len(ms) != 1 {
		return nil, fmt.Errorf("%s: expected one mesh, found %d", path, len(ms))
	}
	return ms[0], nil
}

// outputFormat picks the export format: the explicit one if given,
// otherwise the output file's extension.
func outputFormat(path, explicit string) (meshio.Format, error) {
	if explicit != "" {
		return meshio.ParseFormat(explicit)
	}
	return meshio.ParseFormat(filepath.Ext(path))
}

// writeParts encodes parts into path, or to stdout for "-".
func writeParts(path string, f meshio.Format, parts []tessellate.Part, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := meshio.Write(&buf, f, parts); err != nil {
		return err
	}
	if path == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeMesh writes a single mesh in the format implied by path.
func writeMesh(path, format string, m *mesh.Mesh, stdout io.Writer) error {
	f, err := outputFormat(path, format)
	if err != nil {
		return err
	}
	return writeParts(path, f, []tessellate.Part{{Name: m.Name, Mesh: m.WithNormals()}}, stdout)
}
