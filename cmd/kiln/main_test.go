package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes kiln with args against defaults and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cfg := filepath.Join(t.TempDir(), "missing.toml")
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProps(t *testing.T) {
	out, err := run(t, "props", "cube", "--width", "20", "--height", "20", "--depth", "20", "-m", "steel")
	require.NoError(t, err)
	assert.Contains(t, out, "Material:   Steel")
	assert.Contains(t, out, "Units:      Centimeters")
	assert.Contains(t, out, "Volume:     0.008000 m³")
	assert.Contains(t, out, "Mass:       62.800 kg")
}

func TestPropsRejectsBadInput(t *testing.T) {
	_, err := run(t, "props", "torus")
	assert.Error(t, err)
	_, err = run(t, "props", "cube", "--width", "-1")
	assert.Error(t, err)
	_, err = run(t, "props", "cube", "-u", "furlong")
	assert.Error(t, err)
}

func TestMaterialsAndTemplates(t *testing.T) {
	out, err := run(t, "materials")
	require.NoError(t, err)
	assert.Contains(t, out, "steel")
	assert.Contains(t, out, "#4682B4")

	out, err = run(t, "template")
	require.NoError(t, err)
	assert.Contains(t, out, "house")
	assert.Contains(t, out, "bridge")

	out, err = run(t, "template", "house")
	require.NoError(t, err)
	assert.Contains(t, out, "Simple House")

	_, err = run(t, "template", "castle")
	assert.Error(t, err)
}

func TestExportTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.obj")
	_, err := run(t, "export", "house", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# CAD Model Export"))
}

func TestExportToStdout(t *testing.T) {
	out, err := run(t, "export", "bridge", "-o", "-", "-f", "stl")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "solid CADModel"))

	_, err = run(t, "export", "bridge", "-o", "-")
	assert.Error(t, err, "stdout needs an explicit format")
}

// writeCube exports a 2x2x2 cube script to dir as cube.stl.
func writeCube(t *testing.T, dir string) string {
	t.Helper()
	script := filepath.Join(dir, "cube.zy")
	require.NoError(t, os.WriteFile(script, []byte("(cube :width 2 :height 2 :depth 2)\n"), 0o644))
	stl := filepath.Join(dir, "cube.stl")
	_, err := run(t, "export", script, "-o", stl)
	require.NoError(t, err)
	return stl
}

func TestExportScriptErrors(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.zy")
	require.NoError(t, os.WriteFile(script, []byte("(cube :radius 2)"), 0o644))
	_, err := run(t, "export", script, "-o", filepath.Join(dir, "bad.stl"))
	assert.ErrorContains(t, err, "unknown keyword")
}

func TestInfo(t *testing.T) {
	stl := writeCube(t, t.TempDir())
	out, err := run(t, "info", stl)
	require.NoError(t, err)
	assert.Contains(t, out, "Vertices:   8")
	assert.Contains(t, out, "Triangles:  12")
	assert.Contains(t, out, "Bounds Min: (-1.000, -1.000, -1.000)")
}

func TestTopologyCommands(t *testing.T) {
	dir := t.TempDir()
	stl := writeCube(t, dir)

	extruded := filepath.Join(dir, "extruded.obj")
	_, err := run(t, "extrude", stl, extruded, "--faces", "0", "-d", "1")
	require.NoError(t, err)
	m, err := readMesh(extruded)
	require.NoError(t, err)
	assert.Equal(t, 18, m.TriangleCount())

	inset := filepath.Join(dir, "inset.glb")
	_, err = run(t, "inset", stl, inset, "--all")
	require.NoError(t, err)
	m, err = readMesh(inset)
	require.NoError(t, err)
	assert.Greater(t, m.TriangleCount(), 12)

	sub := filepath.Join(dir, "sub.stl")
	_, err = run(t, "subdivide", stl, sub, "-f", "stlb")
	require.NoError(t, err)
	m, err = readMesh(sub)
	require.NoError(t, err)
	assert.Equal(t, 48, m.TriangleCount())

	_, err = run(t, "extrude", stl, filepath.Join(dir, "none.stl"))
	assert.ErrorContains(t, err, "no faces")
	_, err = run(t, "subdivide", stl, filepath.Join(dir, "many.stl"), "-n", "9")
	assert.Error(t, err)
	_, err = run(t, "info", filepath.Join(dir, "cube.step"))
	assert.Error(t, err)
}

func TestSurfaceCommand(t *testing.T) {
	out, err := run(t, "surface", "wave", "-", "-f", "stl")
	require.NoError(t, err)
	assert.Equal(t, 2*32*32, strings.Count(out, "facet normal"))

	path := filepath.Join(t.TempDir(), "spiral.obj")
	_, err = run(t, "surface", "spiral", path, "--turns", "1")
	require.NoError(t, err)
	out, err = run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Triangles:  1600")

	out, err = run(t, "surface", "mobius", "-", "-f", "stl", "--segments", "8")
	require.NoError(t, err)
	assert.Equal(t, 2*8*2, strings.Count(out, "facet normal"))

	_, err = run(t, "surface", "torus", "-", "-f", "stl")
	assert.Error(t, err)
	_, err = run(t, "surface", "spiral", "-", "-f", "stl", "--tube-radius", "0")
	assert.Error(t, err)
}
