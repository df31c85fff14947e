// Package meshio reads and writes triangle meshes in common interchange
// formats: ASCII and binary STL, Wavefront OBJ and binary glTF.
//
// Writers take world-space parts as produced by package tessellate.
// Readers return indexed meshes whose coincident corners are welded.
package meshio

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/kiln/pkg/tessellate"
)

// DefaultWeldTolerance merges imported corners closer than this.
const DefaultWeldTolerance = 1e-6

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("meshio: unknown format")

// Format names an export format.
type Format string

const (
	FormatSTL       Format = "stl"
	FormatBinarySTL Format = "stlb"
	FormatOBJ       Format = "obj"
	FormatGLB       Format = "glb"
)

// Formats lists the supported export formats.
func Formats() []Format {
	return []Format{FormatSTL, FormatBinarySTL, FormatOBJ, FormatGLB}
}

// ParseFormat converts a format name, accepting a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(s), "."))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatBinarySTL {
		return "stl"
	}
	return string(f)
}

// MIMEType returns the content type used when offering f for download.
func (f Format) MIMEType() string {
	switch f {
	case FormatSTL, FormatOBJ:
		return "text/plain"
	case FormatGLB:
		return "model/gltf-binary"
	default:
		return "application/octet-stream"
	}
}

// Write encodes parts to w in format f.
func Write(w io.Writer, f Format, parts []tessellate.Part) error {
	switch f {
	case FormatSTL:
		return WriteSTL(w, parts)
	case FormatBinarySTL:
		return WriteBinarySTL(w, parts)
	case FormatOBJ:
		return WriteOBJ(w, parts)
	case FormatGLB:
		return WriteGLB(w, parts)
	}
	return fmt.Errorf("meshio: unknown format %q", f)
}

// num prints a coordinate in its shortest exact form, never with an exponent.
func num(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
