package scene

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/props"
)

// ValidationSeverity indicates whether a validation finding blocks export
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ObjectID string             `json:"objectId"` // empty for scene-level findings
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

func (e ValidationError) Error() string {
	if e.ObjectID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] object %s: %s", e.Severity, e.ObjectID, e.Message)
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []ValidationError) bool {
	return lo.SomeBy(findings, func(e ValidationError) bool { return e.Severity == SeverityError })
}

// Validate checks every object and returns the findings. An empty slice
// means the scene is valid. It never mutates the store.
func (s *Store) Validate() []ValidationError {
	objects := s.Objects()
	var errs []ValidationError
	errs = append(errs, validateGeometry(objects)...)
	errs = append(errs, validateMaterials(objects)...)
	errs = append(errs, validateMeshes(objects)...)
	errs = append(errs, validateNames(objects)...)
	errs = append(errs, validateScale(objects)...)
	return errs
}

func validateGeometry(objects []Object) []ValidationError {
	var errs []ValidationError
	for _, o := range objects {
		if err := o.Geometry.Validate(o.Type); err != nil {
			errs = append(errs, ValidationError{
				ObjectID: o.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateMaterials(objects []Object) []ValidationError {
	var errs []ValidationError
	for _, o := range objects {
		if _, err := material.Lookup(o.Material); err != nil {
			errs = append(errs, ValidationError{
				ObjectID: o.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
		if _, err := props.ParseUnit(string(o.Units.Length)); err != nil {
			errs = append(errs, ValidationError{
				ObjectID: o.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateMeshes flags broken buffers as errors and empty meshes as
// warnings, since an empty mesh still exports cleanly.
func validateMeshes(objects []Object) []ValidationError {
	var errs []ValidationError
	for _, o := range objects {
		switch {
		case o.Mesh == nil || o.Mesh.IsEmpty():
			errs = append(errs, ValidationError{
				ObjectID: o.ID,
				Message:  "mesh has no geometry",
				Severity: SeverityWarning,
			})
		default:
			if err := o.Mesh.Validate(); err != nil {
				errs = append(errs, ValidationError{
					ObjectID: o.ID,
					Message:  err.Error(),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames warns about duplicate names; exports label parts by name.
func validateNames(objects []Object) []ValidationError {
	var errs []ValidationError
	first := make(map[string]string)
	for _, o := range objects {
		if prev, ok := first[o.Name]; ok {
			errs = append(errs, ValidationError{
				ObjectID: o.ID,
				Message:  fmt.Sprintf("name %q is already used by %s", o.Name, prev),
				Severity: SeverityWarning,
			})
			continue
		}
		first[o.Name] = o.ID
	}
	return errs
}

func validateScale(objects []Object) []ValidationError {
	var errs []ValidationError
	for _, o := range objects {
		for i, c := range o.Transform.Scale {
			if c == 0 {
				errs = append(errs, ValidationError{
					ObjectID: o.ID,
					Message:  fmt.Sprintf("scale %c is zero; the object is flat", "xyz"[i]),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}
