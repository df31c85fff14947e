package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chazu/kiln/pkg/editor"
	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/meshio"
	"github.com/chazu/kiln/pkg/scene"
)

func (s *Server) getSnapshot(c echo.Context) error {
	snap, err := s.ed.Snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) listObjects(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ed.Store().Objects())
}

func (s *Server) getObject(c echo.Context) error {
	o, ok := s.ed.Store().Get(c.Param("id"))
	if !ok {
		return fmt.Errorf("server: %s: %w", c.Param("id"), scene.ErrNotFound)
	}
	return c.JSON(http.StatusOK, o)
}

type idBody struct {
	ID string `json:"id"`
}

type idsBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) addObject(c echo.Context) error {
	var spec scene.Spec
	if err := c.Bind(&spec); err != nil {
		return err
	}
	id, err := s.ed.Add(spec)
	if err != nil {
		return err
	}
	s.broadcast()
	return c.JSON(http.StatusCreated, idBody{ID: id})
}

func (s *Server) updateObject(c echo.Context) error {
	var p scene.Patch
	if err := c.Bind(&p); err != nil {
		return err
	}
	id := c.Param("id")
	if err := s.ed.Update(id, p); err != nil {
		return err
	}
	s.broadcast()
	o, _ := s.ed.Store().Get(id)
	return c.JSON(http.StatusOK, o)
}

func (s *Server) removeObject(c echo.Context) error {
	if err := s.ed.Remove(c.Param("id")); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearObjects(c echo.Context) error {
	s.ed.Clear()
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) selectObject(c echo.Context) error {
	if err := s.ed.Select(c.Param("id")); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearSelection(c echo.Context) error {
	if err := s.ed.Select(""); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) enterEdit(c echo.Context) error {
	if err := s.ed.EnterEditMode(c.Param("id")); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) exitEdit(c echo.Context) error {
	s.ed.ExitEditMode()
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

type faceBody struct {
	Face     int  `json:"face"`
	Selected bool `json:"selected"`
}

func (s *Server) toggleFace(c echo.Context) error {
	f, err := strconv.Atoi(c.Param("face"))
	if err != nil {
		return badRequest(fmt.Errorf("face: %w", err))
	}
	on, err := s.ed.ToggleFace(f)
	if err != nil {
		return err
	}
	s.broadcast()
	return c.JSON(http.StatusOK, faceBody{Face: f, Selected: on})
}

func (s *Server) setGizmoMode(c echo.Context) error {
	m, err := gizmo.ParseMode(c.Param("mode"))
	if err != nil {
		return badRequest(err)
	}
	if err := s.ed.SetGizmoMode(m); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

type cutBody struct {
	On bool `json:"on"`
}

func (s *Server) setCut(c echo.Context) error {
	var b cutBody
	if err := c.Bind(&b); err != nil {
		return err
	}
	if err := s.ed.ShowCuttingPlane(b.On); err != nil {
		return err
	}
	s.broadcast()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) applyCut(c echo.Context) error {
	if err := s.ed.Cut(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, engine.Templates())
}

func (s *Server) loadTemplate(c echo.Context) error {
	ids, err := s.ed.LoadTemplate(c.Param("name"))
	if err != nil {
		return err
	}
	s.broadcast()
	return c.JSON(http.StatusOK, idsBody{IDs: ids})
}

type scriptBody struct {
	Source string `json:"source"`
}

type scriptResult struct {
	IDs    []string           `json:"ids"`
	Errors []engine.EvalError `json:"errors,omitempty"`
}

func (s *Server) runScript(c echo.Context) error {
	var b scriptBody
	if err := c.Bind(&b); err != nil {
		return err
	}
	ids, evalErrs, err := s.ed.RunScript(b.Source)
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, scriptResult{Errors: evalErrs})
	}
	s.broadcast()
	return c.JSON(http.StatusOK, scriptResult{IDs: ids})
}

// topologyBody carries the parameter of whichever operator is invoked.
type topologyBody struct {
	Distance   float32 `json:"distance"`
	Amount     float32 `json:"amount"`
	Iterations int     `json:"iterations"`
}

func (s *Server) topology(c echo.Context) error {
	var b topologyBody
	if err := c.Bind(&b); err != nil {
		return err
	}
	ctx := c.Request().Context()
	var err error
	switch op := c.Param("op"); op {
	case "extrude":
		err = s.ed.Extrude(ctx, b.Distance)
	case "inset":
		err = s.ed.Inset(ctx, b.Amount)
	case "subdivide":
		if b.Iterations == 0 {
			b.Iterations = 1
		}
		err = s.ed.Subdivide(ctx, b.Iterations)
	default:
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown operator %q", op))
	}
	if err != nil {
		return err
	}
	s.broadcast()
	o, _ := s.ed.Store().Selected()
	return c.JSON(http.StatusOK, o)
}

func (s *Server) export(c echo.Context) error {
	f, err := meshio.ParseFormat(c.Param("format"))
	if err != nil {
		return err
	}
	data, err := s.ed.Export(f)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", editor.DownloadName(f)))
	return c.Blob(http.StatusOK, f.MIMEType(), data)
}

func (s *Server) listMaterials(c echo.Context) error {
	return c.JSON(http.StatusOK, material.All())
}

func (s *Server) validate(c echo.Context) error {
	findings := s.ed.Validate()
	if findings == nil {
		findings = []scene.ValidationError{}
	}
	return c.JSON(http.StatusOK, findings)
}
