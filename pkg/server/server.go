// Package server exposes an editor over HTTP for browser sessions that
// run without the desktop shell. REST routes cover scene commands; the
// /ws websocket carries pointer events in and scene snapshots out.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"fortio.org/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/lo"

	"github.com/chazu/kiln/pkg/editor"
	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/meshio"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/props"
	"github.com/chazu/kiln/pkg/scene"
)

// ShutdownTimeout bounds a graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	Addr string
	// AllowedOrigins lists the origins accepted for CORS and websocket
	// upgrades. Empty allows same-origin requests only; "*" allows all.
	AllowedOrigins []string
	// Assets, when set, is served at the root.
	Assets fs.FS
}

// Server is the HTTP surface of one editor.
type Server struct {
	ed       *editor.Editor
	opts     Options
	echo     *echo.Echo
	hub      *hub
	upgrader websocket.Upgrader
}

// New returns a server for ed. It does not listen until Start.
func New(ed *editor.Editor, opts Options) *Server {
	s := &Server{
		ed:   ed,
		opts: opts,
		echo: echo.New(),
		hub:  newHub(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLog)
	if len(opts.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: opts.AllowedOrigins}))
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	api.GET("/snapshot", s.getSnapshot)
	api.GET("/objects", s.listObjects)
	api.POST("/objects", s.addObject)
	api.GET("/objects/:id", s.getObject)
	api.PATCH("/objects/:id", s.updateObject)
	api.DELETE("/objects/:id", s.removeObject)
	api.DELETE("/objects", s.clearObjects)
	api.POST("/select/:id", s.selectObject)
	api.DELETE("/select", s.clearSelection)
	api.POST("/edit/:id", s.enterEdit)
	api.DELETE("/edit", s.exitEdit)
	api.POST("/faces/:face", s.toggleFace)
	api.POST("/gizmo/:mode", s.setGizmoMode)
	api.POST("/cut", s.setCut)
	api.POST("/cut/apply", s.applyCut)
	api.GET("/templates", s.listTemplates)
	api.POST("/templates/:name", s.loadTemplate)
	api.POST("/script", s.runScript)
	api.POST("/topology/:op", s.topology)
	api.GET("/export/:format", s.export)
	api.GET("/materials", s.listMaterials)
	api.GET("/validate", s.validate)
	s.echo.GET("/ws", s.serveWS)
	if s.opts.Assets != nil {
		s.echo.StaticFS("/", s.opts.Assets)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Infof("server: listening on http://%s", s.opts.Addr)
		errc <- s.echo.Start(s.opts.Addr)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.hub.closeAll()
	if err := s.echo.Shutdown(shutdown); err != nil {
		return err
	}
	log.Infof("server: stopped")
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	return lo.Contains(s.opts.AllowedOrigins, "*") || lo.Contains(s.opts.AllowedOrigins, origin)
}

func requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.Debugf("server: %s %s -> %d (%v)", c.Request().Method, c.Request().URL.Path,
			c.Response().Status, time.Since(start))
		return err
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var statusByError = []struct {
	err    error
	status int
}{
	{scene.ErrNotFound, http.StatusNotFound},
	{engine.ErrUnknownTemplate, http.StatusNotFound},
	{editor.ErrBusy, http.StatusConflict},
	{mesh.ErrSuperseded, http.StatusConflict},
	{mesh.ErrTimeout, http.StatusGatewayTimeout},
	{engine.ErrEvalSuperseded, http.StatusConflict},
	{engine.ErrEvalTimeout, http.StatusGatewayTimeout},
	{gizmo.ErrCutUnsupported, http.StatusNotImplemented},
	{editor.ErrNoSelection, http.StatusUnprocessableEntity},
	{editor.ErrNoFaces, http.StatusUnprocessableEntity},
	{scene.ErrNotEditing, http.StatusUnprocessableEntity},
	{primitive.ErrUnknownType, http.StatusBadRequest},
	{primitive.ErrInvalidParams, http.StatusBadRequest},
	{material.ErrUnknownMaterial, http.StatusBadRequest},
	{props.ErrUnknownUnit, http.StatusBadRequest},
	{mesh.ErrFaceOutOfRange, http.StatusBadRequest},
	{mesh.ErrTooManyIterations, http.StatusBadRequest},
	{mesh.ErrNegativeIterations, http.StatusBadRequest},
	{meshio.ErrUnknownFormat, http.StatusBadRequest},
}

// statusOf maps a command error onto an HTTP status.
func statusOf(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := statusOf(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if status >= http.StatusInternalServerError {
		log.Errf("server: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorBody{Error: msg})
	}
	if err != nil {
		log.Errf("server: writing error response: %v", err)
	}
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
