// Package config loads kiln's TOML configuration file. Every key is
// optional; missing keys keep the values of Default. Unknown keys are an
// error so that typos do not pass silently.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fortio.org/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/kiln/pkg/editor"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/kernel/facet"
	"github.com/chazu/kiln/pkg/kernel/sdfx"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/props"
	"github.com/chazu/kiln/pkg/scene"
)

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the full configuration.
type Config struct {
	LogLevel string   `toml:"log_level"`
	Units    Units    `toml:"units"`
	Kernel   Kernel   `toml:"kernel"`
	Topology Topology `toml:"topology"`
	Gizmo    Gizmo    `toml:"gizmo"`
	Server   Server   `toml:"server"`
	IDs      IDs      `toml:"ids"`
}

type Units struct {
	Length           string `toml:"length"`
	DisplayPrecision int    `toml:"display_precision"`
}

type Kernel struct {
	// Name is "facet" or "sdfx".
	Name      string `toml:"name"`
	SDFXCells int    `toml:"sdfx_cells"`
}

type Topology struct {
	SubdivideCap  int      `toml:"subdivide_cap"`
	WorkerTimeout Duration `toml:"worker_timeout"`
}

type Gizmo struct {
	RotateSensitivity float64 `toml:"rotate_sensitivity"`
	ScaleSensitivity  float64 `toml:"scale_sensitivity"`
	SizeFactor        float64 `toml:"size_factor"`
	SpringFPS         int     `toml:"spring_fps"`
	SpringFrequency   float64 `toml:"spring_frequency"`
	SpringDamping     float64 `toml:"spring_damping"`
}

type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type IDs struct {
	// Scheme is "counter" or "uuid".
	Scheme string `toml:"scheme"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Units: Units{
			Length:           string(props.Centimeter),
			DisplayPrecision: scene.DefaultDisplayPrecision,
		},
		Kernel: Kernel{Name: "facet", SDFXCells: sdfx.DefaultMeshCells},
		Topology: Topology{
			SubdivideCap:  mesh.MaxSubdivideIterations,
			WorkerTimeout: Duration(mesh.DefaultRunTimeout),
		},
		Gizmo: Gizmo{
			RotateSensitivity: gizmo.DefaultRotateSensitivity,
			ScaleSensitivity:  gizmo.DefaultScaleSensitivity,
			SizeFactor:        gizmo.SizeFactor,
			SpringFPS:         60,
			SpringFrequency:   6,
			SpringDamping:     1,
		},
		Server: Server{Addr: "127.0.0.1:8420"},
		IDs:    IDs{Scheme: "counter"},
	}
}

// Load reads path over the defaults. A missing file yields Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("config: %s not found, using defaults", path)
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	var errs []error
	if _, err := props.ParseUnit(c.Units.Length); err != nil {
		errs = append(errs, err)
	}
	if c.Units.DisplayPrecision < 0 {
		errs = append(errs, fmt.Errorf("units.display_precision must be >= 0"))
	}
	switch c.Kernel.Name {
	case "facet", "sdfx":
	default:
		errs = append(errs, fmt.Errorf("kernel.name %q: want facet or sdfx", c.Kernel.Name))
	}
	if c.Kernel.SDFXCells <= 0 {
		errs = append(errs, fmt.Errorf("kernel.sdfx_cells must be positive"))
	}
	if c.Topology.SubdivideCap < 0 || c.Topology.SubdivideCap > mesh.MaxSubdivideIterations {
		errs = append(errs, fmt.Errorf("topology.subdivide_cap must be in [0,%d]", mesh.MaxSubdivideIterations))
	}
	if c.Topology.WorkerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("topology.worker_timeout must be positive"))
	}
	if c.Gizmo.RotateSensitivity <= 0 || c.Gizmo.ScaleSensitivity <= 0 || c.Gizmo.SizeFactor <= 0 {
		errs = append(errs, fmt.Errorf("gizmo sensitivities and size_factor must be positive"))
	}
	if _, err := scene.NewAllocator(c.IDs.Scheme); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LengthUnit returns the configured default unit.
func (c Config) LengthUnit() props.Unit {
	u, err := props.ParseUnit(c.Units.Length)
	if err != nil {
		return props.Centimeter
	}
	return u
}

// NewKernel builds the configured geometry kernel.
func (c Config) NewKernel() (kernel.Kernel, error) {
	switch c.Kernel.Name {
	case "", "facet":
		return facet.New(), nil
	case "sdfx":
		return sdfx.New(c.Kernel.SDFXCells), nil
	}
	return nil, fmt.Errorf("config: unknown kernel %q", c.Kernel.Name)
}

// NewStore builds an empty scene store from the configuration.
func (c Config) NewStore() (*scene.Store, error) {
	k, err := c.NewKernel()
	if err != nil {
		return nil, err
	}
	ids, err := scene.NewAllocator(c.IDs.Scheme)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	settings := scene.DefaultSettings()
	settings.DefaultUnits = c.LengthUnit()
	return scene.NewStore(k, ids, scene.WithSettings(settings)), nil
}

// TransformConfig returns the gizmo drag settings.
func (c Config) TransformConfig() gizmo.TransformConfig {
	return gizmo.TransformConfig{
		RotateSensitivity: c.Gizmo.RotateSensitivity,
		ScaleSensitivity:  c.Gizmo.ScaleSensitivity,
	}
}

// NewSizer returns the gizmo sizer described by the configuration.
func (c Config) NewSizer() *gizmo.Sizer {
	g := c.Gizmo
	return gizmo.NewSpringSizer(g.SpringFPS, g.SpringFrequency, g.SpringDamping, g.SizeFactor)
}

// NewEditor builds a store and an editor over it from the configuration.
func (c Config) NewEditor() (*editor.Editor, error) {
	s, err := c.NewStore()
	if err != nil {
		return nil, err
	}
	return editor.New(s, editor.Options{
		Transform:     c.TransformConfig(),
		SubdivideCap:  c.Topology.SubdivideCap,
		WorkerTimeout: time.Duration(c.Topology.WorkerTimeout),
		Sizer:         c.NewSizer(),
	}), nil
}

// ApplyLogLevel sets the process log level.
func (c Config) ApplyLogLevel() error {
	if c.LogLevel == "" {
		return nil
	}
	if err := log.SetLogLevelStr(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}
