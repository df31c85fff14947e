package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/props"
	"github.com/chazu/kiln/pkg/tessellate"
)

func newPropsCmd(opts *options) *cobra.Command {
	var p primitive.Params
	var materialKey, unit string
	cmd := &cobra.Command{
		Use:       "props <cube|sphere|cylinder|cone>",
		Short:     "Compute volume, mass and cost of a primitive",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"cube", "sphere", "cylinder", "cone"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			t, err := primitive.ParseType(args[0])
			if err != nil {
				return err
			}
			geom, err := primitive.WithDefaults(t, p)
			if err != nil {
				return err
			}
			if err := geom.Validate(t); err != nil {
				return err
			}
			if materialKey == "" {
				materialKey = material.DefaultKeyFor(string(t))
			}
			mat, err := material.Lookup(materialKey)
			if err != nil {
				return err
			}
			u := cfg.LengthUnit()
			if unit != "" {
				if u, err = props.ParseUnit(unit); err != nil {
					return err
				}
			}
			res, err := props.Compute(t, geom, mat, u)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Primitive:  %s\n", t)
			fmt.Fprintf(w, "Material:   %s\n", mat.Name)
			fmt.Fprintf(w, "Units:      %s\n", u.Name())
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Volume:     %.*f m³\n", props.VolumePrecision, res.Volume)
			fmt.Fprintf(w, "Mass:       %.*f kg\n", props.MassPrecision, res.Mass)
			fmt.Fprintf(w, "Cost:       $%.*f\n", props.CostPrecision, res.Cost)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&p.Width, "width", 0, "Box width")
	f.Float64Var(&p.Height, "height", 0, "Box, cylinder or cone height")
	f.Float64Var(&p.Depth, "depth", 0, "Box depth")
	f.Float64Var(&p.Radius, "radius", 0, "Sphere or cone radius")
	f.Float64Var(&p.RadiusTop, "radius-top", 0, "Cylinder top radius")
	f.Float64Var(&p.RadiusBottom, "radius-bottom", 0, "Cylinder bottom radius")
	f.StringVarP(&materialKey, "material", "m", "", "Material key (see kiln materials)")
	f.StringVarP(&unit, "unit", "u", "", "Length unit (mm, cm, m, in, ft)")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "export <script.zy|template>",
		Short: "Evaluate a script or template and export the result",
		Long: `Evaluate a script file, or a built-in template when no such file exists,
and write the visible objects in world space.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])) + ".stl"
			}
			f, err := outputFormat(out, format)
			if err != nil {
				return err
			}
			ed, err := cfg.NewEditor()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			switch {
			case err == nil:
				_, evalErrs, err := ed.RunScript(string(src))
				if err != nil {
					return err
				}
				if len(evalErrs) > 0 {
					return fmt.Errorf("%s: %w", args[0], evalErrs[0])
				}
			case os.IsNotExist(err):
				if _, err := ed.LoadTemplate(args[0]); err != nil {
					return err
				}
			default:
				return err
			}
			parts, err := tessellate.Tessellate(ed.Store().Visible())
			if err != nil {
				return err
			}
			return writeParts(out, f, parts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", `Output file, "-" for stdout (default <name>.stl)`)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (stl, stlb, obj, glb)")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [name]",
		Short: "List templates, or print one's script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				src, err := engine.TemplateSource(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(w, src)
				return nil
			}
			for _, t := range engine.Templates() {
				fmt.Fprintf(w, "%-10s %-16s %s\n", t.Name, t.Title, t.Description)
			}
			return nil
		},
	}
}

func newMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the material catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s %-14s %8s %10s %s\n", "KEY", "NAME", "KG/M³", "$/KG", "COLOR")
			for _, m := range material.All() {
				fmt.Fprintf(w, "%-10s %-14s %8.0f %10.2f %s\n", m.Key, m.Name, m.Density, m.CostPerKg, m.Hex())
			}
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <model.stl|model.obj|model.glb>",
		Short: "Display mesh information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := readMeshes(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:       %s\n", filepath.Base(args[0]))
			fmt.Fprintf(w, "Meshes:     %d\n", len(ms))
			for _, m := range ms {
				lo, hi := m.Bounds()
				fmt.Fprintln(w)
				fmt.Fprintf(w, "Name:       %s\n", m.Name)
				fmt.Fprintf(w, "Vertices:   %d\n", m.VertexCount())
				fmt.Fprintf(w, "Triangles:  %d\n", m.TriangleCount())
				fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", lo[0], lo[1], lo[2])
				fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", hi[0], hi[1], hi[2])
			}
			return nil
		},
	}
}
