package main

import (
	"fmt"
	"strings"

	"fortio.org/log"
	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/surface"
)

func newSurfaceCmd() *cobra.Command {
	var (
		format string
		wave   = surface.DefaultWave()
		spiral = surface.DefaultSpiral()
		mobius = surface.DefaultMobius()
	)
	kinds := make([]string, 0, len(surface.Kinds()))
	for _, k := range surface.Kinds() {
		kinds = append(kinds, string(k))
	}
	cmd := &cobra.Command{
		Use:   "surface <" + strings.Join(kinds, "|") + "> <out>",
		Short: "Generate an open parametric surface",
		Long: `Generate a wave sheet, a spiral tube or a Möbius strip and write it as a
mesh. Surfaces are open, so no volume or mass is reported for them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				m   *mesh.Mesh
				err error
			)
			switch surface.Kind(args[0]) {
			case surface.KindWave:
				m, err = surface.Wave(wave)
			case surface.KindSpiral:
				m, err = surface.Spiral(spiral)
			case surface.KindMobius:
				m, err = surface.Mobius(mobius)
			default:
				return fmt.Errorf("%w: %q", surface.ErrUnknownKind, args[0])
			}
			if err != nil {
				return err
			}
			log.Infof("surface %s: %d triangles", args[0], m.TriangleCount())
			return writeMesh(args[1], format, m, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "", "Output format (stl, stlb, obj, glb); defaults to the output extension")
	f.Float64Var(&wave.Amplitude, "amplitude", wave.Amplitude, "Wave height")
	f.Float64Var(&wave.Frequency, "frequency", wave.Frequency, "Wave frequency")
	f.Float64Var(&spiral.Turns, "turns", spiral.Turns, "Spiral turns")
	f.Float64Var(&spiral.TubeRadius, "tube-radius", spiral.TubeRadius, "Spiral tube radius")
	f.IntVar(&mobius.Segments, "segments", mobius.Segments, "Möbius segments around the strip")
	return cmd
}
