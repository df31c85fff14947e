package main

import (
	"fmt"
	"time"

	"fortio.org/log"
	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/mesh"
)

// opFlags are shared by the topology subcommands.
type opFlags struct {
	faces  []int
	all    bool
	format string
}

func (f *opFlags) register(cmd *cobra.Command, withFaces bool) {
	if withFaces {
		cmd.Flags().IntSliceVar(&f.faces, "faces", nil, "Triangle indices to operate on")
		cmd.Flags().BoolVar(&f.all, "all", false, "Operate on every face")
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (stl, stlb, obj, glb); defaults to the output extension")
}

// selection resolves the face flags against m.
func (f *opFlags) selection(m *mesh.Mesh) ([]int, error) {
	if f.all {
		faces := make([]int, m.TriangleCount())
		for i := range faces {
			faces[i] = i
		}
		return faces, nil
	}
	if len(f.faces) == 0 {
		return nil, fmt.Errorf("no faces given: use --faces or --all")
	}
	return f.faces, nil
}

// runOp reads in, applies the operator built by build and writes out.
func runOp(cmd *cobra.Command, opts *options, flags *opFlags, in, out string, build func(*mesh.Mesh) (mesh.Op, error)) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	m, err := readMesh(in)
	if err != nil {
		return err
	}
	op, err := build(m)
	if err != nil {
		return err
	}
	runner := mesh.NewRunner(time.Duration(cfg.Topology.WorkerTimeout))
	res, err := runner.Run(cmd.Context(), m, op)
	if err != nil {
		return err
	}
	log.Infof("%s: %d -> %d triangles", cmd.Name(), m.TriangleCount(), res.TriangleCount())
	return writeMesh(out, flags.format, res, cmd.OutOrStdout())
}

func newExtrudeCmd(opts *options) *cobra.Command {
	flags := &opFlags{}
	var distance float32
	cmd := &cobra.Command{
		Use:   "extrude <in> <out>",
		Short: "Extrude faces of a mesh along their average normal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, opts, flags, args[0], args[1], func(m *mesh.Mesh) (mesh.Op, error) {
				faces, err := flags.selection(m)
				if err != nil {
					return nil, err
				}
				return mesh.Extrude(faces, distance), nil
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().Float32VarP(&distance, "distance", "d", 1, "Extrusion distance in mesh units")
	return cmd
}

func newInsetCmd(opts *options) *cobra.Command {
	flags := &opFlags{}
	var amount float32
	cmd := &cobra.Command{
		Use:   "inset <in> <out>",
		Short: "Inset faces of a mesh toward their centroids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, opts, flags, args[0], args[1], func(m *mesh.Mesh) (mesh.Op, error) {
				faces, err := flags.selection(m)
				if err != nil {
					return nil, err
				}
				return mesh.Inset(faces, amount), nil
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().Float32VarP(&amount, "amount", "a", 0.3, "Inset amount, 0 to 1")
	return cmd
}

func newSubdivideCmd(opts *options) *cobra.Command {
	flags := &opFlags{}
	var iterations int
	cmd := &cobra.Command{
		Use:   "subdivide <in> <out>",
		Short: "Split every triangle of a mesh into four",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, opts, flags, args[0], args[1], func(*mesh.Mesh) (mesh.Op, error) {
				return mesh.Subdivision(iterations), nil
			})
		},
	}
	flags.register(cmd, false)
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1, "Number of subdivision passes")
	return cmd
}
