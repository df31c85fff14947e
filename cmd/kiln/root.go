package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/config"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
}

// load reads the configuration and applies the log level.
func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "kiln",
		Short: "Parametric solid modeler",
		Long: `kiln - parametric solid modeler

Build scenes from primitives, edit their faces with extrude, inset and
subdivide operators, and export them as STL, OBJ or binary glTF.

Run "kiln serve" for the interactive editor.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "kiln.toml", "Configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, verbose, info, warning, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newPropsCmd(opts),
		newExtrudeCmd(opts),
		newInsetCmd(opts),
		newSubdivideCmd(opts),
		newExportCmd(opts),
		newTemplateCmd(),
		newMaterialsCmd(),
		newInfoCmd(),
		newSurfaceCmd(),
	)
	return cmd
}
