// kiln - parametric solid modeler.
//
// Without a subcommand kiln prints help. "kiln serve" runs the editor as
// a local web app; the other subcommands work on files and scripts from
// the shell:
//
//	kiln props cube --width 20 --material wood
//	kiln extrude part.stl out.stl --faces 0,1 --distance 2
//	kiln export house.zy -o house.glb
//	kiln template house
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		stop()
		os.Exit(1)
	}
}
