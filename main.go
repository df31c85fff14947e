package main

import (
	"flag"
	"os"

	"fortio.org/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/kiln/frontend"
	"github.com/chazu/kiln/pkg/config"
)

func main() {
	path := flag.String("config", "kiln.toml", "configuration file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		log.Fatalf("%v", err)
	}
	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = wails.Run(&options.App{
		Title:  "kiln",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: frontend.Assets(),
		},
		OnStartup: app.startup,
		Bind:      []interface{}{app},
	})
	if err != nil {
		log.Errf("wails: %v", err)
		os.Exit(1)
	}
}
