package main

import "github.com/urfave/cli/v2"

// loadApp creates an app with sane defaults.
func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "widget"
	app.Usage = "Prize savings widget for a multi-signature wallet"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the toml config file",
			EnvVars: []string{"WIDGET_CONFIG"},
		},
	}
	app.Before = s.loadConfig
	app.After = s.flushLogger
	app.Commands = []*cli.Command{
		{
			Action:      s.listAssets,
			Name:        "assets",
			Usage:       "Print the assets of the connected network",
			Flags:       []cli.Flag{},
			Category:    "Chain",
			Description: `Resolves the configured assets against the chain id reported by the rpc nodes.`,
		},
		{
			Action: s.estimatePrize,
			Name:   "estimate",
			Usage:  "Print the prize estimate of one asset",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "asset",
					Usage: "Asset id, the first asset when empty",
				},
			},
			Category:    "Chain",
			Description: `Reads the prize pool of the asset once and prints the projected prize of the current period.`,
		},
		{
			Action:      s.startServe,
			Name:        "serve",
			Usage:       "Start the widget",
			Flags:       []cli.Flag{},
			Category:    "Widget",
			Description: `Connects to the safe host, starts the widget session and serves it over json-rpc.`,
		},
	}

	s.app = app
}
