// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// loginCommand runs the OAuth2 authorization flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Login,
	}
}

// profileCommand shows the authenticated user's account.
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the authenticated Spotify profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Profile,
	}
}

// playlistsCommand lists playlists: one page by default, everything with --all.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pls"},
		Usage:   "List Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Listing offset for page mode",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Page size for page mode (1-50)",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Walk the full listing instead of one page",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// exportFlags returns a fresh flag set shared by the export subcommands.
func exportFlags(r *Runner) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format: json, csv, xls, or xlsx",
			Value:   r.config.Export.Format,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory export files are written to",
			Value:   r.config.Export.OutputDir,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent playlist fetches (1-10)",
			Value: r.config.Export.Workers,
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Playlist fetches per second",
			Value: r.config.Export.RateLimit,
		},
	}
}

// exportCommand exports playlists with full track listings to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists with full track listings",
		Commands: []*cli.Command{
			{
				Name:   "all",
				Usage:  "Export every playlist in the account",
				Flags:  exportFlags(r),
				Action: r.ExportAll,
			},
			{
				Name:      "pick",
				Usage:     "Export the playlists with the given ids",
				ArgsUsage: "<playlist-id> [<playlist-id>...]",
				Flags:     exportFlags(r),
				Action:    r.ExportPick,
			},
		},
	}
}

// historyCommand lists recorded export runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past export runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Only show runs for one export format",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// serveCommand starts the HTTP surface.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve playlists and on-demand exports over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
