package api

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/realtime"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the live vehicle web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					engine, err := realtime.NewEngineFromEnvironment()
					if err != nil {
						return err
					}

					log.Info().Str("listen", c.String("listen")).Msg("Starting web api")

					return SetupServer(c.String("listen"), engine)
				},
			},
		},
	}
}
