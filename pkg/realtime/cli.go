package realtime

import (
	"context"
	"fmt"

	"github.com/kr/pretty"
	"github.com/travigo/livetracker/pkg/config"
	"github.com/travigo/livetracker/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

// NewEngineFromEnvironment loads configuration, connects the optional Redis and builds the engine
func NewEngineFromEnvironment() (*Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := redis_client.Connect(); err != nil {
		return nil, err
	}

	return NewEngine(cfg, redis_client.Client)
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "realtime",
		Usage: "Query the realtime engine directly",
		Subcommands: []*cli.Command{
			{
				Name:  "vehicles",
				Usage: "print the vehicles currently on a route",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "route",
						Usage:    "Route tag or subway line",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					engine, err := NewEngineFromEnvironment()
					if err != nil {
						return err
					}

					vehicles, err := engine.GetVehicles(context.Background(), c.String("route"))
					if err != nil {
						return err
					}

					pretty.Println(vehicles)

					return nil
				},
			},
			{
				Name:  "arrivals",
				Usage: "print the arrivals board for a stop",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "stop",
						Usage:    "Stop id, subway platform, or comma separated list of either",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					engine, err := NewEngineFromEnvironment()
					if err != nil {
						return err
					}

					arrivals, err := engine.GetArrivals(context.Background(), c.String("stop"))
					if err != nil {
						return err
					}

					for _, arrival := range arrivals {
						fmt.Printf("%3d min  %-12s %s\n", arrival.Minutes, arrival.RouteLabel, arrival.Headsign)
					}

					return nil
				},
			},
			{
				Name:  "paths",
				Usage: "print the stops, directions and paths of a route",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "route",
						Usage:    "Route tag or subway line",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					engine, err := NewEngineFromEnvironment()
					if err != nil {
						return err
					}

					paths, err := engine.GetPaths(context.Background(), c.String("route"))
					if err != nil {
						return err
					}

					pretty.Println(paths.Directions, paths.Stops)
					fmt.Printf("%d paths\n", len(paths.Paths))

					return nil
				},
			},
			{
				Name:  "routes",
				Usage: "list every known route",
				Action: func(c *cli.Context) error {
					engine, err := NewEngineFromEnvironment()
					if err != nil {
						return err
					}

					routes, err := engine.GetRoutes(context.Background())
					if err != nil {
						return err
					}

					for _, tag := range SortedRouteTags(routes) {
						fmt.Println(tag)
					}

					return nil
				},
			},
		},
	}
}
