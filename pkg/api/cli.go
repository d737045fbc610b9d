package api

import (
	"github.com/travigo/gtfs-validator/pkg/config"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the validation web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, defaults to the configured api.listen",
					},
				},
				Action: func(c *cli.Context) error {
					appConfig, err := config.LoadFromEnvironment()
					if err != nil {
						return err
					}

					options, err := appConfig.ValidatorOptions(nil)
					if err != nil {
						return err
					}

					listen := appConfig.API.Listen
					if c.IsSet("listen") {
						listen = c.String("listen")
					}

					return SetupServer(listen, options, appConfig.API.MaxUploadBytes)
				},
			},
		},
	}
}
