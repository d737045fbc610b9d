package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/archiver"
	"github.com/travigo/gtfs-validator/pkg/config"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/validator"
	"github.com/urfave/cli/v2"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a service order against a GTFS feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "service-order",
				Usage:    "service order CSV, named os_YYYY-MM-DD.csv",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "feed",
				Usage:    "GTFS zip archive, named gtfs_YYYY-MM-DD.zip",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "first day of operation (YYYY-MM-DD), defaults to the date in the service order file name",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "last day of operation (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "write the feed with patched feed_info dates to this path",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "report format: text, json or debug",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "archive-dir",
				Usage: "directory receiving a tar.xz bundle of the run, defaults to the configured archive_directory",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "write the patched feed even when the service order has findings",
			},
		},
		Action: func(c *cli.Context) error {
			appConfig, options, err := loadOptions()
			if err != nil {
				return err
			}

			input, err := readInput(c)
			if err != nil {
				return err
			}
			input.Patch = c.String("output") != ""

			report, err := validator.Run(input, options)
			if err != nil {
				return err
			}

			switch c.String("format") {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				err = encoder.Encode(report)
			case "debug":
				_, err = pretty.Println(report)
			default:
				err = report.WriteText(os.Stdout)
			}
			if err != nil {
				return err
			}

			archiveDirectory := appConfig.ArchiveDirectory
			if c.IsSet("archive-dir") {
				archiveDirectory = c.String("archive-dir")
			}
			if archiveDirectory != "" {
				bundleArchiver := &archiver.Archiver{OutputDirectory: archiveDirectory}
				if _, err := bundleArchiver.Perform(input, report); err != nil {
					return err
				}
			}

			if input.Patch {
				if err := writePatchedFeed(c.String("output"), report, c.Bool("force")); err != nil {
					return err
				}
			}

			if !report.Valid() {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

func patchFeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "patch-feed",
		Usage: "Set the feed_info validity dates of a GTFS feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "feed",
				Usage:    "GTFS zip archive",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "start-date",
				Usage:    "first day of operation (YYYY-MM-DD)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "last day of operation (YYYY-MM-DD), defaults to the configured validity days after the start date",
			},
			&cli.StringFlag{
				Name:     "output",
				Usage:    "path of the patched archive",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			_, options, err := loadOptions()
			if err != nil {
				return err
			}

			archive, err := os.ReadFile(c.String("feed"))
			if err != nil {
				return err
			}

			input := validator.Input{}
			if input.StartDate, err = parseDateFlag(c, "start-date"); err != nil {
				return err
			}
			if input.EndDate, err = parseDateFlag(c, "end-date"); err != nil {
				return err
			}

			startDate, endDate, err := validator.ResolveDates(input, options.DefaultValidityDays)
			if err != nil {
				return err
			}

			patched, err := feed.PatchFeedInfo(archive, startDate, endDate)
			if err != nil {
				return err
			}

			if err := os.WriteFile(c.String("output"), patched, 0o644); err != nil {
				return err
			}

			log.Info().
				Str("output", c.String("output")).
				Str("start", startDate.Format(time.DateOnly)).
				Str("end", endDate.Format(time.DateOnly)).
				Msg("Patched feed written")

			return nil
		},
	}
}

func loadOptions() (*config.Config, validator.Options, error) {
	appConfig, err := config.LoadFromEnvironment()
	if err != nil {
		return nil, validator.Options{}, err
	}

	options, err := appConfig.ValidatorOptions(nil)

	return appConfig, options, err
}

func readInput(c *cli.Context) (validator.Input, error) {
	input := validator.Input{
		ServiceOrderName: filepath.Base(c.String("service-order")),
		FeedName:         filepath.Base(c.String("feed")),
	}

	var err error
	if input.ServiceOrder, err = os.ReadFile(c.String("service-order")); err != nil {
		return input, err
	}
	if input.Feed, err = os.ReadFile(c.String("feed")); err != nil {
		return input, err
	}
	if input.StartDate, err = parseDateFlag(c, "start-date"); err != nil {
		return input, err
	}
	if input.EndDate, err = parseDateFlag(c, "end-date"); err != nil {
		return input, err
	}

	return input, nil
}

func parseDateFlag(c *cli.Context, name string) (time.Time, error) {
	if c.String(name) == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(time.DateOnly, c.String(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be formatted as YYYY-MM-DD", name)
	}

	return date, nil
}

func writePatchedFeed(path string, report *validator.Report, force bool) error {
	if report.PatchedFeed == nil {
		log.Warn().Msg("No start date known, patched feed not written")
		return nil
	}

	if !report.Valid() && !force {
		log.Warn().Msg("Service order has findings, patched feed not written (use --force)")
		return nil
	}

	if err := os.WriteFile(path, report.PatchedFeed, 0o644); err != nil {
		return err
	}

	log.Info().Str("output", path).Msg("Patched feed written")

	return nil
}
