package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/filter"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/ops"
	"github.com/hpungsan/internmap/internal/profile"
	"github.com/hpungsan/internmap/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(session *ops.Session, cfg *config.Config, geoSvc *geo.Service, logger *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "internmap",
		Usage:   "Internship experiences on a map",
		Version: Version,
		Commands: []*cli.Command{
			migrateCmd(session),
			listCmd(session),
			getCmd(session),
			addCmd(session),
			deleteCmd(session),
			importCmd(session),
			clearCmd(session),
			serveCmd(session, geoSvc, logger),
			searchCmd(geoSvc),
			geocodeCmd(geoSvc),
			routeCmd(geoSvc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// migrateCmd creates the migrate command.
func migrateCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Reconcile stored profiles with the reference set and print the report",
		Action: func(c *cli.Context) error {
			report, err := session.Boot(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, report)
		},
	}
}

// listCmd creates the list command.
func listCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List profiles matching the map filters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "Location type: all|physical|remote"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Travel mode: all|driving|walking|bus"},
			&cli.StringFlag{Name: "max", Usage: "Maximum travel minutes (default 30)"},
			&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "Field of study (repeatable)"},
			&cli.BoolFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Print summaries instead of full profiles"},
		},
		Action: func(c *cli.Context) error {
			output, err := session.List(c.Context, ops.ListInput{
				LocationType: c.String("location"),
				TravelMode:   c.String("mode"),
				MaxMinutes:   c.String("max"),
				Fields:       c.StringSlice("field"),
			})
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("summary") {
				return outputJSON(c.App.Writer, output)
			}
			return outputJSON(c.App.Writer, summaryOutput{
				Map:    ops.Summaries(output.MapEligible),
				List:   ops.Summaries(output.ListEligible),
				Filter: output.Filter,
				Total:  output.Total,
			})
		},
	}
}

// summaryOutput is the list --summary document.
type summaryOutput struct {
	Map    []ops.Summary  `json:"map"`
	List   []ops.Summary  `json:"list"`
	Filter filter.Options `json:"filter"`
	Total  int            `json:"total"`
}

// getCmd creates the get command.
func getCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print one profile by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			p, err := session.Get(c.Context, ops.GetInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, p)
		},
	}
}

// addCmd creates the add command.
func addCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Submit a profile (reads profile JSON from stdin or --file)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "Read the profile JSON from this file"},
			&cli.StringFlag{Name: "access-code", Aliases: []string{"c"}, Usage: "Shared access code"},
		},
		Action: func(c *cli.Context) error {
			data, err := readInput(c, c.String("file"))
			if err != nil {
				return outputError(err)
			}
			if len(bytes.TrimSpace(data)) == 0 {
				return outputError(errors.NewInvalidRequest("profile JSON must be piped via stdin or given with --file"))
			}

			var p profile.Profile
			if err := json.Unmarshal(data, &p); err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid profile JSON: %v", err)))
			}

			output, err := session.Submit(c.Context, ops.SubmitInput{
				AccessCode: c.String("access-code"),
				Profile:    p,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one profile by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := session.Delete(c.Context, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import profiles from a CSV file (or CSV piped via stdin)",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "CSV file inside an allowed import directory"},
			&cli.StringFlag{Name: "access-code", Aliases: []string{"c"}, Usage: "Shared access code"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{AccessCode: c.String("access-code")}

			path := c.String("path")
			if path == "" {
				path = c.Args().First()
			}
			switch {
			case path != "":
				input.Path = path
			case readerHasData(c.App.Reader):
				input.Reader = c.App.Reader
			default:
				return outputError(errors.NewInvalidRequest("give a CSV path or pipe CSV via stdin"))
			}

			output, err := session.Import(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(session *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every stored profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm removal"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("clear removes every profile; pass --yes to confirm"))
			}
			output, err := session.Clear(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(session *ops.Session, geoSvc *geo.Service, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
			&cli.BoolFlag{Name: "no-geo", Usage: "Disable the address search endpoint"},
		},
		Action: func(c *cli.Context) error {
			if _, err := session.Boot(c.Context); err != nil {
				return outputError(err)
			}
			opts := web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    c.Int("port"),
				Logger:  logger,
			}
			if !c.Bool("no-geo") {
				opts.Geo = geoSvc
			}
			if err := web.Run(web.NewServer(session, opts), logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// searchCmd creates the search command.
func searchCmd(geoSvc *geo.Service) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Look up address candidates for a partial query",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			if geoSvc == nil {
				return outputError(errors.NewProviderUnavailable("search"))
			}
			query := strings.Join(c.Args().Slice(), " ")
			return outputJSON(c.App.Writer, geoSvc.NewSession().Search(c.Context, query))
		},
	}
}

// geocodeCmd creates the geocode command.
func geocodeCmd(geoSvc *geo.Service) *cli.Command {
	return &cli.Command{
		Name:      "geocode",
		Usage:     "Resolve an address to coordinates",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			if geoSvc == nil {
				return outputError(errors.NewProviderUnavailable("geocode"))
			}
			address := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if address == "" {
				return outputError(errors.NewInvalidRequest("address is required"))
			}
			return outputJSON(c.App.Writer, geoSvc.Geocoder.Geocode(c.Context, address))
		},
	}
}

// routeCmd creates the route command.
func routeCmd(geoSvc *geo.Service) *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Compute travel minutes from the configured origin to a point",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "lat", Required: true, Usage: "Destination latitude"},
			&cli.Float64Flag{Name: "lng", Required: true, Usage: "Destination longitude"},
		},
		Action: func(c *cli.Context) error {
			if geoSvc == nil {
				return outputError(errors.NewProviderUnavailable("routing"))
			}
			dest := profile.Coordinates{Lat: c.Float64("lat"), Lng: c.Float64("lng")}
			if dest.Lat < -90 || dest.Lat > 90 || dest.Lng < -180 || dest.Lng > 180 {
				return outputError(errors.NewInvalidRequest("coordinates are out of range"))
			}
			return outputJSON(c.App.Writer, geoSvc.TravelTimesTo(c.Context, dest))
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. Validation failures list their fields.
func outputError(err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return cli.Exit(err.Error(), 1)
	}

	msg := fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message)
	if fields := errors.FieldErrors(err); len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			msg += fmt.Sprintf("\n  %s: %s", name, fields[name])
		}
	}
	return cli.Exit(msg, 1)
}

// readerHasData returns true if r is piped data rather than a terminal.
func readerHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput reads path when set, otherwise piped stdin.
func readInput(c *cli.Context, path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if stderrors.Is(err, os.ErrNotExist) {
				return nil, errors.NewFileNotFound(path)
			}
			return nil, errors.NewInternal(err)
		}
		return data, nil
	}
	if !readerHasData(c.App.Reader) {
		return nil, nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}
