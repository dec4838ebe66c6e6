package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/db"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/mcp"
	"github.com/hpungsan/internmap/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"migrate": true, "list": true, "get": true, "add": true,
	"delete": true, "import": true, "clear": true, "serve": true,
	"search": true, "geocode": true, "route": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _       _
  (_)_ __ | |_ ___ _ __ _ __  _ __ ___   __ _ _ __
  | | '_ \| __/ _ \ '__| '_ \| '_ ' _ \ / _' | '_ \
  | | | | | ||  __/ |  | | | | | | | | | (_| | |_) |
  |_|_| |_|\__\___|_|  |_| |_|_| |_| |_|\__,_| .__/
                                             |_|

  Internship experiences on a map

  Usage: internmap <command> [options]
         internmap serve
         internmap --help

  MCP server mode requires piped input.`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatalf("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatalf("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".internmap")

	cfg, err := loadConfig(baseDir)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown tools in disabled_tools: %v\n", unknown)
	}

	logger, err := config.SetupLogger(cfg, os.Stderr)
	if err != nil {
		fatalf("%v", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	geoSvc := geo.New(cfg, nil, logger)
	session, err := ops.New(database, cfg, geoSvc, logger)
	if err != nil {
		fatalf("failed to load reference data: %v", err)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(session, cfg, geoSvc, logger)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			database.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'internmap --help' for usage.\n")
		database.Close()
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(session, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}

// loadConfig merges ~/.internmap/config.json with the nearest deployment
// .internmap/config.json above the working directory.
func loadConfig(baseDir string) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Load(baseDir)
	}
	return config.LoadWithRepo(baseDir, wd)
}
