package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/symptomchecker/internal/config"
	"github.com/mrlokans/symptomchecker/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		if err := entrypoint.Run(cfg, Version); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		printUsage()

	case "version":
		fmt.Printf("symptomchecker %s (%s)\n", Version, Commit)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the content resolver HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  version   Print version information\n")
	fmt.Fprintf(os.Stderr, "\nConfiguration is read from the environment: PORT, HOST, DATABASE_PATH,\n")
	fmt.Fprintf(os.Stderr, "DATABASE_LOG_QUERIES, CONTENT_AUTHORITY, LOG_LEVEL, LOG_FORMAT,\n")
	fmt.Fprintf(os.Stderr, "SHUTDOWN_TIMEOUT_IN_SECONDS.\n")
}
