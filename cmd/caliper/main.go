package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "config":
		err = cmdConfig()
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("caliper %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Caliper - Adaptive Placement Testing

Usage:
  caliper <command> [arguments]

Commands:
  init            Initialize Caliper (first-time setup)
  config          Show current configuration
  mcp             Run the MCP server on stdio
  version         Show version

The HTTP daemon and the plan worker are separate binaries, caliperd
and caliper-worker, configured through the environment.`)
}
