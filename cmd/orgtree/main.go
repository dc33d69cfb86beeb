package main

import (
	"fmt"
	"os"

	"github.com/gerunddev/orgtree/internal/commands"
	"github.com/gerunddev/orgtree/internal/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "dump", "tree":
		commands.Dump(os.Args[2:])
	case "render":
		commands.Render(os.Args[2:])
	case "view":
		commands.View(os.Args[2:])
	case "check":
		commands.Check(os.Args[2:])
	case "build":
		commands.Build(os.Args[2:])
	case "status":
		commands.Status()
	case "browse", "files":
		commands.Browse()
	case "config":
		commands.Config(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("orgtree v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	usage := fmt.Sprintf(`orgtree - Parse org-style notes and render them as HTML, Markdown or org

Usage:
  orgtree <command> [options]

Commands:
  dump        Print the parsed tree of a file
  render      Render a file (--format html|md|org, --out path)
  view        Preview a file in the terminal
  check       Show where files differ from their canonical org form (--fix rewrites them)
  build       Render the source directory (--dir, --out, --format, --dry-run, --force)
  status      Show what the next build would render
  browse      Browse sources and preview them
  config      Manage configuration (init, show, path)
  version     Show version information
  help        Show this help message

Common flags:
  --strict    Split lists on marker changes and read [-] as no checkbox
  --verbose   Log debug records to stderr

Examples:
  orgtree dump notes/todo.org
  orgtree render notes/todo.org --format md
  orgtree check notes/*.org
  orgtree build --dry-run
  orgtree config init

Configuration:
  Config file: %s
  State file:  %s

For more information, visit: https://github.com/gerunddev/orgtree
`, config.ConfigPath(), config.StateFilePath())
	fmt.Print(usage)
}
