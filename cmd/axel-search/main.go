// Command axel-search finds mirrors for a URL and ranks them by latency.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidArgs  = 2
	ExitStorageError = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "search":
		return runSearch(cmdArgs, stdout, stderr)
	case "show":
		return runShow(cmdArgs, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stderr)
		return ExitSuccess
	default:
		// axel-search [options] URL
		if strings.HasPrefix(command, "-") || strings.Contains(command, "://") {
			return runSearch(args, stdout, stderr)
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return ExitInvalidArgs
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: axel-search [options] URL
       axel-search <command> [options]

Commands:
  search    Find mirrors for URL, probe them and print the ranking (default)
  show      Print a ranking report stored in object storage

Run 'axel-search <command> -h' for command-specific help.`)
}
