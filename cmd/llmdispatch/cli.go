package llmdispatch

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

// output receives command results.
var output io.Writer = os.Stdout

// Run parses flags and executes the selected command.
func Run(args []string) {
	if err := Execute(args); err != nil {
		// flags already prints user-friendly message; we only exit with code 1
		log.Fatalf("%v", err)
	}
}

// Execute parses args and runs the selected sub-command.
func Execute(args []string) error {
	setConfigPath(extractConfigPath(args))

	opts := &Options{}
	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	if opts.Version {
		fmt.Fprintln(output, Version())
	}
	return nil
}

// extractConfigPath scans raw args for -f/--config before full parsing so that
// sub-command Execute can load the configuration.
func extractConfigPath(args []string) string {
	for i, a := range args {
		switch a {
		case "-f", "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		default:
			if strings.HasPrefix(a, "--config=") {
				return strings.TrimPrefix(a, "--config=")
			}
		}
	}
	return ""
}

// RunWithCommands is kept for symmetry with scy CLI.
func RunWithCommands(args []string) {
	Run(args)
}
