package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: blockdoc <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert block documents to PDF or images")
	fmt.Fprintln(w, "  doctor     Check renderer installation")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'blockdoc help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: blockdoc convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert block documents to PDF or images with an external renderer.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .md file (optional front matter), .yaml block document, or directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel conversions (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Renderer:")
	fmt.Fprintln(w, "  -b, --backend <s>           wkhtmltopdf (pdf), wkhtmltoimage (image), chrome")
	fmt.Fprintln(w, "  -p, --page-size <s>         Page size: a3, a4, a5, letter, legal")
	fmt.Fprintln(w, "      --orientation <s>       Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --zoom <f>              Zoom factor (default 1)")
	fmt.Fprintln(w, "      --extra <key=value>     Pass a flag to the renderer (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Header/Footer:")
	fmt.Fprintln(w, "      --header <path>         HTML page rendered as header")
	fmt.Fprintln(w, "      --footer <path>         HTML page rendered as footer")
	fmt.Fprintln(w, "      --header-spacing <mm>   Space between header and content")
	fmt.Fprintln(w, "      --footer-spacing <mm>   Space between footer and content")
	fmt.Fprintln(w, "      --templates <name>      Header/footer template set")
	fmt.Fprintln(w, "      --date <s>              Template date: literal, \"today\", or \"today:LAYOUT\"")
	fmt.Fprintln(w, "                              Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                              Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name|path>     Style name or CSS file")
	fmt.Fprintln(w, "      --asset-path <dir>      Directory with custom styles and templates")
	fmt.Fprintln(w, "      --no-style              Disable CSS styling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Staging:")
	fmt.Fprintln(w, "      --tmp-dir <dir>         Directory for staged HTML files")
	fmt.Fprintln(w, "      --keep-temp             Keep staged HTML files for inspection")
	fmt.Fprintln(w, "      --id-precision <n>      Id characters used in temp file names")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Log renderer invocations")
	fmt.Fprintln(w, "      --log-format <s>        Log format: console, json")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: blockdoc doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Report which renderers resolve, from the environment bin directory or PATH.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: blockdoc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: blockdoc help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
