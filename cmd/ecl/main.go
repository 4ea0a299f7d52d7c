package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/sambeau/ecl/config"
	"github.com/sambeau/ecl/pkg/ecl/ast"
	"github.com/sambeau/ecl/pkg/ecl/ecl"
	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
	"github.com/sambeau/ecl/pkg/ecl/format"
	"github.com/sambeau/ecl/pkg/ecl/help"
	"github.com/sambeau/ecl/pkg/ecl/lexer"
	"github.com/sambeau/ecl/pkg/ecl/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

// Exit codes
const (
	exitOK      = 0
	exitInvalid = 1 // at least one expression failed to parse
	exitUsage   = 2 // bad flags, unreadable files or config
)

// cli carries the settings shared by every subcommand.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	opts    []ecl.Option
	jsonOut bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("ecl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFlag := fs.String("config", "", "Path to config file")
	verboseFlag := fs.Bool("v", false, "Trace tokens and results to stderr")
	jsonFlag := fs.Bool("json", false, "Print errors and results as JSON")
	evalFlag := fs.String("e", "", "Print the canonical form of an expression")
	helpFlag := fs.Bool("h", false, "Show help message")
	helpLongFlag := fs.Bool("help", false, "Show help message")
	versionFlag := fs.Bool("V", false, "Show version information")
	versionLongFlag := fs.Bool("version", false, "Show version information")
	fs.Usage = func() { printHelp(stderr) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *helpFlag || *helpLongFlag {
		printHelp(stdout)
		return exitOK
	}
	if *versionFlag || *versionLongFlag {
		fmt.Fprintf(stdout, "ecl version %s\n", Version)
		return exitOK
	}

	cfg, err := config.Load(*configFlag, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	c := &cli{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		cfg:     cfg,
		opts:    []ecl.Option{ecl.FromConfig(cfg)},
		jsonOut: *jsonFlag || cfg.Output.Format == "json",
	}
	if *verboseFlag || cfg.Logging.Verbose {
		c.opts = append(c.opts, ecl.WithLogger(ecl.WriterLogger(stderr)))
	}

	if *evalFlag != "" {
		return c.eval(*evalFlag)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		repl.Start(stdin, stdout, Version, cfg)
		return exitOK
	}

	switch rest[0] {
	case "check":
		return c.checkCommand(rest[1:])
	case "fmt":
		return c.fmtCommand(rest[1:])
	case "ast":
		return c.astCommand(rest[1:])
	case "tokens":
		return c.tokensCommand(rest[1:])
	case "describe":
		return c.describeCommand(rest[1:])
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n", rest[0])
	printHelp(stderr)
	return exitUsage
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `ecl - SNOMED CT Expression Constraint Language tool version %s

Usage:
  ecl [options] -e "<expr>"               Print the canonical form
  ecl [options] check [-watch] <file>...   Validate every expression in files
  ecl [options] fmt [-w] [-width N] [file]...
                                           Pretty-print expressions
  ecl [options] ast (-e "<expr>" | <file>) Print the syntax tree
  ecl [options] tokens [-all] (-e "<expr>" | <file>)
                                           Print the token stream
  ecl describe [-json] <topic>             Describe an operator, rule or error
  ecl                                      Start the REPL

Options:
  -config <path>   Config file (default: $ECL_CONFIG, ./.ecl.yaml, ~/.config/ecl/ecl.yaml)
  -v               Trace tokens and results to stderr
  -json            Print errors as JSON
  -h, -help        Show this help message
  -V, -version     Show version information

Files hold one or more expressions separated by blank lines.
Lines starting with '#' are notes and are skipped.
`, Version)
}

// eval prints the canonical form of one expression.
func (c *cli) eval(src string) int {
	expr, err := ecl.Parse(src, c.opts...)
	if err != nil {
		c.printErrors(map[string]string{"": src}, ecl.AsEclError(err))
		return exitInvalid
	}
	fmt.Fprintln(c.stdout, ecl.Render(expr))
	return exitOK
}

// checkCommand validates every expression in the given files.
func (c *cli) checkCommand(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	watchFlag := fs.Bool("watch", false, "Re-check files whenever they change")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "Error: check requires at least one file")
		return exitUsage
	}

	code := c.checkFiles(files)
	if !*watchFlag {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := newWatcher(files, func(path string) { c.checkFiles([]string{path}) }, c.stdout, c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer w.Close()
	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitUsage
	}
	return code
}

func (c *cli) checkFiles(files []string) int {
	code := exitOK
	sources := make(map[string]string)
	var errs []*eclerrors.EclError

	for _, filename := range files {
		content, ioErr := c.readFile(filename)
		if ioErr != nil {
			errs = append(errs, ioErr)
			code = exitUsage
			continue
		}
		sources[filename] = content

		entries := ecl.Split(content)
		bad := 0
		for _, entry := range entries {
			if err := ecl.Check(entry.Text, c.opts...); err != nil {
				errs = append(errs, entry.Rebase(err).WithFile(filename))
				bad++
			}
		}
		if bad > 0 && code == exitOK {
			code = exitInvalid
		}
		if !c.jsonOut {
			fmt.Fprintf(c.stdout, "%s: %d expressions, %d invalid\n", filename, len(entries), bad)
		}
	}

	c.printErrors(sources, errs...)
	return code
}

// fmtCommand pretty-prints the expressions in each file.
func (c *cli) fmtCommand(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	writeFlag := fs.Bool("w", false, "Write result to source file instead of stdout")
	widthFlag := fs.Int("width", c.cfg.Format.Width, "Target line width")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	opts := append(slices.Clone(c.opts), ecl.WithFormat(format.Options{Width: *widthFlag, Indent: c.cfg.Format.Indent}))

	files := fs.Args()
	if len(files) == 0 {
		if *writeFlag {
			fmt.Fprintln(c.stderr, "Error: -w needs at least one file")
			return exitUsage
		}
		src, err := io.ReadAll(c.stdin)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error reading stdin: %v\n", err)
			return exitUsage
		}
		out, errs := formatSource(string(src), opts)
		if len(errs) > 0 {
			c.printErrors(map[string]string{"": string(src)}, errs...)
			return exitInvalid
		}
		io.WriteString(c.stdout, out)
		return exitOK
	}

	code := exitOK
	for _, filename := range files {
		src, ioErr := c.readFile(filename)
		if ioErr != nil {
			c.printErrors(nil, ioErr)
			code = exitUsage
			continue
		}

		out, errs := formatSource(src, opts)
		if len(errs) > 0 {
			for i := range errs {
				errs[i] = errs[i].WithFile(filename)
			}
			c.printErrors(map[string]string{filename: src}, errs...)
			if code == exitOK {
				code = exitInvalid
			}
			continue
		}

		if !*writeFlag {
			io.WriteString(c.stdout, out)
			continue
		}
		if out == src {
			continue
		}
		if err := os.WriteFile(filename, []byte(out), 0o644); err != nil {
			c.printErrors(nil, eclerrors.New("IO-0001", map[string]any{
				"Operation": "write", "Path": filename, "GoError": err.Error(),
			}).WithFile(filename))
			code = exitUsage
		}
	}
	return code
}

// formatSource pretty-prints every expression of a file and joins them with
// blank lines. Notes are not kept.
func formatSource(src string, opts []ecl.Option) (string, []*eclerrors.EclError) {
	var parts []string
	var errs []*eclerrors.EclError
	for _, entry := range ecl.Split(src) {
		out, err := ecl.Format(entry.Text, opts...)
		if err != nil {
			errs = append(errs, entry.Rebase(ecl.AsEclError(err)))
			continue
		}
		parts = append(parts, out)
	}
	if len(parts) == 0 {
		return "", errs
	}
	return strings.Join(parts, "\n\n") + "\n", errs
}

// astCommand prints the syntax tree of an expression.
func (c *cli) astCommand(args []string) int {
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	evalFlag := fs.String("e", "", "Expression to parse")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	name, src, code := c.input(*evalFlag, fs.Args())
	if code != exitOK {
		return code
	}
	expr, err := ecl.Parse(src, c.opts...)
	if err != nil {
		c.printErrors(map[string]string{name: src}, ecl.AsEclError(err).WithFile(name))
		return exitInvalid
	}
	io.WriteString(c.stdout, ast.Dump(expr))
	return exitOK
}

// tokensCommand prints the token stream of an expression.
func (c *cli) tokensCommand(args []string) int {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	evalFlag := fs.String("e", "", "Expression to scan")
	allFlag := fs.Bool("all", false, "Include whitespace and comment tokens")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	name, src, code := c.input(*evalFlag, fs.Args())
	if code != exitOK {
		return code
	}
	tokens, err := ecl.Tokens(src, *allFlag, c.opts...)
	if err != nil {
		c.printErrors(map[string]string{name: src}, ecl.AsEclError(err).WithFile(name))
		return exitInvalid
	}

	if c.jsonOut {
		type jsonToken struct {
			Type    string `json:"type"`
			Literal string `json:"literal"`
			Offset  int    `json:"offset"`
			Line    int    `json:"line"`
			Column  int    `json:"column"`
			Hidden  bool   `json:"hidden,omitempty"`
		}
		out := make([]jsonToken, len(tokens))
		for i, tok := range tokens {
			out[i] = jsonToken{tok.Type.String(), tok.Literal, tok.Offset, tok.Line, tok.Column, tok.Channel == lexer.Hidden}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(c.stderr, "Error formatting JSON: %v\n", err)
			return exitInvalid
		}
		fmt.Fprintln(c.stdout, string(data))
		return exitOK
	}

	for _, tok := range tokens {
		hidden := ""
		if tok.Channel == lexer.Hidden {
			hidden = " (hidden)"
		}
		fmt.Fprintf(c.stdout, "%d:%d\t%s\t%q%s\n", tok.Line, tok.Column, tok.Type, tok.Literal, hidden)
	}
	return exitOK
}

func (c *cli) describeCommand(args []string) int {
	jsonOutput := c.jsonOut
	var topic string

	for _, arg := range args {
		if arg == "-json" || arg == "--json" {
			jsonOutput = true
		} else if topic == "" {
			topic = arg
		}
	}

	if topic == "" {
		fmt.Fprintln(c.stderr, `Usage: ecl describe [-json] <topic>

Topics:
  operators          List all operators
  grammar            Show the grammar productions
  errors             List all error codes
  <operator>         Help for an operator (<<, ^, MINUS, R, [, ...)
  <rule>             Help for a grammar rule (refinement, attributeSet, ...)
  <code>             Help for an error code (PARSE-0004, ID-0001, ...)`)
		return exitUsage
	}

	result, err := help.DescribeTopic(topic)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitInvalid
	}

	if jsonOutput {
		data, err := help.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error formatting JSON: %v\n", err)
			return exitInvalid
		}
		fmt.Fprintln(c.stdout, string(data))
		return exitOK
	}
	io.WriteString(c.stdout, help.FormatText(result, c.cfg.Format.Width))
	return exitOK
}

// input returns the expression to work on: -e when given, otherwise the
// single file argument.
func (c *cli) input(expr string, args []string) (name, src string, code int) {
	if expr != "" {
		return "", expr, exitOK
	}
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "Error: expected -e \"<expr>\" or one file")
		return "", "", exitUsage
	}
	content, ioErr := c.readFile(args[0])
	if ioErr != nil {
		c.printErrors(nil, ioErr)
		return "", "", exitUsage
	}
	return args[0], content, exitOK
}

func (c *cli) readFile(filename string) (string, *eclerrors.EclError) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", eclerrors.New("IO-0001", map[string]any{
			"Operation": "read", "Path": filename, "GoError": err.Error(),
		}).WithFile(filename)
	}
	return string(content), nil
}

// printErrors reports errs on stderr with caret context, or as a JSON
// array on stdout with -json. sources maps file names to their content.
func (c *cli) printErrors(sources map[string]string, errs ...*eclerrors.EclError) {
	if len(errs) == 0 {
		return
	}
	if c.jsonOut {
		data, err := json.MarshalIndent(errs, "", "  ")
		if err != nil {
			fmt.Fprintf(c.stderr, "Error formatting JSON: %v\n", err)
			return
		}
		fmt.Fprintln(c.stdout, string(data))
		return
	}
	for _, err := range errs {
		fmt.Fprintln(c.stderr, err.PrettyString(sources[err.File]))
	}
}
