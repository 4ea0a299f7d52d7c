// Package repl implements the interactive ECL session: each entry is
// parsed and echoed back in canonical form, as an AST dump, as tokens or
// pretty-printed, with caret diagnostics for errors.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/ecl/config"
	"github.com/sambeau/ecl/pkg/ecl/ast"
	"github.com/sambeau/ecl/pkg/ecl/ecl"
	"github.com/sambeau/ecl/pkg/ecl/format"
	"github.com/sambeau/ecl/pkg/ecl/help"
	"github.com/sambeau/ecl/pkg/ecl/lexer"
)

const CONTINUATION_PROMPT = ".. "

const ECL_LOGO = `
█▀▀ █▀▀ █░░
██▄ █▄▄ █▄▄ `

// Mode selects what the session prints for a valid entry.
type Mode int

const (
	ModeCanonical Mode = iota
	ModeAST
	ModeTokens
	ModePretty
)

var modeNames = map[Mode]string{
	ModeCanonical: "canonical",
	ModeAST:       "ast",
	ModeTokens:    "tokens",
	ModePretty:    "pretty",
}

var modePrompts = map[Mode]string{
	ModeCanonical: ">> ",
	ModeAST:       "ast> ",
	ModeTokens:    "tok> ",
	ModePretty:    "fmt> ",
}

// Keywords, operator names and commands for tab completion
var completionWords = []string{
	// Keywords
	"AND", "OR", "MINUS",
	// Commands
	":help", ":ast", ":tokens", ":pretty", ":canonical", ":describe", ":width",
	"exit", "quit",
	// Help topics
	"operators", "grammar", "errors",
}

// Session holds the state of one interactive session.
type Session struct {
	out   io.Writer
	mode  Mode
	width int
	opts  []ecl.Option
}

// NewSession creates a session writing to out, configured from cfg.
func NewSession(out io.Writer, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Session{
		out:   out,
		width: cfg.Format.Width,
		opts:  []ecl.Option{ecl.FromConfig(cfg)},
	}
}

// Mode returns the current output mode.
func (s *Session) Mode() Mode { return s.mode }

// Prompt returns the prompt for the current mode.
func (s *Session) Prompt() string { return modePrompts[s.mode] }

// Start starts the REPL with line editing, history, and tab completion
func Start(in io.Reader, out io.Writer, version string, cfg *config.Config) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	historyFile := filepath.Join(os.TempDir(), ".ecl_history")
	if cfg != nil && cfg.REPL.HistoryFile != "" {
		historyFile = cfg.REPL.HistoryFile
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	s := NewSession(out, cfg)

	fmt.Fprintf(out, "%s", ECL_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := s.Prompt()
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		// REPL commands start with ':'
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			line.AppendHistory(trimmed)
			s.Command(trimmed)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		line.AppendHistory(fullInput)
		s.Eval(fullInput)
		inputBuffer.Reset()
	}
}

// Eval parses one complete entry and prints the result for the current mode.
func (s *Session) Eval(input string) {
	if s.mode == ModeTokens {
		s.printTokens(input)
		return
	}

	expr, err := ecl.Parse(input, s.opts...)
	if err != nil {
		printError(s.out, input, err)
		return
	}

	switch s.mode {
	case ModeAST:
		io.WriteString(s.out, ast.Dump(expr))
	case ModePretty:
		io.WriteString(s.out, format.Pretty(expr, format.Options{Width: s.width}))
		io.WriteString(s.out, "\n")
	default:
		io.WriteString(s.out, ecl.Render(expr))
		io.WriteString(s.out, "\n")
	}
}

func (s *Session) printTokens(input string) {
	tokens, err := ecl.Tokens(input, true, s.opts...)
	if err != nil {
		printError(s.out, input, err)
		return
	}
	for _, tok := range tokens {
		hidden := ""
		if tok.Channel == lexer.Hidden {
			hidden = " (hidden)"
		}
		fmt.Fprintf(s.out, "  %d:%-3d %-15s %q%s\n", tok.Line, tok.Column, tok.Type, tok.Literal, hidden)
	}
}

// Command handles REPL meta-commands that start with ':'.
func (s *Session) Command(cmd string) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?        Show this help")
		fmt.Fprintln(s.out, "  :canonical           Print entries in canonical form (default)")
		fmt.Fprintln(s.out, "  :ast                 Toggle AST dump output")
		fmt.Fprintln(s.out, "  :tokens              Toggle token stream output")
		fmt.Fprintln(s.out, "  :pretty              Toggle pretty-printed output")
		fmt.Fprintln(s.out, "  :width <n>           Set the pretty-print width")
		fmt.Fprintln(s.out, "  :describe <topic>    Describe an operator, rule or error code")
		fmt.Fprintln(s.out, "  exit, quit           Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Entries continue over several lines while ( { [ | or a string is open.")

	case ":canonical":
		s.setMode(ModeCanonical)
	case ":ast":
		s.toggleMode(ModeAST)
	case ":tokens":
		s.toggleMode(ModeTokens)
	case ":pretty":
		s.toggleMode(ModePretty)

	case ":width":
		n, err := strconv.Atoi(arg)
		if err != nil || n < format.MinLineWidth {
			fmt.Fprintf(s.out, "Width must be a number of at least %d\n", format.MinLineWidth)
			return
		}
		s.width = n
		fmt.Fprintf(s.out, "Width set to %d\n", n)

	case ":describe", ":d":
		if arg == "" {
			arg = "operators"
		}
		result, err := help.DescribeTopic(arg)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
		io.WriteString(s.out, help.FormatText(result, s.width))

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func (s *Session) toggleMode(m Mode) {
	if s.mode == m {
		m = ModeCanonical
	}
	s.setMode(m)
}

func (s *Session) setMode(m Mode) {
	s.mode = m
	fmt.Fprintf(s.out, "Output mode: %s\n", modeNames[m])
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	words := strings.Fields(line)
	lastWord := words[len(words)-1]
	head := line[:len(line)-len(lastWord)]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) || strings.HasPrefix(word, strings.ToUpper(lastWord)) {
			matches = append(matches, head+word)
		}
	}
	return matches
}

// needsMoreInput reports whether input stops inside parentheses, braces,
// brackets, a term, a string or a block comment.
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	depth := 0
	inTerm := false
	var quote byte

	for i := 0; i < len(input); i++ {
		ch := input[i]

		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		case inTerm:
			if ch == '|' {
				inTerm = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			quote = ch
		case '|':
			inTerm = true
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case '/':
			if i+1 == len(input) {
				continue
			}
			switch input[i+1] {
			case '/':
				// Line comment runs to the newline
				end := strings.IndexByte(input[i:], '\n')
				if end < 0 {
					return depth > 0
				}
				i += end
			case '*':
				end := strings.Index(input[i+2:], "*/")
				if end < 0 {
					return true
				}
				i += end + 3
			}
		}
	}

	return depth > 0 || inTerm || quote != 0
}

// printError prints an ECL error with the offending line and a caret.
func printError(out io.Writer, input string, err error) {
	eclErr := ecl.AsEclError(err)
	io.WriteString(out, eclErr.PrettyString(input))
	io.WriteString(out, "\n")
}
