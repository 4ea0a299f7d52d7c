package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runCLI runs the command with a clean environment and an empty home
// directory so no user config is picked up.
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr, func(string) string { return "" })
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-version")
	if code != exitOK || !strings.Contains(stdout, "ecl version") {
		t.Errorf("code %d, output %q", code, stdout)
	}
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-h")
	if code != exitOK {
		t.Errorf("code = %d", code)
	}
	for _, want := range []string{"ecl [options] -e", "check [-watch]", "-config <path>"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	code, _, _ := runCLI(t, "", "-bogus")
	if code != exitUsage {
		t.Errorf("code = %d, want %d", code, exitUsage)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "", "frobnicate")
	if code != exitUsage || !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
}

func TestEvalCanonical(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"<<404684003|Clinical finding|", "<< 404684003 |Clinical finding|\n"},
		{"^700043003", "^ 700043003\n"},
		{"<  404684003 : 363698007 = << 39057004", "< 404684003 : 363698007 = << 39057004\n"},
	}
	for _, tt := range tests {
		code, stdout, stderr := runCLI(t, "", "-e", tt.expr)
		if code != exitOK {
			t.Errorf("-e %q: code %d, stderr %q", tt.expr, code, stderr)
			continue
		}
		if stdout != tt.want {
			t.Errorf("-e %q = %q, want %q", tt.expr, stdout, tt.want)
		}
	}
}

func TestEvalError(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "-e", "404684003 OR")
	if code != exitInvalid {
		t.Errorf("code = %d", code)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.HasPrefix(stderr, "Parse error at line 1, column 13:") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestEvalErrorJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-json", "-e", "404684003 OR")
	if code != exitInvalid {
		t.Errorf("code = %d", code)
	}
	var errs []struct {
		Class  string `json:"class"`
		Code   string `json:"code"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
	}
	if err := json.Unmarshal([]byte(stdout), &errs); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if len(errs) != 1 || errs[0].Line != 1 || errs[0].Column != 13 || errs[0].Code == "" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestVerboseTrace(t *testing.T) {
	code, _, stderr := runCLI(t, "", "-v", "-e", "< 404684003")
	if code != exitOK {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(stderr, "parsed: < 404684003") {
		t.Errorf("trace output:\n%s", stderr)
	}
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "ecl.yaml", "parser:\n  comma_conjunction: true\n")
	code, stdout, stderr := runCLI(t, "", "-config", path, "-e", "404684003, 64572001")
	if code != exitOK {
		t.Fatalf("code %d, stderr %q", code, stderr)
	}
	if stdout != "404684003 AND 64572001\n" {
		t.Errorf("stdout = %q", stdout)
	}

	bad := writeFile(t, "bad.yaml", "format:\n  width: 3\n")
	code, _, stderr = runCLI(t, "", "-config", bad, "-e", "404684003")
	if code != exitUsage || !strings.Contains(stderr, "format.width") {
		t.Errorf("bad config: code %d, stderr %q", code, stderr)
	}
}

func TestCheck(t *testing.T) {
	path := writeFile(t, "findings.ecl", "# findings\n<< 404684003\n\n^ 700043003\n\n404684003 OR\n")

	code, stdout, stderr := runCLI(t, "", "check", path)
	if code != exitInvalid {
		t.Errorf("code = %d", code)
	}
	if !strings.Contains(stdout, "3 expressions, 1 invalid") {
		t.Errorf("summary:\n%s", stdout)
	}
	want := "Parse error in " + path + " at line 6, column 13:"
	if !strings.HasPrefix(stderr, want) {
		t.Errorf("stderr:\n%s\nwant prefix %q", stderr, want)
	}
	if !strings.Contains(stderr, "\n  404684003 OR\n") {
		t.Errorf("source line missing:\n%s", stderr)
	}
}

func TestCheckValid(t *testing.T) {
	path := writeFile(t, "ok.ecl", "<< 404684003\n")
	code, stdout, stderr := runCLI(t, "", "check", path)
	if code != exitOK || stderr != "" {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "1 expressions, 0 invalid") {
		t.Errorf("summary %q", stdout)
	}
}

func TestCheckMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.ecl")
	code, _, stderr := runCLI(t, "", "check", missing)
	if code != exitUsage {
		t.Errorf("code = %d", code)
	}
	if !strings.HasPrefix(stderr, "I/O error in "+missing) {
		t.Errorf("stderr %q", stderr)
	}

	code, _, _ = runCLI(t, "", "check")
	if code != exitUsage {
		t.Errorf("check without files: code %d", code)
	}
}

func TestFmt(t *testing.T) {
	path := writeFile(t, "a.ecl", "<<404684003   OR <<64572001\n\n# note\n^700043003\n")
	code, stdout, stderr := runCLI(t, "", "fmt", path)
	if code != exitOK {
		t.Fatalf("code %d, stderr %q", code, stderr)
	}
	if want := "<< 404684003 OR << 64572001\n\n^ 700043003\n"; stdout != want {
		t.Errorf("fmt = %q, want %q", stdout, want)
	}
}

func TestFmtWidthFromStdin(t *testing.T) {
	code, stdout, stderr := runCLI(t, "<< 404684003 OR << 64572001 OR << 19829001", "fmt", "-width", "20")
	if code != exitOK {
		t.Fatalf("code %d, stderr %q", code, stderr)
	}
	if want := "<< 404684003\nOR << 64572001\nOR << 19829001\n"; stdout != want {
		t.Errorf("fmt = %q, want %q", stdout, want)
	}
}

func TestFmtWrite(t *testing.T) {
	path := writeFile(t, "a.ecl", "<<404684003\n")
	code, stdout, _ := runCLI(t, "", "fmt", "-w", path)
	if code != exitOK || stdout != "" {
		t.Errorf("code %d, stdout %q", code, stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<< 404684003\n" {
		t.Errorf("file = %q", data)
	}
}

func TestFmtLeavesInvalidFile(t *testing.T) {
	original := "<< 404684003\n\n404684003 OR\n"
	path := writeFile(t, "bad.ecl", original)
	code, _, stderr := runCLI(t, "", "fmt", "-w", path)
	if code != exitInvalid {
		t.Errorf("code = %d", code)
	}
	if !strings.Contains(stderr, "at line 3, column 13") {
		t.Errorf("stderr:\n%s", stderr)
	}
	data, _ := os.ReadFile(path)
	if string(data) != original {
		t.Errorf("file was rewritten: %q", data)
	}
}

func TestAST(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "ast", "-e", "< 404684003")
	if code != exitOK {
		t.Fatalf("code = %d", code)
	}
	if stdout != "DescendantOf\n  ConceptReference 404684003\n" {
		t.Errorf("ast = %q", stdout)
	}

	path := writeFile(t, "one.ecl", "<< 404684003")
	code, stdout, _ = runCLI(t, "", "ast", path)
	if code != exitOK || !strings.HasPrefix(stdout, "DescendantOrSelfOf\n") {
		t.Errorf("ast from file: code %d, %q", code, stdout)
	}

	code, _, _ = runCLI(t, "", "ast")
	if code != exitUsage {
		t.Errorf("ast without input: code %d", code)
	}
}

func TestTokens(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "tokens", "-e", "< 404684003")
	if code != exitOK {
		t.Fatalf("code = %d", code)
	}
	if !strings.HasPrefix(stdout, "1:1\tLT\t\"<\"\n") || !strings.Contains(stdout, "EOF") {
		t.Errorf("tokens:\n%s", stdout)
	}
	if strings.Contains(stdout, "(hidden)") {
		t.Errorf("hidden tokens without -all:\n%s", stdout)
	}

	_, stdout, _ = runCLI(t, "", "tokens", "-all", "-e", "< 404684003")
	if !strings.Contains(stdout, "1:2\tWS\t\" \" (hidden)") {
		t.Errorf("tokens -all:\n%s", stdout)
	}
}

func TestTokensJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-json", "tokens", "-e", "*")
	if code != exitOK {
		t.Fatalf("code = %d", code)
	}
	var tokens []struct {
		Type   string `json:"type"`
		Column int    `json:"column"`
	}
	if err := json.Unmarshal([]byte(stdout), &tokens); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Type != "WILDCARD" || tokens[1].Type != "EOF" || tokens[1].Column != 2 {
		t.Errorf("tokens = %+v", tokens)
	}
}

func TestDescribe(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "describe", "MINUS")
	if code != exitOK || !strings.HasPrefix(stdout, "Operator: MINUS (exclusion)") {
		t.Errorf("code %d, output:\n%s", code, stdout)
	}

	code, stdout, _ = runCLI(t, "", "describe", "-json", "<<")
	var topic map[string]any
	if err := json.Unmarshal([]byte(stdout), &topic); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if code != exitOK || topic["symbol"] != "<<" {
		t.Errorf("json: code %d, output:\n%s", code, stdout)
	}

	code, _, stderr := runCLI(t, "", "describe", "nothing-like-this")
	if code != exitInvalid || !strings.Contains(stderr, "unknown topic") {
		t.Errorf("unknown: code %d, stderr %q", code, stderr)
	}

	code, _, _ = runCLI(t, "", "describe")
	if code != exitUsage {
		t.Errorf("no topic: code %d", code)
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	path := writeFile(t, "watched.ecl", "<< 404684003\n")
	other := filepath.Join(filepath.Dir(path), "other.ecl")

	changed := make(chan string, 4)
	var out bytes.Buffer
	w, err := newWatcher([]string{path}, func(p string) { changed <- p }, &out, &out)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(other, []byte("*\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("< 404684003\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWatcherChecksFinalContentOnce(t *testing.T) {
	path := writeFile(t, "burst.ecl", "<< 404684003\n")

	contents := make(chan string, 8)
	var out bytes.Buffer
	w, err := newWatcher([]string{path}, func(p string) {
		data, _ := os.ReadFile(p)
		contents <- string(data)
	}, &out, &out)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// truncate, then write in pieces, all inside one quiet period
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"< 404684003", " OR ", "< 64572001\n"} {
		if _, err := f.WriteString(part); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.Close()

	select {
	case got := <-contents:
		if got != "< 404684003 OR < 64572001\n" {
			t.Errorf("checked content %q, want the final write", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-contents:
		t.Errorf("burst checked twice, second time with %q", got)
	case <-time.After(4 * debounce):
	}
}
