package ecl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	text := "# findings\n<< 404684003\n  OR << 64572001\n\n\n^ 700043003\n# note\n*\n"
	want := []Entry{
		{Text: "<< 404684003\n  OR << 64572001", Line: 2, Offset: 11},
		{Text: "^ 700043003", Line: 6, Offset: 43},
		{Text: "*", Line: 8, Offset: 62},
	}
	if diff := cmp.Diff(want, Split(text)); diff != "" {
		t.Errorf("Split (-want +got):\n%s", diff)
	}
}

func TestSplitEdges(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("Split(\"\") = %v", got)
	}
	if got := Split("\n\n# only notes\n"); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
	got := Split("404684003")
	if len(got) != 1 || got[0].Text != "404684003" || got[0].Line != 1 {
		t.Errorf("single line without newline: %v", got)
	}
	got = Split("a\r\n\r\nb\r\n")
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" || got[1].Line != 3 {
		t.Errorf("CRLF input: %+v", got)
	}
}

func TestRebase(t *testing.T) {
	text := "404684003\n\n<< 64572001\n  OR\n"
	entries := Split(text)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	second := entries[1]
	err := Check(second.Text)
	if err == nil {
		t.Fatal("expected an error")
	}
	moved := second.Rebase(err)
	if moved.Line != 4 || moved.Column != 5 {
		t.Errorf("rebased to %d:%d, want 4:5", moved.Line, moved.Column)
	}
	if moved.Offset != second.Offset+err.Offset {
		t.Errorf("offset = %d", moved.Offset)
	}
	if text[moved.Offset-2:moved.Offset] != "OR" {
		t.Errorf("offset %d does not point after OR", moved.Offset)
	}
	if second.Rebase(nil) != nil {
		t.Error("Rebase(nil) should be nil")
	}
}
