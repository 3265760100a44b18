package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_AddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("load missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"1 + 2", modeEval},
		{"vars", modeCtrl},
		{"  ", modeEval},
		{"x * 2", modeEval},
		{"x * 2", modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	want := []HistoryEntry{
		{"1 + 2", modeEval},
		{"vars", modeCtrl},
		{"x * 2", modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("unexpected entries %v", got)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("unexpected reloaded entries %v", got)
	}
}

func TestHistory_Add_MovesRepeatToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	_ = h.Add("a", modeEval)
	_ = h.Add("b", modeEval)
	_ = h.Add("a", modeCtrl)
	_ = h.Add("a", modeEval)

	want := []HistoryEntry{{"b", modeEval}, {"a", modeCtrl}, {"a", modeEval}}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("unexpected entries %v", got)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(content) != "E:b\nC:a\nE:a\n" {
		t.Errorf("unexpected file content %q", content)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")
	_ = h.Add("only", modeCtrl)

	if e, err := h.Entry(0); err != nil || e != (HistoryEntry{"only", modeCtrl}) {
		t.Errorf("unexpected entry %v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d): expected out of bounds, got %v", i, err)
		}
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:1 + 1", HistoryEntry{"1 + 1", modeEval}},
		{"C:help", HistoryEntry{"help", modeCtrl}},
		{"legacy", HistoryEntry{"legacy", modeEval}},
		{"E:C:x", HistoryEntry{"C:x", modeEval}},
	}

	for _, tt := range tests {
		if got := decodeEntry(tt.line); got != tt.want {
			t.Errorf("decodeEntry(%q) = %v, want %v", tt.line, got, tt.want)
		}

		if got := decodeEntry(tt.want.encode()[:len(tt.want.encode())-1]); got != tt.want {
			t.Errorf("round trip of %v gave %v", tt.want, got)
		}
	}
}
