package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/formula/lang"
)

func TestWordBounds_ExprOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"in_object", "{k: fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
		{"empty_after_dot", "config.", 7, "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath_WithOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_comparison", "x == a.b.", 9, "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestIsCommandWord(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      bool
	}{
		{":he", 1, true},
		{" : he", 3, true},
		{"a ? b : c", 8, false},
		{"he", 0, false},
	}

	for _, tt := range tests {
		if got := isCommandWord(tt.input, tt.wordStart); got != tt.want {
			t.Errorf("isCommandWord(%q, %d) = %v, want %v",
				tt.input, tt.wordStart, got, tt.want)
		}
	}
}

func TestSession_childCandidates(t *testing.T) {
	s := newTestSession(t)

	top := s.childCandidates("")
	for _, want := range []string{"server", "name", "double", "len", "true"} {
		if !slices.Contains(top, want) {
			t.Errorf("top-level candidates missing %q: %v", want, top)
		}
	}

	if !slices.IsSorted(top) {
		t.Errorf("top-level candidates not sorted: %v", top)
	}

	if got := s.childCandidates("server"); !slices.Equal(got, []string{"http", "port"}) {
		t.Errorf("unexpected server members %v", got)
	}

	if got := s.childCandidates("server.http"); !slices.Equal(got, []string{"host"}) {
		t.Errorf("unexpected server.http members %v", got)
	}

	if got := s.childCandidates("name"); got != nil {
		t.Errorf("scalar has members %v", got)
	}

	if got := s.childCandidates("missing"); got != nil {
		t.Errorf("unbound name has members %v", got)
	}
}

func TestModel_computeMatches(t *testing.T) {
	tests := []struct {
		name  string
		mode  inputMode
		input string
		want  string
		none  bool
	}{
		{name: "variable", mode: modeEval, input: "serv", want: "server"},
		{name: "member", mode: modeEval, input: "server.po", want: "port"},
		{name: "all_members", mode: modeEval, input: "server.", want: "http"},
		{name: "function", mode: modeEval, input: "1 + doub", want: "double"},
		{name: "ctrl_command", mode: modeCtrl, input: "unse", want: "unset"},
		{name: "eval_command", mode: modeEval, input: ":fun", want: "funcs"},
		{name: "empty", mode: modeEval, input: "", none: true},
		{name: "ctrl_argument", mode: modeCtrl, input: "unset zzz", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			m.mode = tt.mode
			m.input.SetValue(tt.input)
			m.input.SetCursor(len(tt.input))

			matches, _, _, _ := m.computeMatches()

			if tt.none {
				if len(matches) != 0 {
					t.Errorf("expected no matches, got %v", matches)
				}

				return
			}

			if len(matches) == 0 || matches[0].Str != tt.want {
				t.Errorf("expected best match %q, got %v", tt.want, matches)
			}
		})
	}
}

func TestModel_renderCandidateBar_Ellipsizes(t *testing.T) {
	m := newTestModel(t)
	m.width = 20
	m.input.SetValue("e")
	m.input.SetCursor(1)
	refreshMatches(&m, false)

	if len(m.matches) < 3 {
		t.Fatalf("expected several matches, got %v", m.matches)
	}

	if bar := m.renderCandidateBar(); !strings.Contains(bar, "...") {
		t.Errorf("expected ellipsized bar, got %q", bar)
	}

	m.matches = nil

	if bar := m.renderCandidateBar(); bar != "" {
		t.Errorf("expected empty bar, got %q", bar)
	}
}

func TestRefreshMatches_AutoConfirm(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("server")
	m.input.SetCursor(len("server"))
	refreshMatches(&m, true)

	if len(m.matches) != 0 {
		t.Errorf("exact sole match not confirmed: %v", m.matches)
	}

	if m.input.Value() != "server" {
		t.Errorf("unexpected input %q", m.input.Value())
	}
}

func BenchmarkModel_computeMatches(b *testing.B) {
	frame := lang.Context{}
	for _, name := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		frame[name] = map[string]any{"x": 1.0, "y": 2.0}
	}

	m := newModel(b.Context(),
		NewSession(lang.NewContexts(frame), nil, nil, testLogger()),
		NewHistory(""), testLogger())
	m.input.SetValue("1 + ep")
	m.input.SetCursor(len("1 + ep"))

	for b.Loop() {
		_, _, _, _ = m.computeMatches()
	}
}
