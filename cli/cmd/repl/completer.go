package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
//
//nolint:gochecknoglobals
var ctrlCommands = []string{"help", "vars", "funcs", "let", "unset", "edit", "clear", "quit"}

// keywords are completed along with names at the top level.
//
//nolint:gochecknoglobals
var keywords = []string{
	"and", "contains", "endsWith", "false", "in", "let", "matches", "nil",
	"not", "or", "startsWith", "true",
}

// isWordBoundary reports whether r delimits a completion word: whitespace,
// the member-access dot, and operator or punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '^',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte boundaries in
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word that
// starts at wordStart. For "x + server.http.ho" with the word "ho", it
// returns "server.http". Top-level words have no parent.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// isCommandWord reports whether the word starting at wordStart is the name
// of a ":command" typed in eval mode.
func isCommandWord(input string, wordStart int) bool {
	return strings.TrimSpace(input[:wordStart]) == ":"
}

// childCandidates returns the completions for a word under parent: every
// visible variable, function and keyword at the top level, or the keys of
// the object that parent names.
func (s *Session) childCandidates(parent string) []string {
	if parent == "" {
		names := slices.Concat(s.Variables(), s.Functions(), keywords)
		slices.Sort(names)

		return slices.Compact(names)
	}

	v, ok := s.Lookup(strings.Split(parent, ".")...)
	if !ok {
		return nil
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(obj))
}

// computeMatches ranks the candidates for the word at the cursor, best
// first. An empty top-level word has no matches, which leaves room for the
// hint line; an empty word after a dot lists every member.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	switch {
	case m.mode == modeCtrl && strings.TrimSpace(input[:wordStart]) == "",
		m.mode == modeEval && isCommandWord(input, wordStart):
		candidates = ctrlCommands

	default:
		parent := parentPath(input, wordStart)
		candidates = m.session.childCandidates(parent)

		if word == "" && parent != "" {
			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if word == "" || len(candidates) == 0 {
		return nil, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. Matched characters are highlighted and the selected
// candidate, while tab-cycling, is drawn inverted.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := m.style.hint.Render("...")
	limit := m.width - lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range m.matches {
		rendered := m.renderCandidate(match, m.tabActive && i == m.suggIdx)

		width := lipgloss.Width(rendered)
		if i > 0 {
			width += len(sep)
		}

		if i > 0 && used+width > limit && i < len(m.matches)-1 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += width
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted. Functions get a "()" suffix that completion does not
// insert.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := m.style.suggestion, m.style.match
	if selected {
		base, highlight = m.style.selected, m.style.selectedMatch
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if m.mode == modeEval && m.session.IsFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
