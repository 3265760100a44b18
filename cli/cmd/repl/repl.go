package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

// editBindingsMsg is sent when editing the bindings completes successfully.
type editBindingsMsg struct{ bindings lang.Context }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a
// decoding error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters any other error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode, or prefix with ':' in eval mode):

  help               Print this cruft
  vars               List visible variables and their values
  funcs              List callable functions and their signatures
  let NAME = EXPR    Evaluate EXPR and bind the result to NAME
  unset NAME...      Remove names bound with let
  edit               Edit let bindings as YAML in external $EDITOR
  clear              Clear screen
  quit               Exit REPL

Usage:
  Type an expression to evaluate it against the loaded contexts
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// styles are the lipgloss styles of every rendered element.
type styles struct {
	prompt        lipgloss.Style
	ctrlPrompt    lipgloss.Style
	input         lipgloss.Style
	result        lipgloss.Style
	err           lipgloss.Style
	hint          lipgloss.Style
	suggestion    lipgloss.Style
	match         lipgloss.Style
	selected      lipgloss.Style
	selectedMatch lipgloss.Style
	signature     lipgloss.Style
	signatureName lipgloss.Style
	currentParam  lipgloss.Style
}

func makeStyles(r *lipgloss.Renderer) styles {
	return styles{
		prompt:     r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		ctrlPrompt: r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		input:      r.NewStyle().Foreground(lipgloss.Color("15")),
		result:     r.NewStyle().Foreground(lipgloss.Color("2")),
		err:        r.NewStyle().Foreground(lipgloss.Color("1")),
		hint:       r.NewStyle().Foreground(lipgloss.Color("8")),
		suggestion: r.NewStyle().Foreground(lipgloss.Color("4")),
		match:      r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true).Underline(true),
		selected: r.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")),
		selectedMatch: r.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true).Underline(true),
		signature:     r.NewStyle().Foreground(lipgloss.Color("8")),
		signatureName: r.NewStyle().Foreground(lipgloss.Color("6")),
		currentParam:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// echo formats the submitted line with the prompt of its mode.
func (m model) echo(input string, mode inputMode) string {
	if mode == modeCtrl {
		return m.style.ctrlPrompt.Render(ctrlPrompt) + m.style.input.Render(input)
	}

	return m.style.prompt.Render(evalPrompt) + m.style.input.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	session          *Session
	style            styles
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Config configures an interactive session.
type Config struct {
	// Contexts are the scopes every expression is evaluated against.
	Contexts lang.Contexts
	// Consts are the constant functions available to every expression.
	Consts *lang.ConstFunctions
	// Signatures are display signatures of the functions in Consts.
	Signatures map[string]string
	// CacheDir holds the history file. History is not persisted when empty.
	CacheDir string
	Logger   log.Logger
}

// Run starts the REPL and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := cfg.Logger

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("context_count", len(cfg.Contexts)),
	)

	session := NewSession(cfg.Contexts, cfg.Consts, cfg.Signatures, logger)

	var historyPath string

	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o700); err != nil {
			fmt.Printf("Warning: history disabled: %v\n", err)
		} else {
			historyPath = filepath.Join(cfg.CacheDir, baseHistory)
		}
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		fmt.Printf("Warning: could not load history: %v\n", err)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, session, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	history *History,
	logger log.Logger,
) model {
	style := makeStyles(lipgloss.NewRenderer(os.Stdout))

	ti := textinput.New()
	ti.Prompt = style.prompt.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		style:      style,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editBindingsMsg:
		m.session.Replace(msg.bindings)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("binding_count", len(msg.bindings)),
		)

		return m, tea.Println(m.style.result.Render("✔ bindings updated"))

	case editCancelledMsg:
		return m, tea.Println(m.style.hint.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(m.style.err.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	return b.String()
}

// statusLine renders the line under the input: the history position, a
// usage hint, a function signature, or the completion bar.
func (m model) statusLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return m.style.hint.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return m.style.hint.Render("Type an expression or press Esc for commands")
		}

		return m.style.hint.Render(
			"Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)",
		)
	}

	if call := detectFunctionCall(input, m.input.Position()); call.inCall &&
		m.mode == modeEval {
		if signature, params := m.session.getSignature(call.name); signature != "" {
			return m.renderSignatureHint(signature, params, call.argIndex)
		}

		if hint, ok := m.session.reservedHint(call.name); ok {
			return m.style.err.Render(hint)
		}
	}

	return m.renderCandidateBar()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1)
		}

		return m.historyPrev()

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1)
		}

		return m.historyNext()

	case tea.KeyShiftUp:
		return m.historyInMode(-1)

	case tea.KeyShiftDown:
		return m.historyInMode(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode()

	case tea.KeyRunes:
		// Space breaks out of tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows) edits without completing.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle steps through the completion candidates in direction dir (1 or -1).
// A single candidate is completed and confirmed immediately.
func (m model) cycle(dir int) (model, tea.Cmd) {
	n := len(m.matches)
	if n == 0 {
		return m, nil
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n
	case dir > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly
// one candidate remains and the typed word already equals it. Deletions
// and cursor movement pass false so editing never completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	mode := m.mode

	if err := m.history.Add(input, mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "repl history write",
			slog.String("error", err.Error()))
	}

	m.historyIdx = m.history.Len()

	echoCmd := tea.Println(m.echo(input, mode))

	if mode == modeEval {
		if command, ok := strings.CutPrefix(input, ":"); ok {
			return m.executeCommand(echoCmd, command)
		}

		return m, tea.Sequence(echoCmd, m.evaluate(input))
	}

	return m.executeCommand(echoCmd, input)
}

// evaluate evaluates input and prints its result.
func (m model) evaluate(input string) tea.Cmd {
	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl eval", slog.String("input", input))

	v, err := m.session.Eval(ctx, input)
	if err != nil {
		m.logger.TraceContext(ctx, "repl eval result",
			slog.String("result_type", "error"),
			slog.String("error", err.Error()))

		return m.printError(err)
	}

	m.logger.TraceContext(ctx, "repl eval result",
		slog.String("result_type", lang.KindOf(v).String()))

	return m.printValue(v)
}

func (m model) printValue(v lang.Value) tea.Cmd {
	text, err := lang.ToText(v)
	if err != nil {
		return m.printError(err)
	}

	return tea.Println(m.style.result.Render(text))
}

func (m model) printError(err error) tea.Cmd {
	return tea.Println(m.style.err.Render("error: " + err.Error()))
}

// executeCommand runs a control command. echoCmd prints the submitted line
// before any output of the command.
func (m model) executeCommand(echoCmd tea.Cmd, input string) (model, tea.Cmd) {
	cmd, args, _ := strings.Cut(strings.TrimSpace(input), " ")
	args = strings.TrimSpace(args)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.String("args", args),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echoCmd, tea.Println(m.listVariables()))

	case "f", "funcs":
		return m, tea.Sequence(echoCmd, tea.Println(m.listFunctions()))

	case "let":
		name, v, err := m.session.Let(m.ctxFunc(), args)
		if err != nil {
			return m, tea.Sequence(echoCmd, m.printError(err))
		}

		text, err := lang.ToText(v)
		if err != nil {
			return m, tea.Sequence(echoCmd, m.printError(err))
		}

		return m, tea.Sequence(echoCmd,
			tea.Println(m.style.result.Render(name+" = "+text)))

	case "unset":
		removed := m.session.Unset(strings.Fields(args)...)
		if len(removed) == 0 {
			return m, tea.Sequence(echoCmd,
				tea.Println(m.style.hint.Render("nothing unset")))
		}

		return m, tea.Sequence(echoCmd,
			tea.Println(m.style.hint.Render("unset "+strings.Join(removed, " "))))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.handleEdit())

	default:
		return m, tea.Sequence(echoCmd, tea.Println(
			m.style.err.Render("Unknown command: "+cmd+" (try 'help')"),
		))
	}
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editBindingsCommand{
		ctxFunc:  m.ctxFunc,
		logger:   m.logger,
		bindings: m.session.Bindings(),
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if !cmd.edited {
			return editCancelledMsg{}
		}

		return editBindingsMsg{bindings: cmd.result}
	})
}

const previewWidth = 60

// preview renders v on one line, ellipsized to previewWidth.
func preview(v lang.Value) string {
	text, err := lang.ToText(v)
	if err != nil {
		return "<" + lang.KindOf(v).String() + ">"
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > previewWidth {
		text = text[:previewWidth-3] + "..."
	}

	return text
}

func (m model) listVariables() string {
	names := m.session.Variables()
	if len(names) == 0 {
		return m.style.hint.Render("  (no variables)")
	}

	var b strings.Builder

	for _, name := range names {
		v, _ := m.session.Lookup(name)
		fmt.Fprintf(&b, "  %s %s\n", name, m.style.hint.Render(preview(v)))
	}

	return b.String()
}

func (m model) listFunctions() string {
	var b strings.Builder

	for _, name := range m.session.Functions() {
		sig, _ := m.session.Signature(name)
		fmt.Fprintf(&b, "  %s\n", m.style.signature.Render(sig))
	}

	return b.String()
}

// historyPrev and historyNext walk every entry, switching mode to match.
func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m.historyIdx--
		m = m.showEntry(m.historyIdx, true)
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m.historyIdx++
		m = m.showEntry(m.historyIdx, true)

		return m, nil
	}

	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m, nil
}

// showEntry loads history entry i into the input, switching to the entry's
// mode when switchMode is set.
func (m model) showEntry(i int, switchMode bool) model {
	entry, err := m.history.Entry(i)
	if err != nil {
		return m
	}

	if switchMode && m.mode != entry.Mode {
		m, _ = m.switchToMode(entry.Mode)
	}

	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(&m, false)

	return m
}

// findInMode returns the index of the next entry from m.historyIdx in
// direction dir that was entered in mode, or -1.
func (m model) findInMode(dir int, mode inputMode) int {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		if entry, err := m.history.Entry(i); err == nil && entry.Mode == mode {
			return i
		}
	}

	return -1
}

// historyInMode walks only the entries of the current mode.
func (m model) historyInMode(dir int) (model, tea.Cmd) {
	if i := m.findInMode(dir, m.mode); i >= 0 {
		m.historyIdx = i

		return m.showEntry(i, false), nil
	}

	// Reached end of mode-specific history, clear input.
	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// historyCtrl walks the command history from either mode, restoring the
// original mode and input once it runs out of entries.
func (m model) historyCtrl(dir int) (model, tea.Cmd) {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	if i := m.findInMode(dir, modeCtrl); i >= 0 {
		m.historyIdx = i

		return m.showEntry(i, false), nil
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m, _ = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving each mode's
// input and cursor.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = m.style.prompt.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = m.style.ctrlPrompt.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
