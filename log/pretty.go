package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles render plain text
// when the output is not a color terminal.
type palette struct {
	key, str, num, yes, no, null, when lipgloss.Style
	trace, debug, info, warn, fail     lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		yes:   fg("2"),
		no:    fg("1"),
		null:  fg("8"),
		when:  fg("4"),
		trace: fg("5"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		fail:  fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.fail
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyHandler writes one colorized record per line (text) or one
// indented block per record (JSON-like). Group and LogValuer attributes
// are flattened into dotted keys.
type prettyHandler struct {
	opts   *slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  palette
	attrs  []slog.Attr
	prefix string
	block  bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, format Format) *prettyHandler {
	return &prettyHandler{
		opts:  opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
		block: format == FormatJSON,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	for _, a := range []slog.Attr{
		slog.Time(slog.TimeKey, r.Time),
		slog.Any(slog.LevelKey, r.Level),
		h.source(r),
		slog.String(slog.MessageKey, r.Message),
	} {
		if a.Key == slog.TimeKey && r.Time.IsZero() {
			continue
		}

		if a.Key == "" {
			continue
		}

		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, a)
		}
	}

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.block {
		h.writeBlock(&buf, fields, r.Level)
	} else {
		h.writeLine(&buf, fields, r.Level)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// source returns the file:line attribute of r, or an empty attribute when
// caller info is disabled or unknown.
func (h *prettyHandler) source(r slog.Record) slog.Attr {
	if !h.opts.AddSource {
		return slog.Attr{}
	}

	src := r.Source()
	if src == nil || src.File == "" {
		return slog.Attr{}
	}

	return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line))
}

func (h *prettyHandler) writeLine(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.value(a, level))
	}
}

func (h *prettyHandler) writeBlock(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.value(a, level))
	}

	buf.WriteString("\n}")
}

func (h *prettyHandler) value(a slog.Attr, level slog.Level) string {
	v := a.Value

	if a.Key == slog.LevelKey {
		return h.style.level(level).Render(v.String())
	}

	switch v.Kind() {
	case slog.KindString:
		return h.style.str.Render(v.String())

	case slog.KindInt64:
		return h.style.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return h.style.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return h.style.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return h.style.yes.Render("true")
		}

		return h.style.no.Render("false")

	case slog.KindDuration:
		return h.style.num.Render(v.Duration().String())

	case slog.KindTime:
		return h.style.when.Render(v.Time().String())

	case slog.KindAny:
		if v.Any() == nil {
			return h.style.null.Render("null")
		}

		if level, ok := v.Any().(slog.Level); ok {
			return h.style.level(level).Render(strings.ToUpper(Level(level).String()))
		}
	}

	return h.style.str.Render(v.String())
}

// flatten appends a to fields, resolving LogValuers and expanding groups
// into keys joined with ".".
func flatten(fields []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup {
		if a.Equal(slog.Attr{}) {
			return fields
		}

		return append(fields, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}

	inner := prefix
	if a.Key != "" {
		inner = prefix + a.Key + "."
	}

	for _, g := range a.Value.Group() {
		fields = flatten(fields, inner, g)
	}

	return fields
}
