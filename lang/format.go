package lang

//go:generate go tool stringer --linecomment --type Format --output format_string.go

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects how a [Value] is rendered by [FormatValue].
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
	FormatYAML               // yaml
)

// Formats returns an iterator over the names of all formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range []Format{FormatText, FormatJSON, FormatYAML} {
			if !yield(f.String()) {
				return
			}
		}
	}
}

// ParseFormat parses the name of a format, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}

	return FormatText, ErrInvalidFormat.With(slog.String("format", s))
}

// FormatValue writes v to w followed by a newline.
// An indent of zero selects the compact form of JSON and the flow style of
// YAML. Text ignores indent.
func FormatValue(
	ctx context.Context,
	w io.Writer,
	v Value,
	format Format,
	indent int,
) error {
	var (
		out string
		err error
	)

	switch format {
	case FormatText:
		out, err = ToText(v)

	case FormatJSON:
		out, err = formatJSON(v, indent)

	case FormatYAML:
		out, err = formatYAML(ctx, v, indent)

	default:
		err = ErrInvalidFormat.With(slog.Int("format", int(format)))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n"))

	return err
}

// ToText renders v for display: strings verbatim, integral numbers
// without an exponent or fraction, and arrays and objects as compact JSON.
func ToText(v Value) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return FormatNumber(x), nil
	case string:
		return x, nil
	}

	return formatJSON(v, 0)
}

// FormatNumber renders f in the shortest form that round-trips, without an
// exponent for integers of moderate size.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatJSON(v Value, indent int) (string, error) {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", ErrInvalidValue.With(slog.String("format", "json")).Wrap(err)
	}

	return string(data), nil
}

func formatYAML(ctx context.Context, v Value, indent int) (string, error) {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return "", ErrInvalidValue.With(slog.String("format", "yaml")).Wrap(err)
	}

	return string(data), nil
}
