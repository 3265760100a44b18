package lang

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestToText(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{3.0, "3"},
		{-0.25, "-0.25"},
		{1e21, "1e+21"},
		{"raw \"text\"", "raw \"text\""},
		{[]any{1.0, "a"}, `[1,"a"]`},
		{map[string]any{"b": 1.0, "a": nil}, `{"a":null,"b":1}`},
	}

	for _, tt := range tests {
		got, err := ToText(tt.in)
		if err != nil {
			t.Fatalf("%#v: %v", tt.in, err)
		}

		if got != tt.want {
			t.Errorf("%#v: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatValue(t *testing.T) {
	v := map[string]any{"name": "x", "mode": "y"}

	tests := []struct {
		format Format
		indent int
		want   string
	}{
		{FormatText, 0, `{"mode":"y","name":"x"}` + "\n"},
		{FormatJSON, 0, `{"mode":"y","name":"x"}` + "\n"},
		{FormatJSON, 2, "{\n  \"mode\": \"y\",\n  \"name\": \"x\"\n}\n"},
		{FormatYAML, 2, "mode: y\nname: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			if err := FormatValue(t.Context(), &buf, v, tt.format, tt.indent); err != nil {
				t.Fatalf("format error: %v", err)
			}

			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatValue_YAMLFlow(t *testing.T) {
	var buf bytes.Buffer

	if err := FormatValue(t.Context(), &buf, []any{1.0, 2.0}, FormatYAML, 0); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); !strings.HasPrefix(got, "[") {
		t.Errorf("expected flow sequence, got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{" yml ", FormatYAML},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %v, got (%v, %v)", tt.in, tt.want, got, err)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json", "yaml"}) {
		t.Errorf("unexpected formats %v", got)
	}
}
