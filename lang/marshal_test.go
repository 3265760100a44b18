package lang

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

type document struct {
	Name string `json:"name" yaml:"name"`
	Rule *Expr  `json:"rule" yaml:"rule"`
}

func TestExpr_MarshalJSON(t *testing.T) {
	in := document{Name: "total", Rule: New("price * qty").WithValue("price", 2)}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if want := `{"name":"total","rule":"price * qty"}`; string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var out document
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if !out.Rule.Equal(in.Rule) || !out.Rule.Compiled() {
		t.Errorf("unexpected decoded rule %v", out.Rule.LogValue())
	}

	if _, ok := out.Rule.Contexts().Lookup("price"); ok {
		t.Error("bindings survived marshaling")
	}
}

func TestExpr_UnmarshalJSON_Invalid(t *testing.T) {
	var out document

	err := json.Unmarshal([]byte(`{"rule":"1 +"}`), &out)
	if !errors.Is(err, ErrCompile) {
		t.Errorf("expected ErrCompile, got %v", err)
	}

	err = json.Unmarshal([]byte(`{"rule":5}`), &out)
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestExpr_MarshalYAML(t *testing.T) {
	in := document{Name: "check", Rule: New(`len(name) > 3`)}

	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if !strings.Contains(string(data), "len(name) > 3") {
		t.Errorf("source missing from %q", data)
	}

	var out document
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if !out.Rule.Equal(in.Rule) {
		t.Errorf("expected %q, got %q", in.Rule, out.Rule)
	}

	v, err := out.Rule.WithValue("name", "abcd").Exec()
	if err != nil || v != true {
		t.Errorf("expected true, got (%v, %v)", v, err)
	}
}

func TestExpr_TextRoundTrip(t *testing.T) {
	e := New("a ?? b")

	text, err := e.MarshalText()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var out Expr
	if err := out.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if !out.Equal(e) {
		t.Errorf("expected %q, got %q", e, &out)
	}

	before := out
	if err := out.UnmarshalText([]byte("(")); err == nil {
		t.Error("expected compile error")
	}

	if out.Source() != before.Source() {
		t.Error("failed unmarshal modified the receiver")
	}
}
