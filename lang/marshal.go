package lang

import (
	"encoding/json"
)

// MarshalText implements encoding.TextMarshaler. Only the source text is
// encoded.
func (e *Expr) MarshalText() ([]byte, error) {
	return []byte(e.source), nil
}

// UnmarshalText implements encoding.TextUnmarshaler by compiling text into
// a fresh handle. Existing bindings are discarded, and the receiver is left
// unchanged if text does not compile.
func (e *Expr) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text), WithLogger(e.logger))
	if err != nil {
		return err
	}

	*e = *parsed

	return nil
}

// MarshalJSON implements json.Marshaler as a JSON string holding the source.
func (e *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.source)
}

// UnmarshalJSON implements json.Unmarshaler from a JSON string.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidValue.Wrap(err)
	}

	return e.UnmarshalText([]byte(s))
}

// MarshalYAML encodes the handle as a YAML scalar holding the source.
func (e *Expr) MarshalYAML() (any, error) {
	return e.source, nil
}

// UnmarshalYAML decodes the handle from a YAML scalar.
func (e *Expr) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return ErrInvalidValue.Wrap(err)
	}

	return e.UnmarshalText([]byte(s))
}
