package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/pkg"
)

//nolint:gochecknoglobals
var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// loadContexts decodes each context document into one scope frame,
// outermost first, and returns the resulting stack. The stack always has
// a final empty frame that receives --set bindings, so assignments shadow
// every document.
func loadContexts(ctx context.Context, paths []string, stdin io.Reader) (lang.Contexts, error) {
	srcs, closeAll, err := openSources(paths, stdin)
	defer closeAll()

	if err != nil {
		return nil, ErrLoadContext.Wrap(pkg.ErrReadInput.Wrap(err))
	}

	frames := make([]lang.Context, 0, len(srcs)+1)

	for _, src := range srcs {
		frame, err := decodeScope(ctx, src)
		if err != nil {
			return nil, ErrLoadContext.With(slog.String("file", src.name)).Wrap(err)
		}

		frames = append(frames, frame)
	}

	return lang.NewContexts(append(frames, lang.Context{})...), nil
}

// decodeScope reads one YAML (or JSON) document holding a mapping. An
// empty document yields an empty frame.
func decodeScope(ctx context.Context, src source) (lang.Context, error) {
	var doc map[string]any

	err := yaml.NewDecoder(src).DecodeContext(ctx, &doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, pkg.ErrDecodeContext.Wrap(err)
	}

	return toContext(doc)
}

// decodeEach reads a YAML sequence of mappings, one frame per element.
func decodeEach(ctx context.Context, src source) ([]lang.Context, error) {
	var docs []map[string]any

	err := yaml.NewDecoder(src).DecodeContext(ctx, &docs)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, pkg.ErrDecodeContext.Wrap(err)
	}

	frames := make([]lang.Context, len(docs))

	for i, doc := range docs {
		if frames[i], err = toContext(doc); err != nil {
			return nil, pkg.ErrDecodeContext.Wrapf("element %d", i).Wrap(err)
		}
	}

	return frames, nil
}

func toContext(doc map[string]any) (lang.Context, error) {
	frame := make(lang.Context, len(doc))

	for name, raw := range doc {
		v, err := lang.ToValue(raw)
		if err != nil {
			return nil, pkg.ErrDecodeContext.Wrapf("key %q", name).Wrap(err)
		}

		frame[name] = v
	}

	return frame, nil
}

// parseAssignment splits "name=value" and decodes value as a YAML scalar or
// flow collection, so "n=3" binds a number and "s=abc" a string. An empty
// value binds the empty string.
func parseAssignment(s string) (string, lang.Value, error) {
	name, text, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)

	switch {
	case !ok:
		return "", nil, pkg.ErrAssignment.Wrapf("missing '=' in %q", s)
	case !identifier.MatchString(name):
		return "", nil, pkg.ErrAssignment.Wrapf("invalid name %q", name)
	case strings.TrimSpace(text) == "":
		return name, "", nil
	}

	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return "", nil, pkg.ErrAssignment.Wrapf("value of %q", name).Wrap(err)
	}

	v, err := lang.ToValue(raw)
	if err != nil {
		return "", nil, pkg.ErrAssignment.Wrapf("value of %q", name).Wrap(err)
	}

	return name, v, nil
}
