package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/log"
	"github.com/ardnew/formula/pkg"
)

// resolve returns a [kong.ConfigurationLoader] that reads flag values from
// a YAML configuration file, such as the one written by the init command.
//
// Nested mappings are flattened by joining keys with '-', so both of these
// set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Keys may use '_' in place of '-'. Command-line flags override
// configuration values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).DecodeContext(ctx, &doc)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, pkg.ErrDecodeConfig.Wrap(err)
		}

		values := make(config)
		values.flatten("", doc)

		log.TraceContext(ctx, "configuration loaded")

		return values, nil
	}
}

// config implements [kong.Resolver] over flattened configuration keys.
type config map[string]any

// flatten copies doc into c, joining the keys of nested mappings to prefix.
func (c config) flatten(prefix string, doc map[string]any) {
	for key, value := range doc {
		key = strings.ReplaceAll(key, "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		if nested, ok := value.(map[string]any); ok {
			c.flatten(key, nested)

			continue
		}

		c[key] = scalar(value)
	}
}

// scalar converts numbers to strings, which kong parses for any flag type.
func scalar(v any) any {
	switch x := v.(type) {
	case uint64:
		return strconv.FormatUint(x, 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = scalar(elem)
		}

		return out
	}

	return v
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil //nolint:nilnil
}
