package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/log"
	"github.com/ardnew/formula/pkg"
	"github.com/ardnew/formula/profile"
)

const defaultConfigIndent = 2

// Init writes the configuration file from the current values of the global
// flags, so that later runs start from them.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.Wrap(errors.New("no command-line context"))
	}

	confPath := ktx.Model.Vars()[ConfigIdentifier]
	if confPath == "" {
		return ErrWriteConfig.Wrap(errors.New("configuration path undefined"))
	}

	attr := slog.String("file", confPath)

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.With(attr).Wrap(pkg.ErrConfigExists)
	}

	data, err := yaml.MarshalContext(ctx, configValues(ktx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.With(attr).Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(attr).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", attr)

	return nil
}

// configValues collects the global flags with a value, in declaration
// order. Help, version and profiling flags are never persisted.
func configValues(ktx *kong.Context) yaml.MapSlice {
	ignore := []string{"help", "version", profile.Tag}

	var values yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(prefix string) bool {
			return strings.HasPrefix(flag.Name, prefix)
		}) {
			continue
		}

		val := ktx.FlagValue(flag)
		if isEmpty(val) {
			continue
		}

		values = append(values, yaml.MapItem{Key: flag.Name, Value: val})
	}

	return values
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}

	return false
}
