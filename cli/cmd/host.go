package cmd

import (
	"os"

	"github.com/ardnew/mung"

	"github.com/ardnew/formula/lang"
)

// HostFunctions returns a new constant registry holding the functions the
// command line offers every expression, in addition to the built-ins:
//
//	env(name, default?)         value of an environment variable
//	pathPrefix(list, items...)  prepend items to a PATH-like list
//	cwd()                       the working directory
func HostFunctions() *lang.ConstFunctions {
	consts := lang.NewConstFunctions()

	consts.Set("env", lang.NewConstFunction(hostEnv, lang.MinArgs(1), lang.MaxArgs(2)))
	consts.Set("pathPrefix", lang.NewConstFunction(hostPathPrefix, lang.MinArgs(1), lang.Variadic()))
	consts.Set("cwd", lang.NewConstFunction(hostCwd, lang.Args(0)))

	return consts
}

// HostSignatures maps each host function to a display signature.
//
//nolint:gochecknoglobals
var HostSignatures = map[string]string{
	"env":        "env(name, default?)",
	"pathPrefix": "pathPrefix(list, items...)",
	"cwd":        "cwd()",
}

// hostEnv returns the value of the named variable. An unset variable
// yields the default, or null without one.
func hostEnv(args []lang.Value) (lang.Value, error) {
	name, ok := args[0].(string)
	if !ok {
		return nil, hostError("env", "name must be a string", args...)
	}

	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}

	if len(args) > 1 {
		return args[1], nil
	}

	return nil, nil
}

// hostPathPrefix prepends items to the list-separated string list, the way
// a shell profile prepends directories to PATH. Items may be strings or
// arrays of strings.
func hostPathPrefix(args []lang.Value) (lang.Value, error) {
	list, ok := args[0].(string)
	if !ok {
		return nil, hostError("pathPrefix", "list must be a string", args...)
	}

	var items []string

	for _, arg := range args[1:] {
		switch x := arg.(type) {
		case string:
			items = append(items, x)

		case []any:
			for _, elem := range x {
				s, ok := elem.(string)
				if !ok {
					return nil, hostError("pathPrefix", "items must be strings", args...)
				}

				items = append(items, s)
			}

		default:
			return nil, hostError("pathPrefix", "items must be strings", args...)
		}
	}

	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String(), nil
}

func hostCwd([]lang.Value) (lang.Value, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return dir, nil
}

func hostError(name, reason string, args ...lang.Value) *lang.EvaluationError {
	kinds := make([]lang.Kind, len(args))
	for i, arg := range args {
		kinds[i] = lang.KindOf(arg)
	}

	return &lang.EvaluationError{Operator: name, Kinds: kinds, Reason: reason}
}
