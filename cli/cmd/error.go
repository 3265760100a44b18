package cmd

import "github.com/ardnew/formula/lang"

// Command errors. Each carries structured attributes through
// [lang.Error.With] and logs its cause through slog.
var (
	ErrLoadContext = lang.NewError("load context")
	ErrReadExpr    = lang.NewError("read expression")
	ErrEvaluate    = lang.NewError("evaluate expression")
	ErrWriteOutput = lang.NewError("write output")
	ErrWriteConfig = lang.NewError("write configuration file")
)
