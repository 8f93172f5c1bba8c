package preflight

import (
	"context"
	"strings"

	"cdjexport/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to the given config. The library
// file is only checked when a path is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if path := strings.TrimSpace(cfg.Library.DatabasePath); path != "" {
		results = append(results, CheckLibraryFile("rekordbox library", path))
	} else {
		results = append(results, Result{Name: "rekordbox library", Detail: "not configured (set library.database_path or --database)"})
	}

	if ctx.Err() != nil {
		results = append(results, Result{Name: "Preflight", Detail: ctx.Err().Error()})
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
