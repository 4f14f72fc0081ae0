package preflight

import (
	"context"
	"fmt"

	"txbulk/internal/config"
	"txbulk/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config. The API check is
// skipped when api is nil, so offline commands can still report on the rest.
func RunAll(ctx context.Context, cfg *config.Config, api TokenChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg.TxBinary())) {
		detail := status.Detail
		if status.Available {
			if version := deps.Version(status.Command); version != "" {
				detail = fmt.Sprintf("%s (%s)", detail, version)
			}
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail})
	}
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	if cfg.Paths.HistoryDir != "" {
		results = append(results, CheckDirectoryAccess("History directory", cfg.Paths.HistoryDir))
	}
	if api != nil {
		results = append(results, CheckToken(ctx, api, cfg.Selection.Organization))
	}

	return results
}

// Passed reports whether every result in the set passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return len(results) > 0
}
