package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
)

// TokenChecker is the slice of the platform client the token check needs.
type TokenChecker interface {
	Organization(ctx context.Context, slug string) (*transifex.Organization, error)
}

// CheckToken verifies the API token by fetching the configured organization.
// A single round trip with a 30-second timeout; retries stay inside the
// client's own policy.
func CheckToken(ctx context.Context, api TokenChecker, orgSlug string) Result {
	const name = "API token"

	if orgSlug == "" {
		return Result{Name: name, Detail: "organization not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	org, err := api.Organization(checkCtx, orgSlug)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err, orgSlug)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("organization %q reachable", org.Slug)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeAPIError(err error, orgSlug string) string {
	switch {
	case errors.Is(err, services.ErrAuth):
		return "authentication failed (invalid token)"
	case errors.Is(err, services.ErrNotFound):
		return fmt.Sprintf("organization %q not found (check the slug and token scope)", orgSlug)
	case errors.Is(err, context.DeadlineExceeded):
		return "API check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "API check timed out (network unreachable)"
	}
	return err.Error()
}
