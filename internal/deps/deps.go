package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency txbulk relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external binaries a download run needs.
func Requirements(txBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "Transifex CLI",
			Command:     txBinary,
			Description: "Required for config generation and downloads",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Detail = path
		results = append(results, status)
	}
	return results
}

// Version runs the command with --version and returns the first output line.
// Best effort; an empty string means the probe failed.
func Version(command string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, command, "--version").CombinedOutput()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}
