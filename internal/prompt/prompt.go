// Package prompt resolves how an existing tx configuration should be handled:
// reused as-is, merged with fresh discovery, or regenerated from scratch.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"txbulk/internal/services"
	"txbulk/internal/txconfig"
)

// ParseChoice maps a user-supplied mode name to a config mode.
func ParseChoice(choice string) (txconfig.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "reuse", "r":
		return txconfig.ModeReuse, nil
	case "merge", "m":
		return txconfig.ModeMerge, nil
	case "fresh", "f":
		return txconfig.ModeFresh, nil
	default:
		return "", services.Wrap(services.ErrValidation, "prompt", "parse",
			fmt.Sprintf("unknown config mode %q (expected reuse, merge, or fresh)", choice), nil)
	}
}

// Decide resolves the config mode without touching the terminal. It returns
// ask=true only when an interactive prompt is both possible and needed:
// an existing config, no explicit choice, and no assume-yes shortcut.
func Decide(hasExisting bool, explicit string, assumeYes, interactive bool) (mode txconfig.Mode, ask bool, err error) {
	if explicit != "" {
		mode, err = ParseChoice(explicit)
		return mode, false, err
	}
	if !hasExisting {
		return txconfig.ModeFresh, false, nil
	}
	if assumeYes || !interactive {
		// Merge is the safe unattended default: it keeps manual edits and
		// still picks up new resources.
		return txconfig.ModeMerge, false, nil
	}
	return txconfig.ModeMerge, true, nil
}

// Ask prompts for a mode on an interactive terminal. Empty input takes the
// merge default; unrecognized input re-prompts up to three times.
func Ask(r io.Reader, w io.Writer) (txconfig.Mode, error) {
	reader := bufio.NewReader(r)
	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprint(w, "Existing .tx/config found. [r]euse, [m]erge, or start [f]resh? [merge]: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return txconfig.ModeMerge, nil
			}
			return "", fmt.Errorf("read prompt response: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return txconfig.ModeMerge, nil
		}
		mode, parseErr := ParseChoice(line)
		if parseErr == nil {
			return mode, nil
		}
		fmt.Fprintf(w, "Unrecognized choice %q.\n", line)
	}
	return "", services.Wrap(services.ErrValidation, "prompt", "ask", "no valid choice after 3 attempts", nil)
}

// IsInteractive reports whether the file is attached to a terminal.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
