package txconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"txbulk/internal/services"
)

// Limits that keep parsing bounded on pathological files.
const (
	maxConfigBytes = 50 * 1024 * 1024
	maxLineBytes   = 10_000
	maxConfigLines = 1_000_000
)

var sectionPattern = regexp.MustCompile(`^\[o:([^:\]]+):p:([^:\]]+):r:([^\]]+)\]$`)

// ErrNotExist is returned by Parse when no config file is present. Callers
// distinguish "no file" from "corrupt file": only the latter needs an
// explicit user decision.
var ErrNotExist = errors.New("tx config does not exist")

// Parse reads a tx configuration file into a File. Malformed content yields
// a configuration-corrupt error rather than a silently empty result, so the
// caller can force an explicit fresh-start decision.
func Parse(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("stat tx config: %w", err)
	}
	if info.Size() > maxConfigBytes {
		return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
			fmt.Sprintf("config file exceeds %d bytes", maxConfigBytes), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tx config: %w", err)
	}
	defer file.Close()

	parsed, err := parseReader(file)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func parseReader(r io.Reader) (*File, error) {
	result := &File{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var current *Entry
	inMain := false
	lineNum := 0

	flush := func() {
		if current != nil {
			result.Entries = append(result.Entries, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		lineNum++
		if lineNum > maxConfigLines {
			// Truncating would drop entries behind the caller's back, so an
			// oversized file is treated the same as a corrupt one.
			return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
				fmt.Sprintf("config file exceeds %d lines", maxConfigLines), nil)
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
					fmt.Sprintf("unterminated section header at line %d", lineNum), nil)
			}
			flush()
			inMain = false
			if line == "[main]" {
				inMain = true
				continue
			}
			match := sectionPattern.FindStringSubmatch(line)
			if match == nil {
				return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
					fmt.Sprintf("unrecognized section %q at line %d", line, lineNum), nil)
			}
			current = &Entry{OrgSlug: match[1], ProjectSlug: match[2], ResourceSlug: match[3]}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
				fmt.Sprintf("malformed line %d: %q", lineNum, line), nil)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case inMain:
			if key == "host" {
				result.Host = value
			}
		case current != nil:
			switch key {
			case "source_lang":
				current.SourceLanguage = value
			case "file_filter":
				current.FileFilter = value
			case "source_file":
				current.SourceFile = value
			case "resource_name":
				current.ResourceName = value
			}
		default:
			return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse",
				fmt.Sprintf("value outside any section at line %d", lineNum), nil)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrConfigCorrupt, "txconfig", "parse", "", err)
	}
	flush()

	return result, nil
}
