package txconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

var quotedValueKeys = []string{"resource_name", "file_filter", "source_file"}

// FixQuotes repairs quote characters in value lines of an existing tx
// configuration, replacing them with underscores. The tx CLI itself writes
// unescaped resource names during 'add remote', which later corrupts its own
// parser. Returns true when the file was modified; the original is backed up
// first.
func FixQuotes(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open tx config: %w", err)
	}

	var out strings.Builder
	modified := false

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if fixed, changed := fixLine(line); changed {
			line = fixed
			modified = true
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	scanErr := scanner.Err()
	_ = file.Close()
	if scanErr != nil {
		return false, fmt.Errorf("scan tx config: %w", scanErr)
	}

	if !modified {
		return false, nil
	}

	backup := fmt.Sprintf("%s.backup.%d", path, time.Now().Unix())
	if err := copyFile(path, backup); err != nil {
		return false, fmt.Errorf("backup tx config: %w", err)
	}
	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return false, fmt.Errorf("rewrite tx config: %w", err)
	}
	return true, nil
}

func fixLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, key := range quotedValueKeys {
		if !strings.HasPrefix(trimmed, key) {
			continue
		}
		prefix, value, ok := strings.Cut(line, "=")
		if !ok {
			return line, false
		}
		fixed := sanitizeValue(value)
		if fixed == value {
			return line, false
		}
		return prefix + "=" + fixed, true
	}
	return line, false
}
