package txconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Write emits the configuration deterministically: entries sorted by
// normalized key, one stanza per resource. The write is guarded by a file
// lock, any previous file is backed up with a timestamp suffix, and the new
// content lands via atomic rename.
func Write(path string, file *File) error {
	if file == nil {
		return fmt.Errorf("nil tx config")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tx config directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "config.lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock tx config: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if _, err := os.Stat(path); err == nil {
		backup := fmt.Sprintf("%s.backup.%d", path, time.Now().Unix())
		if err := copyFile(path, backup); err != nil {
			return fmt.Errorf("backup tx config: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(render(file)), 0o644); err != nil {
		return fmt.Errorf("write tx config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace tx config: %w", err)
	}
	return nil
}

func render(file *File) string {
	entries := make([]Entry, len(file.Entries))
	copy(entries, file.Entries)
	sortEntries(entries)

	var b strings.Builder
	b.WriteString("[main]\n")
	b.WriteString("host = " + normalizeHost(file.Host) + "\n")

	for _, entry := range entries {
		b.WriteString("\n[" + entry.Section() + "]\n")
		if entry.FileFilter != "" {
			b.WriteString("file_filter = " + sanitizeValue(entry.FileFilter) + "\n")
		}
		if entry.SourceFile != "" {
			b.WriteString("source_file = " + sanitizeValue(entry.SourceFile) + "\n")
		}
		if entry.SourceLanguage != "" {
			b.WriteString("source_lang = " + entry.SourceLanguage + "\n")
		}
		if entry.ResourceName != "" {
			b.WriteString("resource_name = " + sanitizeValue(entry.ResourceName) + "\n")
		}
	}
	return b.String()
}

func sanitizeValue(value string) string {
	return strings.NewReplacer("'", "_", "\"", "_", "`", "_").Replace(value)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
