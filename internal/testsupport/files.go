package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	chunk := make([]byte, chunkSize)
	for i := range chunk {
		chunk[i] = byte('a' + i%26)
	}
	remaining := size
	for remaining > 0 {
		n := int64(chunkSize)
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= n
	}
}

// WriteTxConfig writes raw tx config content into dir/.tx/config and returns
// the config path.
func WriteTxConfig(t testing.TB, dir, content string) string {
	t.Helper()

	txDir := filepath.Join(dir, ".tx")
	if err := os.MkdirAll(txDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", txDir, err)
	}
	path := filepath.Join(txDir, "config")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
