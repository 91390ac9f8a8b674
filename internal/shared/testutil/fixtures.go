package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// WriteFiles writes name -> content pairs under dir, creating it first.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// ScenarioDir returns a temporary directory holding files.
func ScenarioDir(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	WriteFiles(t, dir, files)
	return dir
}

// ReferenceFile returns the absolute path of a file in the reference
// package's testdata directory.
func ReferenceFile(t testing.TB, name string) string {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source")
	}
	path := filepath.Join(filepath.Dir(self), "..", "..", "reference", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("reference fixture %s: %v", name, err)
	}
	return path
}
