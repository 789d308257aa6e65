package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandArgFilesSplicesTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.txt")
	if err := os.WriteFile(path, []byte("--release\n--output out\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got := expandArgFiles([]string{"compile", "@" + path, "a.jar"})
	want := []string{"compile", "--release", "--output", "out", "a.jar"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpandArgFilesDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "self.txt")
	if err := os.WriteFile(path, []byte("@"+path), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readArgFile(path, map[string]bool{}); err == nil {
		t.Fatalf("expected circular-reference error")
	}
}
