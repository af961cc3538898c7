package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AC/DC", "ACDC"},
		{`What?: "Live" <Edit>*`, "What Live Edit"},
		{"Trailing dots...", "Trailing dots"},
		{"  spaced  ", "spaced"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.flac")
	dst := filepath.Join(dir, "nested", "dst.flac")

	if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if Exists(src) {
		t.Error("source should be gone")
	}
	if data, _ := os.ReadFile(dst); string(data) != "audio" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestCopyFile_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	_ = os.WriteFile(src, []byte("new"), 0644)
	_ = os.WriteFile(dst, []byte("old"), 0644)

	if err := copyFile(src, dst); err == nil {
		t.Error("expected copy onto an existing file to fail")
	}
	if data, _ := os.ReadFile(dst); string(data) != "old" {
		t.Errorf("existing file was modified: %q", data)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Song.flac")
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	if got := UniquePath(path, now); got != path {
		t.Errorf("free path should be unchanged, got %s", got)
	}

	_ = os.WriteFile(path, nil, 0644)
	got := UniquePath(path, now)
	if !strings.HasSuffix(got, "Song_20240309_140507.flac") {
		t.Errorf("unexpected collision path %s", got)
	}
}

func TestDeleteFolderIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	_ = os.Mkdir(empty, 0755)

	if err := DeleteFolderIfEmpty(empty); err != nil {
		t.Fatalf("DeleteFolderIfEmpty failed: %v", err)
	}
	if Exists(empty) {
		t.Error("empty folder should be removed")
	}
	if err := DeleteFolderIfEmpty(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("missing folder should be ignored, got %v", err)
	}
}
