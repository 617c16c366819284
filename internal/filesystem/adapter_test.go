package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultFileSystemAdapter_IsValidUTF8(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty string", []byte(""), true},
		{"valid ascii", []byte("server_tokens off;"), true},
		{"valid utf-8", []byte("# 世界\n"), true},
		{"invalid utf-8 sequence", []byte{0xff, 0xfe, 0xfd}, false},
		{"invalid continuation byte", []byte{0xe2, 0x82}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.IsValidUTF8(tt.content); got != tt.want {
				t.Errorf("DefaultFileSystemAdapter.IsValidUTF8() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultFileSystemAdapter_WriteFileBytesAtomic(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	dir := t.TempDir()
	target := filepath.Join(dir, "nginx.conf")
	if err := os.WriteFile(target, []byte("http {\n}\n"), 0640); err != nil {
		t.Fatalf("setup: %v", err)
	}

	content := []byte("http {\n    server_tokens off;\n}\n")
	if err := adapter.WriteFileBytesAtomic(target, content, 0640); err != nil {
		t.Fatalf("WriteFileBytesAtomic() error = %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q, want %q", got, content)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %o, want 640", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestDefaultFileSystemAdapter_WriteFileBytesAtomicMissingDir(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	target := filepath.Join(t.TempDir(), "missing", "site.conf")
	if err := adapter.WriteFileBytesAtomic(target, []byte("x"), 0644); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestDefaultFileSystemAdapter_ReadFileBytes(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	_, err := adapter.ReadFileBytes(filepath.Join(t.TempDir(), "nope"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "file not found") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDefaultFileSystemAdapter_GetFileStats(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	dir := t.TempDir()
	target := filepath.Join(dir, "server.js")
	if err := os.WriteFile(target, []byte("app.listen(3000);\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	stats, err := adapter.GetFileStats(target)
	if err != nil {
		t.Fatalf("GetFileStats() error = %v", err)
	}
	if stats.IsDir || stats.Size != 18 || stats.Mode != 0600 {
		t.Errorf("unexpected stats %+v", stats)
	}

	stats, err = adapter.GetFileStats(dir)
	if err != nil || !stats.IsDir {
		t.Errorf("expected directory stats, got %+v, %v", stats, err)
	}

	exists, err := adapter.FileExists(filepath.Join(dir, "other.js"))
	if err != nil || exists {
		t.Errorf("FileExists() = %v, %v", exists, err)
	}
}

func TestDefaultFileSystemAdapter_EvalSymlinks(t *testing.T) {
	adapter := NewDefaultFileSystemAdapter()
	dir := t.TempDir()
	available := filepath.Join(dir, "sites-available")
	enabled := filepath.Join(dir, "sites-enabled")
	for _, d := range []string{available, enabled} {
		if err := os.Mkdir(d, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	siteFile := filepath.Join(available, "example.com")
	if err := os.WriteFile(siteFile, []byte("server {\n}\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	link := filepath.Join(enabled, "example.com")
	if err := os.Symlink(siteFile, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	resolved, err := adapter.EvalSymlinks(link)
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(siteFile)
	if resolved != want {
		t.Errorf("EvalSymlinks() = %q, want %q", resolved, want)
	}
}
