package graphics

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestDiskCache(t *testing.T) *DiskCache {
	t.Helper()
	c, err := NewDiskCache("kittygfx-diskcache-test")
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDiskCacheOpenAppendSize(t *testing.T) {
	c := newTestDiskCache(t)
	f, err := c.OpenForWrite(1)
	if err != nil {
		t.Fatalf("OpenForWrite: %v", err)
	}
	if err := f.Append([]byte("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append([]byte(" world")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if f.Size() != 11 {
		t.Errorf("Size() = %d, want 11", f.Size())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(c.path(1))
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("file contents = %q, want %q", got, "hello world")
	}
}

func TestDiskCacheRemoveMissingIsNotError(t *testing.T) {
	c := newTestDiskCache(t)
	if err := c.Remove(999); err != nil {
		t.Errorf("Remove of a nonexistent file returned an error: %v", err)
	}
}

func TestDiskCacheCopyFile(t *testing.T) {
	c := newTestDiskCache(t)
	src, err := os.CreateTemp("", "kittygfx-src-*")
	if err != nil {
		t.Fatalf("create source fixture: %v", err)
	}
	defer os.Remove(src.Name())
	if _, err := src.WriteString("copied bytes"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	src.Close()

	n, err := c.CopyFile(src.Name(), 7)
	if err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if n != int64(len("copied bytes")) {
		t.Errorf("CopyFile returned %d bytes, want %d", n, len("copied bytes"))
	}

	got, err := os.ReadFile(c.path(7))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(got) != "copied bytes" {
		t.Errorf("copied file contents = %q, want %q", got, "copied bytes")
	}
}

func TestDiskCacheCloseRemovesDirectory(t *testing.T) {
	c, err := NewDiskCache("kittygfx-diskcache-close-test")
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	dir := c.Dir()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache directory should no longer exist after Close")
	}
}

func TestDiskCacheEnsureDirRecreatesMissingDir(t *testing.T) {
	c := newTestDiskCache(t)
	if err := os.RemoveAll(c.Dir()); err != nil {
		t.Fatalf("remove cache dir: %v", err)
	}
	if err := c.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache directory not recreated: %v", err)
	}
}

func TestDiskCachePathIsZeroPadded(t *testing.T) {
	c := newTestDiskCache(t)
	if got := filepath.Base(c.path(7)); got != "img-007" {
		t.Errorf("path basename = %q, want img-007", got)
	}
}
