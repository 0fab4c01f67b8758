package fsutil

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("expected second, got %q", data)
	}

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only out.txt, got %d entries", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(src, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out", "a.mp3")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "ID3" {
		t.Errorf("unexpected copy %q", data)
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"song.kfn", ".DS_Store", "Thumbs.db", "cover.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	sort.Strings(names)

	want := []string{"cover.jpg", "song.kfn"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestFindByExt(t *testing.T) {
	names := []string{"notes.txt", "Song.MP3", "song.ogg"}

	tests := []struct {
		ext    string
		want   string
		wantOK bool
	}{
		{".mp3", "Song.MP3", true},
		{".OGG", "song.ogg", true},
		{".kfn", "", false},
	}

	for _, tt := range tests {
		got, ok := FindByExt(names, tt.ext)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FindByExt(%q) = %q, %v", tt.ext, got, ok)
		}
	}
}
