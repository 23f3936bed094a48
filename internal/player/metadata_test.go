package player

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMetadataFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Night Drive.flac")
	if err := os.WriteFile(path, []byte("not really flac"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := ReadMetadata(path)
	if m.Title != "Night Drive" {
		t.Fatalf("expected filename title, got %q", m.Title)
	}
	if m.Artist != "" || m.Album != "" {
		t.Fatalf("expected empty artist/album, got %+v", m)
	}
}

func TestReadMetadataUntaggedMP3(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.mp3")
	if err := os.WriteFile(path, []byte{0xff, 0xfb, 0x90, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	if got := ReadMetadata(path).Title; got != "demo" {
		t.Fatalf("expected filename title for untagged mp3, got %q", got)
	}
}

func TestMetadataSubtitle(t *testing.T) {
	tests := []struct {
		m    Metadata
		want string
	}{
		{Metadata{Artist: "A", Album: "B"}, "A - B"},
		{Metadata{Artist: "A"}, "A"},
		{Metadata{Album: "B"}, "B"},
		{Metadata{}, ""},
	}
	for _, tt := range tests {
		if got := tt.m.Subtitle(); got != tt.want {
			t.Fatalf("Subtitle(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}
