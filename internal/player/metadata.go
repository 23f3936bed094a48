package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds song information.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Subtitle joins artist and album for display.
func (m Metadata) Subtitle() string {
	switch {
	case m.Artist != "" && m.Album != "":
		return m.Artist + " - " + m.Album
	case m.Artist != "":
		return m.Artist
	default:
		return m.Album
	}
}

// ReadMetadata reads ID3v2 tags from an MP3 file, falling back to the
// filename for untagged files and other formats.
func ReadMetadata(path string) Metadata {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if m, ok := readID3(path); ok {
			return m
		}
	}
	return Metadata{Title: titleFromPath(path)}
}

func readID3(path string) (Metadata, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}, false
	}
	defer tag.Close()

	m := Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
	return m, m.Title != ""
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
