// Package library writes the info file that sits next to every converted
// song.
package library

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mgpai22/kara/internal/fsutil"
	"github.com/mgpai22/kara/internal/source"
)

const (
	InfoFileName   = "kara.json"
	LyricsFileName = "lyrics.ass"
	InfoVersion    = 1
)

type Metadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Year   string `json:"year,omitempty"`
	// whole seconds
	Duration int64 `json:"duration"`
}

type Track struct {
	Name       string `json:"name"`
	FileName   string `json:"fileName"`
	Role       string `json:"role,omitempty"`
	Toggleable bool   `json:"toggleable,omitempty"`
}

// Info describes a converted song.
type Info struct {
	ID       string   `json:"id"`
	Version  int      `json:"version"`
	Format   string   `json:"format,omitempty"`
	Metadata Metadata `json:"metadata"`
	Tracks   []Track  `json:"tracks"`
	Lyrics   string   `json:"lyrics"`
}

// NewInfo builds the info file for a song read in the given format.
func NewInfo(song *source.Song, format source.Format) Info {
	meta := Metadata{
		Title:    song.Title,
		Artist:   song.Artist,
		Year:     song.Year,
		Duration: int64(song.Duration.Seconds()),
	}

	tracks := make([]Track, 0, len(song.Tracks))
	for _, t := range song.Tracks {
		tracks = append(tracks, Track{
			Name:       t.Name,
			FileName:   t.FileName,
			Role:       string(t.Role),
			Toggleable: t.Toggleable,
		})
	}

	return Info{
		ID:       ID(meta),
		Version:  InfoVersion,
		Format:   format.String(),
		Metadata: meta,
		Tracks:   tracks,
		Lyrics:   LyricsFileName,
	}
}

// ID hashes the metadata values joined with "|".
func ID(meta Metadata) string {
	joined := strings.Join([]string{
		meta.Title,
		meta.Artist,
		meta.Year,
		strconv.FormatInt(meta.Duration, 10),
	}, "|")
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Write stores the info file in dir atomically and returns its path.
func (i Info) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode info file: %w", err)
	}

	path := filepath.Join(dir, InfoFileName)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write info file: %w", err)
	}
	return path, nil
}

// Read loads the info file from dir.
func Read(dir string) (Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFileName))
	if err != nil {
		return Info{}, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse info file: %w", err)
	}
	return info, nil
}
