// Package ingest loads the input playlist. Input problems are the only errors
// in the system that abort a run before it starts; everything downstream
// degrades instead.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/cratedigger/trackmatch/internal/model"
)

// InputError is a fatal problem with the input playlist.
type InputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("ingest: %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Playlist is the validated input batch.
type Playlist struct {
	Name   string
	Tracks []model.Track
}

// rawTrack tolerates both an artist list and a single artist string.
type rawTrack struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Artist  string   `json:"artist"`
	Year    *int     `json:"year"`
	Key     *string  `json:"key"`
}

type rawPlaylist struct {
	Name   string     `json:"name"`
	Tracks []rawTrack `json:"tracks"`
}

// LoadJSON reads and validates a playlist file. The track list must be
// non-empty and every track must have a title.
func LoadJSON(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Reason: "read file", Err: err}
	}

	var raw rawPlaylist
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &InputError{Path: path, Reason: "parse json", Err: eris.Wrap(err, "ingest: unmarshal playlist")}
	}

	if len(raw.Tracks) == 0 {
		return nil, &InputError{Path: path, Reason: "playlist has no tracks"}
	}

	name := raw.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	tracks := make([]model.Track, 0, len(raw.Tracks))
	for i, rt := range raw.Tracks {
		if strings.TrimSpace(rt.Title) == "" {
			return nil, &InputError{Path: path, Reason: fmt.Sprintf("track %d has no title", i+1)}
		}
		artists := rt.Artists
		if len(artists) == 0 && strings.TrimSpace(rt.Artist) != "" {
			artists = []string{rt.Artist}
		}
		tracks = append(tracks, model.NewTrack(i+1, rt.Title, artists, rt.Year, rt.Key))
	}

	return &Playlist{Name: name, Tracks: tracks}, nil
}
