package ttmldb

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Metadata keys used by the index
const (
	keyTitle    = "musicName"
	keyArtists  = "artists"
	keyAlbum    = "album"
	keyDuration = "duration"
)

// IndexLine is one line of index.jsonl. Metadata is a list of
// [key, [values...]] pairs.
type IndexLine struct {
	ID           string            `json:"id"`
	Metadata     []json.RawMessage `json:"metadata"`
	RawLyricFile string            `json:"rawLyricFile"`
}

// Entry is a decoded index line
type Entry struct {
	ID           string
	Title        string
	Artists      []string
	Album        string
	DurationMs   int
	RawLyricFile string
}

// Decode flattens the metadata pairs. Unknown keys are ignored.
func (l IndexLine) Decode() (Entry, error) {
	e := Entry{ID: l.ID, RawLyricFile: l.RawLyricFile}
	if e.RawLyricFile == "" {
		return e, fmt.Errorf("entry %q has no lyric file", l.ID)
	}

	for _, raw := range l.Metadata {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			continue
		}
		var key string
		var values []string
		if json.Unmarshal(pair[0], &key) != nil || json.Unmarshal(pair[1], &values) != nil || len(values) == 0 {
			continue
		}

		switch key {
		case keyTitle:
			e.Title = values[0]
		case keyArtists:
			e.Artists = values
		case keyAlbum:
			e.Album = values[0]
		case keyDuration:
			if ms, err := strconv.Atoi(values[0]); err == nil {
				e.DurationMs = ms
			}
		}
	}

	if e.Title == "" {
		return e, fmt.Errorf("entry %q has no title", l.ID)
	}
	return e, nil
}
