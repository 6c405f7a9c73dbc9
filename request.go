package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"lyrics-sync-go/lyrics"
)

var errMissingTitle = errors.New("title not provided")

// firstParam returns the first non-empty query value among names
func firstParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseTrack reads the track identity from the query string. Duration is
// in seconds and may be fractional; a missing duration means unknown.
func parseTrack(r *http.Request) (lyrics.TrackIdentity, error) {
	track := lyrics.TrackIdentity{
		Title:  firstParam(r, "title", "s", "song"),
		Artist: firstParam(r, "artist", "a"),
	}
	if track.Title == "" {
		return track, errMissingTitle
	}

	if d := firstParam(r, "duration", "d"); d != "" {
		secs, err := strconv.ParseFloat(d, 64)
		if err != nil || secs < 0 {
			return track, fmt.Errorf("invalid duration %q", d)
		}
		track.DurationSeconds = secs
	}
	return track, nil
}

// parseBool treats 1/true/yes as true; anything else (including absent) is def
func parseBool(r *http.Request, name string, def bool) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}
