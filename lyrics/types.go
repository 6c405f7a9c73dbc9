package lyrics

import (
	"errors"
	"strings"

	"lyrics-sync-go/utils"
)

// ErrNotFound is returned when no provider produced usable lyrics for a track.
var ErrNotFound = errors.New("no lyrics found")

// LoadingMarker is the text of the synthetic placeholder line that heads
// every resolved set.
const LoadingMarker = "…"

// Format identifies the timed-text format of a raw provider payload
type Format string

const (
	FormatLRC   Format = "lrc"   // line-level [mm:ss.cc]
	FormatTTML  Format = "ttml"  // word-level markup
	FormatYRC   Format = "yrc"   // compact word-level [ms,ms](ms,ms,flag)
	FormatPlain Format = "plain" // untimed text
)

// TrackIdentity identifies a song for matching and caching
type TrackIdentity struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration"`
}

// Key returns the normalized cache/request key for the track.
// Duration is deliberately left out so the same song reported with a
// slightly different length by two players shares one entry.
func (t TrackIdentity) Key() string {
	return utils.NormalizeText(t.Title) + "|" + utils.NormalizeText(t.Artist)
}

// IsZero reports whether the identity carries no title.
func (t TrackIdentity) IsZero() bool {
	return strings.TrimSpace(t.Title) == ""
}

func (t TrackIdentity) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}

// LyricWord is a timed sub-span of a line, in seconds
type LyricWord struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Progress returns how far playback is through the word, clamped to [0, 1].
func (w LyricWord) Progress(now float64) float64 {
	span := w.EndTime - w.StartTime
	if span <= 0 {
		if now >= w.StartTime {
			return 1
		}
		return 0
	}
	p := (now - w.StartTime) / span
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// LyricLine is one timed line of lyrics, optionally split into words
type LyricLine struct {
	Text          string      `json:"text"`
	StartTime     float64     `json:"startTime"`
	EndTime       float64     `json:"endTime"`
	Words         []LyricWord `json:"words,omitempty"`
	IsPlaceholder bool        `json:"isPlaceholder,omitempty"`
}

// HasWordSync reports whether the line carries word-level timing.
func (l LyricLine) HasWordSync() bool {
	return len(l.Words) > 0
}

// Duration returns EndTime - StartTime.
func (l LyricLine) Duration() float64 {
	return l.EndTime - l.StartTime
}

// SourceResult is a raw payload returned by a provider, before parsing
type SourceResult struct {
	Provider string
	RawText  string
	Format   Format
}

// LyricSet is the resolved lyrics for one track. A published set is
// replaced wholesale and never modified.
type LyricSet struct {
	Lines    []LyricLine `json:"lines"`
	Provider string      `json:"provider"`
	Format   Format      `json:"format"`
	Score    float64     `json:"score"`
	Valid    bool        `json:"valid"`
}

// NewSet builds a set from parsed lines, prepending the loading
// placeholder when the first line starts after zero.
func NewSet(lines []LyricLine, provider string, format Format) *LyricSet {
	out := make([]LyricLine, 0, len(lines)+1)
	if len(lines) > 0 && lines[0].StartTime > 0 {
		out = append(out, LyricLine{
			Text:          LoadingMarker,
			StartTime:     0,
			EndTime:       lines[0].StartTime,
			IsPlaceholder: true,
		})
	}
	out = append(out, lines...)
	return &LyricSet{Lines: out, Provider: provider, Format: format}
}

// RealLines returns the lines without the loading placeholder.
func (s *LyricSet) RealLines() []LyricLine {
	if s == nil {
		return nil
	}
	if len(s.Lines) > 0 && s.Lines[0].IsPlaceholder {
		return s.Lines[1:]
	}
	return s.Lines
}

// HasWordSync reports whether any real line carries word timing.
func (s *LyricSet) HasWordSync() bool {
	for _, l := range s.RealLines() {
		if l.HasWordSync() {
			return true
		}
	}
	return false
}

// SizeEstimate approximates the memory held by the set, in bytes.
func (s *LyricSet) SizeEstimate() int {
	if s == nil {
		return 0
	}
	const lineOverhead, wordOverhead = 64, 40
	size := 64 + len(s.Provider)
	for _, l := range s.Lines {
		size += lineOverhead + len(l.Text)
		for _, w := range l.Words {
			size += wordOverhead + len(w.Text)
		}
	}
	return size
}
