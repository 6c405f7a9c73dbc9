package lrclib

// Track is one record of the /api/get and /api/search responses
type Track struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"` // seconds
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasLyrics reports whether the record carries any text at all
func (t *Track) HasLyrics() bool {
	return t.SyncedLyrics != "" || t.PlainLyrics != ""
}
