package netease

// SearchResponse is the /api/search/get/web response
type SearchResponse struct {
	Code   int `json:"code"`
	Result struct {
		SongCount int    `json:"songCount"`
		Songs     []Song `json:"songs"`
	} `json:"result"`
}

// Song is one search hit
type Song struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // milliseconds
	Artists  []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// ArtistNames flattens the artist list
func (s Song) ArtistNames() []string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}
	return names
}

// LyricResponse is the /api/song/lyric response. Yrc carries word timing
// and is only present for some songs.
type LyricResponse struct {
	Code   int       `json:"code"`
	Lrc    lyricBody `json:"lrc"`
	Yrc    lyricBody `json:"yrc"`
	Tlyric lyricBody `json:"tlyric"`
}

type lyricBody struct {
	Lyric string `json:"lyric"`
}
