package kugou

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"
)

var _ providers.Provider = (*Provider)(nil)

type fakeKugou struct {
	songs      []SongInfo
	candidates []LyricsCandidate
	content    map[string]string // id -> LRC
	lyricsHash string
	downloaded string
}

func (f *fakeKugou) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/search/song", func(w http.ResponseWriter, r *http.Request) {
		var resp SongSearchResponse
		resp.Status = 1
		resp.Data.Info = f.songs
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.lyricsHash = r.URL.Query().Get("hash")
		json.NewEncoder(w).Encode(LyricsSearchResponse{Status: 200, Candidates: f.candidates})
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		f.downloaded = r.URL.Query().Get("id")
		lrc, ok := f.content[f.downloaded]
		if !ok {
			json.NewEncoder(w).Encode(DownloadResponse{Status: 404, Info: "no such id"})
			return
		}
		json.NewEncoder(w).Encode(DownloadResponse{
			Status:  200,
			Content: base64.StdEncoding.EncodeToString([]byte(lrc)),
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, f *fakeKugou) *Provider {
	srv := f.server(t)
	return NewProvider(Config{SongSearchURL: srv.URL, LyricsURL: srv.URL, MinMatchScore: 0.6})
}

func TestFetchLyrics(t *testing.T) {
	f := &fakeKugou{
		songs: []SongInfo{
			{Hash: "LIVE", SongName: "Song (Live)", SingerName: "Band", Duration: 260},
			{Hash: "STUDIO", SongName: "Song", SingerName: "Band、Guest", Duration: 200},
		},
		candidates: []LyricsCandidate{
			{ID: "1", AccessKey: "k1", Song: "Song", Singer: "Band", Duration: 200000, KRCType: 2, Score: 60},
			{ID: "2", AccessKey: "k2", Song: "Song", Singer: "Band", Duration: 200000, KRCType: 1, Score: 60},
		},
		content: map[string]string{
			"2": "[00:00.00]Song - Band\n[00:01.00]作词：Someone\n[00:05.00]first line\n[00:08.00]second line\n",
		},
	}
	p := newTestProvider(t, f)

	results, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "Song", Artist: "Band", DurationSeconds: 200})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.lyricsHash != "STUDIO" {
		t.Errorf("Expected lyrics search for the duration-matched song, got hash %q", f.lyricsHash)
	}
	if f.downloaded != "2" {
		t.Errorf("Expected the synced candidate to be downloaded, got %q", f.downloaded)
	}
	if len(results) != 1 || results[0].Format != lyrics.FormatLRC {
		t.Fatalf("Unexpected results: %+v", results)
	}
	want := "[00:05.00]first line\n[00:08.00]second line"
	if results[0].RawText != want {
		t.Errorf("RawText = %q, want %q", results[0].RawText, want)
	}
}

func TestFetchLyrics_NotFound(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeKugou
	}{
		{
			name: "No songs",
			f:    &fakeKugou{},
		},
		{
			name: "Only weak matches",
			f:    &fakeKugou{songs: []SongInfo{{Hash: "X", SongName: "Completely Different", SingerName: "Someone"}}},
		},
		{
			name: "No lyrics candidates",
			f:    &fakeKugou{songs: []SongInfo{{Hash: "A", SongName: "Song", SingerName: "Band"}}},
		},
		{
			name: "Instrumental",
			f: &fakeKugou{
				songs:      []SongInfo{{Hash: "A", SongName: "Song", SingerName: "Band"}},
				candidates: []LyricsCandidate{{ID: "1", AccessKey: "k", Score: 60}},
				content:    map[string]string{"1": "[00:00.00]" + pureMusicText},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.f)
			results, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "Song", Artist: "Band"})
			if err != nil {
				t.Fatalf("Expected not-found without error, got %v", err)
			}
			if len(results) != 0 {
				t.Errorf("Expected no results, got %+v", results)
			}
		})
	}
}

func TestFetchLyrics_DownloadError(t *testing.T) {
	f := &fakeKugou{
		songs:      []SongInfo{{Hash: "A", SongName: "Song", SingerName: "Band"}},
		candidates: []LyricsCandidate{{ID: "missing", AccessKey: "k", Score: 60}},
	}
	p := newTestProvider(t, f)

	_, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "Song", Artist: "Band"})
	if err == nil {
		t.Fatal("Expected an error for a failed download")
	}
	if _, ok := err.(*providers.ProviderError); !ok {
		t.Errorf("Expected *ProviderError, got %T", err)
	}
	if !strings.Contains(err.Error(), "no such id") {
		t.Errorf("Expected the API message in the error, got %v", err)
	}
}

func TestFetchLyrics_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProvider(Config{SongSearchURL: srv.URL, LyricsURL: srv.URL})
	if _, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "Song"}); err == nil {
		t.Error("Expected error for 503")
	}
}

func TestBestLyricsCandidate(t *testing.T) {
	tests := []struct {
		name       string
		cands      []LyricsCandidate
		durationMs int
		want       string
	}{
		{
			name:  "Empty",
			cands: nil,
			want:  "",
		},
		{
			name: "Synced beats unsynced",
			cands: []LyricsCandidate{
				{ID: "a", AccessKey: "k", KRCType: 2, Score: 60},
				{ID: "b", AccessKey: "k", KRCType: 1, Score: 60},
			},
			want: "b",
		},
		{
			name: "Official bonus breaks a tie",
			cands: []LyricsCandidate{
				{ID: "a", AccessKey: "k", Score: 60},
				{ID: "b", AccessKey: "k", Score: 60, ProductFrom: "官方推荐歌词"},
			},
			want: "b",
		},
		{
			name: "Duration closeness",
			cands: []LyricsCandidate{
				{ID: "a", AccessKey: "k", Score: 60, Duration: 240000},
				{ID: "b", AccessKey: "k", Score: 60, Duration: 201000},
			},
			durationMs: 200000,
			want:       "b",
		},
		{
			name: "Skips undownloadable",
			cands: []LyricsCandidate{
				{ID: "a", Score: 90},
				{ID: "b", AccessKey: "k", Score: 10},
			},
			want: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bestLyricsCandidate(tt.cands, tt.durationMs)
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.want {
				t.Errorf("bestLyricsCandidate() = %q, want %q", gotID, tt.want)
			}
		})
	}
}

func TestSplitSingers(t *testing.T) {
	got := splitSingers("周杰伦、 费玉清/Guest")
	want := []string{"周杰伦", "费玉清", "Guest"}
	if len(got) != len(want) {
		t.Fatalf("splitSingers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitSingers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
