package lyricsovh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"
)

var _ providers.Provider = (*Provider)(nil)

func TestFetchLyrics(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		wantErr  bool
	}{
		{name: "Found", status: 200, body: `{"lyrics":"one\r\ntwo"}`, expected: "one\ntwo"},
		{name: "Header stripped", status: 200, body: `{"lyrics":"Paroles de la chanson Song par Band\r\none"}`, expected: "one"},
		{name: "Not found", status: 404, body: `{"error":"No lyrics found"}`},
		{name: "Empty lyrics", status: 200, body: `{"lyrics":""}`},
		{name: "Server error", status: 500, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.EscapedPath()
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProvider(srv.URL, nil)
			results, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "My Song", Artist: "AC/DC"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if path != "/v1/AC%2FDC/My%20Song" {
				t.Errorf("Unexpected path %q", path)
			}
			if tt.expected == "" {
				if len(results) != 0 {
					t.Errorf("Expected no results, got %+v", results)
				}
				return
			}
			if len(results) != 1 || results[0].RawText != tt.expected || results[0].Format != lyrics.FormatPlain {
				t.Errorf("Unexpected results: %+v", results)
			}
		})
	}
}

func TestFetchLyrics_NoArtist(t *testing.T) {
	p := NewProvider("http://127.0.0.1:0", nil)
	results, err := p.FetchLyrics(context.Background(), lyrics.TrackIdentity{Title: "Song"})
	if err != nil || results != nil {
		t.Errorf("Expected (nil, nil) without an artist, got (%+v, %v)", results, err)
	}
}
