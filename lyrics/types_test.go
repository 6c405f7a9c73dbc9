package lyrics

import "testing"

func TestTrackIdentityKey(t *testing.T) {
	a := TrackIdentity{Title: "  Bohemian   Rhapsody ", Artist: "Queen", DurationSeconds: 354}
	b := TrackIdentity{Title: "bohemian rhapsody", Artist: "QUEEN", DurationSeconds: 355}
	if a.Key() != b.Key() {
		t.Errorf("Expected keys to match, got %q and %q", a.Key(), b.Key())
	}

	c := TrackIdentity{Title: "Bohemian Rhapsody", Artist: "Panic! at the Disco"}
	if a.Key() == c.Key() {
		t.Errorf("Expected different artists to produce different keys")
	}
}

func TestLyricWordProgress(t *testing.T) {
	w := LyricWord{Text: "hi", StartTime: 10, EndTime: 12}
	tests := []struct {
		now      float64
		expected float64
	}{
		{now: 9, expected: 0},
		{now: 10, expected: 0},
		{now: 11, expected: 0.5},
		{now: 12, expected: 1},
		{now: 20, expected: 1},
	}
	for _, tt := range tests {
		if got := w.Progress(tt.now); got != tt.expected {
			t.Errorf("Progress(%v) = %v, want %v", tt.now, got, tt.expected)
		}
	}

	zero := LyricWord{Text: "x", StartTime: 5, EndTime: 5}
	if zero.Progress(4.9) != 0 || zero.Progress(5) != 1 {
		t.Errorf("Expected zero-length word to jump from 0 to 1 at its start")
	}
}

func TestNewSetPlaceholder(t *testing.T) {
	lines := []LyricLine{
		{Text: "Hello", StartTime: 1.5, EndTime: 5},
		{Text: "World", StartTime: 5, EndTime: 10},
	}
	set := NewSet(lines, "lrclib", FormatLRC)

	if len(set.Lines) != 3 {
		t.Fatalf("Expected placeholder plus 2 lines, got %d", len(set.Lines))
	}
	p := set.Lines[0]
	if !p.IsPlaceholder || p.Text != LoadingMarker || p.StartTime != 0 || p.EndTime != 1.5 {
		t.Errorf("Unexpected placeholder: %+v", p)
	}
	if got := len(set.RealLines()); got != 2 {
		t.Errorf("Expected 2 real lines, got %d", got)
	}

	atZero := NewSet([]LyricLine{{Text: "Now", StartTime: 0, EndTime: 3}}, "x", FormatLRC)
	if atZero.Lines[0].IsPlaceholder {
		t.Errorf("Expected no placeholder when the first line starts at 0")
	}
}

func TestLyricSetSizeEstimate(t *testing.T) {
	small := NewSet([]LyricLine{{Text: "a", StartTime: 1, EndTime: 2}}, "x", FormatLRC)
	big := NewSet([]LyricLine{
		{Text: "a much longer line of lyrics", StartTime: 1, EndTime: 2,
			Words: []LyricWord{{Text: "a"}, {Text: "much"}, {Text: "longer"}}},
	}, "x", FormatTTML)
	if small.SizeEstimate() >= big.SizeEstimate() {
		t.Errorf("Expected larger set to have larger estimate: %d vs %d", small.SizeEstimate(), big.SizeEstimate())
	}
	var nilSet *LyricSet
	if nilSet.SizeEstimate() != 0 {
		t.Errorf("Expected nil set to estimate 0")
	}
}

func TestStripMetadata(t *testing.T) {
	tests := []struct {
		name      string
		lines     []LyricLine
		wantFirst string
		wantLen   int
	}{
		{
			name: "Credit lines with colons",
			lines: []LyricLine{
				{Text: "作词 : Someone", StartTime: 0, EndTime: 1},
				{Text: "作曲 : Someone", StartTime: 1, EndTime: 2},
				{Text: "First real line", StartTime: 12, EndTime: 16},
				{Text: "Second: with colon", StartTime: 16, EndTime: 17},
			},
			wantFirst: "First real line",
			wantLen:   2,
		},
		{
			name: "Title separator and blank",
			lines: []LyricLine{
				{Text: "", StartTime: 0, EndTime: 0.5},
				{Text: "Song Title - Artist", StartTime: 0.5, EndTime: 2},
				{Text: "Verse one", StartTime: 8, EndTime: 12},
			},
			wantFirst: "Verse one",
			wantLen:   1,
		},
		{
			name: "Residual credit inside grace window",
			lines: []LyricLine{
				{Text: "Lyrics: A", StartTime: 0, EndTime: 1},
				{Text: "Produced by B", StartTime: 1, EndTime: 2},
				{Text: "Verse one", StartTime: 9, EndTime: 13},
			},
			wantFirst: "Verse one",
			wantLen:   1,
		},
		{
			name: "Short lyric lines after credits kept",
			lines: []LyricLine{
				{Text: "Lyricist: A", StartTime: 0, EndTime: 0.2},
				{Text: "Composer: B", StartTime: 0.2, EndTime: 0.4},
				{Text: "Verse one", StartTime: 1, EndTime: 3},
				{Text: "Verse two", StartTime: 3, EndTime: 5},
			},
			wantFirst: "Verse one",
			wantLen:   2,
		},
		{
			name: "No metadata untouched",
			lines: []LyricLine{
				{Text: "Verse one", StartTime: 2, EndTime: 6},
				{Text: "Verse two", StartTime: 6, EndTime: 9},
			},
			wantFirst: "Verse one",
			wantLen:   2,
		},
		{
			name: "Long colon line is a lyric",
			lines: []LyricLine{
				{Text: "Listen: this is sung", StartTime: 2, EndTime: 9},
			},
			wantFirst: "Listen: this is sung",
			wantLen:   1,
		},
		{
			name: "Placeholder removed",
			lines: []LyricLine{
				{Text: LoadingMarker, StartTime: 0, EndTime: 2, IsPlaceholder: true},
				{Text: "Verse", StartTime: 2, EndTime: 6},
			},
			wantFirst: "Verse",
			wantLen:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripMetadata(tt.lines)
			if len(got) != tt.wantLen {
				t.Fatalf("Expected %d lines, got %d: %+v", tt.wantLen, len(got), got)
			}
			if got[0].Text != tt.wantFirst {
				t.Errorf("Expected first line %q, got %q", tt.wantFirst, got[0].Text)
			}
		})
	}
}
