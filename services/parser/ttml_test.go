package parser

import (
	"testing"
)

func TestParseTTMLTime(t *testing.T) {
	tests := []struct {
		name        string
		timeStr     string
		expected    float64
		expectError bool
	}{
		{name: "Seconds only with decimal", timeStr: "12.34", expected: 12.34},
		{name: "Seconds only integer", timeStr: "5", expected: 5},
		{name: "Seconds with suffix", timeStr: "12.5s", expected: 12.5},
		{name: "Milliseconds suffix", timeStr: "350ms", expected: 0.35},
		{name: "Minutes and seconds", timeStr: "1:30.5", expected: 90.5},
		{name: "Minutes and seconds padded", timeStr: "01:02.345", expected: 62.345},
		{name: "Hours minutes and seconds", timeStr: "1:02:30.250", expected: 3750.25},
		{name: "Hours minutes seconds no decimal", timeStr: "0:01:15", expected: 75},
		{name: "Zero time", timeStr: "0:00:00", expected: 0},
		{name: "Minutes seconds milliseconds", timeStr: "01:02:345", expected: 62.345},
		{name: "Last group above sixty is milliseconds", timeStr: "0:05:75", expected: 5.075},
		{name: "Empty", timeStr: "", expectError: true},
		{name: "Garbage", timeStr: "abc", expectError: true},
		{name: "Too many parts", timeStr: "1:2:3:4", expectError: true},
		{name: "Negative", timeStr: "-1.5", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTTMLTime(tt.timeStr)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %q, got %v", tt.timeStr, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.timeStr, err)
			}
			if !approxMs(got, tt.expected) {
				t.Errorf("parseTTMLTime(%q) = %v, want %v", tt.timeStr, got, tt.expected)
			}
		})
	}
}

func approxMs(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

const wordLevelTTML = `<?xml version="1.0" encoding="UTF-8"?>
<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" itunes:timing="Word" xmlns:itunes="http://music.apple.com/lyric-ttml-internal">
  <head><metadata><ttm:agent type="person" xml:id="v1"/></metadata></head>
  <body dur="00:20.000">
    <div begin="00:01.000" end="00:20.000">
      <p begin="00:01.000" end="00:04.000" ttm:agent="v1"><span begin="00:01.000" end="00:01.500">Rock</span> <span begin="00:01.500" end="00:02.000">&amp;</span> <span begin="00:02.000" end="00:04.000">roll</span><span ttm:role="x-translation" xml:lang="de">Rock und Roll</span></p>
      <p begin="bad" end="00:08.000"><span begin="00:05.000" end="00:05.400">Beau</span><span begin="00:05.400" end="00:06.000">ti</span><span begin="00:06.000" end="00:07.500">ful</span></p>
      <p begin="00:09.000" end="00:12.000"><span begin="00:09.000" end="00:10.000">Main</span> <span ttm:role="x-bg" begin="00:10.000" end="00:12.000"><span begin="00:10.000" end="00:11.000">(echo</span> <span begin="00:11.000" end="00:12.000">echo)</span></span><span ttm:role="x-roman">mein</span></p>
      <p begin="nope" end="nope">No timing anywhere</p>
      <p begin="00:13.000" end="00:15.000">   </p>
      <p begin="00:16.000" end="00:19.000">Don&amp;apos;t stop</p>
    </div>
  </body>
</tt>`

func TestParseTTML_WordLevel(t *testing.T) {
	lines := ParseTTML(wordLevelTTML)
	checkLines(t, lines, []wantLine{
		{text: "Rock & roll", start: 1, end: 4, words: 3},
		{text: "Beautiful", start: 5, end: 7.5, words: 3},
		{text: "Main (echo echo)", start: 9, end: 12, words: 3},
		{text: "Don't stop", start: 16, end: 19, words: 0},
	})
	checkSorted(t, lines)

	first := lines[0].Words
	if first[1].Text != "&" || !approxMs(first[1].StartTime, 1.5) || !approxMs(first[1].EndTime, 2.0) {
		t.Errorf("Unexpected second word: %+v", first[1])
	}
	for _, w := range lines[2].Words {
		if w.Text == "mein" {
			t.Errorf("Transliteration span leaked into words: %+v", lines[2].Words)
		}
	}
}

func TestParseTTML_HoursFormat(t *testing.T) {
	raw := `<tt><body><div>
		<p begin="00:01:05.500" end="00:01:08.000"><span begin="00:01:05.500" end="00:01:08.000">Late</span></p>
	</div></body></tt>`
	checkLines(t, ParseTTML(raw), []wantLine{
		{text: "Late", start: 65.5, end: 68, words: 1},
	})
}

func TestParseTTML_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "not xml at all", "<tt><body></body></tt>"} {
		if lines := ParseTTML(raw); lines != nil {
			t.Errorf("Expected nil for %q, got %+v", raw, lines)
		}
	}
}

func TestParseTTML_TruncatedKeepsEarlierLines(t *testing.T) {
	raw := `<tt><body><div>
		<p begin="1" end="2">kept</p>
		<p begin="3" end="4">cut off`
	lines := ParseTTML(raw)
	checkLines(t, lines, []wantLine{{text: "kept", start: 1, end: 2}})
}
