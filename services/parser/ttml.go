package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

// Span roles whose text is not part of the sung line
var skippedRoles = map[string]bool{
	"x-translation":     true,
	"x-roman":           true,
	"x-transliteration": true,
}

// parseTTMLTime parses a TTML clock value into seconds.
// Accepted: "12.5", "12.5s", "350ms", "01:02.345", "1:02:03.456", and
// the "MM:SS:mmm" variant some exporters write, which is told apart from
// "HH:MM:SS" by a fraction-less last group that is 3 digits or above 60.
func parseTTMLTime(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty time value")
	}
	if strings.HasSuffix(value, "ms") {
		ms, err := strconv.ParseFloat(strings.TrimSuffix(value, "ms"), 64)
		if err != nil {
			return 0, err
		}
		return ms / 1000, nil
	}
	value = strings.TrimSuffix(value, "s")

	parts := strings.Split(value, ":")
	nums := make([]float64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time component %q in %q", p, value)
		}
		nums[i] = n
	}

	switch len(parts) {
	case 1:
		return nums[0], nil
	case 2:
		return nums[0]*60 + nums[1], nil
	case 3:
		last := parts[2]
		if !strings.Contains(last, ".") && (len(last) == 3 || nums[2] > 60) {
			return nums[0]*60 + nums[1] + nums[2]/1000, nil
		}
		return nums[0]*3600 + nums[1]*60 + nums[2], nil
	default:
		return 0, fmt.Errorf("invalid time format: %s", value)
	}
}

// ttmlFrame is one open element inside a <p>
type ttmlFrame struct {
	span  bool
	skip  bool
	timed bool
	begin float64
	end   float64
	text  strings.Builder
}

// ParseTTML parses word-level timed markup: <p begin end> paragraphs with
// nested <span begin end> words. Translation and transliteration spans are
// left out of both the line text and the words.
func ParseTTML(raw string) []lyrics.LyricLine {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var lines []lyrics.LyricLine
	paragraphs := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warnf("%s Stopped after %d paragraphs: %v", logcolors.LogTTMLParser, paragraphs, err)
			}
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "p" {
			continue
		}
		paragraphs++

		line, ok, err := readParagraph(dec, se)
		if err != nil {
			log.Warnf("%s Paragraph %d is truncated: %v", logcolors.LogTTMLParser, paragraphs, err)
			break
		}
		if !ok {
			log.Debugf("%s Skipping paragraph %d without usable timing or text", logcolors.LogTTMLParser, paragraphs)
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil
	}
	sortLines(lines)
	return lines
}

func readParagraph(dec *xml.Decoder, p xml.StartElement) (lyrics.LyricLine, bool, error) {
	var (
		stack []*ttmlFrame
		text  strings.Builder
		words []lyrics.LyricWord
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			return lyrics.LyricLine{}, false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parentSkip := len(stack) > 0 && stack[len(stack)-1].skip
			frame := &ttmlFrame{skip: parentSkip}
			switch t.Name.Local {
			case "span":
				frame.span = true
				if skippedRoles[attr(t, "role")] {
					frame.skip = true
				}
				begin, errB := parseTTMLTime(attr(t, "begin"))
				end, errE := parseTTMLTime(attr(t, "end"))
				if errB == nil && errE == nil {
					frame.timed = true
					frame.begin = begin
					frame.end = max(end, begin)
				}
			case "br":
				if !parentSkip {
					text.WriteString(" ")
				}
			}
			stack = append(stack, frame)

		case xml.CharData:
			s := string(t)
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.skip {
					continue
				}
				if top.timed {
					top.text.WriteString(s)
				}
			}
			text.WriteString(s)

		case xml.EndElement:
			if len(stack) == 0 {
				// closing </p>
				return buildTTMLLine(p, text.String(), words)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.span && top.timed && !top.skip {
				if w := cleanText(top.text.String()); w != "" {
					words = append(words, lyrics.LyricWord{Text: w, StartTime: top.begin, EndTime: top.end})
				}
			}
		}
	}
}

func buildTTMLLine(p xml.StartElement, rawText string, words []lyrics.LyricWord) (lyrics.LyricLine, bool, error) {
	text := cleanText(rawText)
	if text == "" {
		return lyrics.LyricLine{}, false, nil
	}

	line := lyrics.LyricLine{Text: text, Words: words}
	begin, errB := parseTTMLTime(attr(p, "begin"))
	end, errE := parseTTMLTime(attr(p, "end"))
	switch {
	case errB == nil && errE == nil:
		line.StartTime, line.EndTime = begin, max(end, begin)
	case len(words) > 0:
		line.StartTime, line.EndTime = words[0].StartTime, words[0].EndTime
		for _, w := range words[1:] {
			line.StartTime = min(line.StartTime, w.StartTime)
			line.EndTime = max(line.EndTime, w.EndTime)
		}
	default:
		return lyrics.LyricLine{}, false, nil
	}
	return line, true, nil
}

// cleanText collapses whitespace and decodes entities that survived XML
// decoding (double-escaped "&amp;apos;" is common in community files).
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
