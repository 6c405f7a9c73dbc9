package ttmldb

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lyrics-sync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 15 * time.Second
	maxLineBytes   = 1 << 20
	maxRawBytes    = 4 << 20
)

// DefaultMirrors are the public mirrors of the database, tried in order
var DefaultMirrors = []string{
	"https://amll-ttml-db.stevexmh.net",
	"https://raw.githubusercontent.com/Steve-xmh/amll-ttml-db/main",
}

var errNotFound = errors.New("not found")

// Client downloads the index and lyric files, falling through the
// mirrors until one answers
type Client struct {
	httpClient *http.Client
	mirrors    []string
	platform   string
}

// NewClient creates a client for the given mirrors and platform directory
func NewClient(mirrors []string, platform string, httpClient *http.Client) *Client {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	if platform == "" {
		platform = "ncm"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	trimmed := make([]string, len(mirrors))
	for i, m := range mirrors {
		trimmed[i] = strings.TrimRight(m, "/")
	}
	return &Client{httpClient: httpClient, mirrors: trimmed, platform: platform}
}

// FetchIndex downloads and decodes index.jsonl. Malformed lines are skipped.
func (c *Client) FetchIndex(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.eachMirror(ctx, "/"+c.platform+"/index.jsonl", func(body io.Reader) error {
		entries = entries[:0]
		skipped := 0
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var il IndexLine
			if err := json.Unmarshal([]byte(line), &il); err != nil {
				skipped++
				continue
			}
			e, err := il.Decode()
			if err != nil {
				skipped++
				continue
			}
			entries = append(entries, e)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read index: %w", err)
		}
		if skipped > 0 {
			log.Debugf("%s Skipped %d malformed index lines", logcolors.LogIndex, skipped)
		}
		return nil
	})
	return entries, err
}

// FetchRaw downloads one TTML document
func (c *Client) FetchRaw(ctx context.Context, file string) (string, error) {
	var text string
	err := c.eachMirror(ctx, "/raw-lyrics/"+url.PathEscape(file), func(body io.Reader) error {
		b, err := io.ReadAll(io.LimitReader(body, maxRawBytes))
		if err != nil {
			return fmt.Errorf("failed to read lyric file: %w", err)
		}
		text = string(b)
		return nil
	})
	return text, err
}

// eachMirror GETs path from each mirror until read succeeds. A 404 from a
// mirror is final: the mirrors hold the same data.
func (c *Client) eachMirror(ctx context.Context, path string, read func(io.Reader) error) error {
	var lastErr error
	for _, mirror := range c.mirrors {
		err := c.get(ctx, mirror+path, read)
		if err == nil || errors.Is(err, errNotFound) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("%s %s failed: %v", logcolors.LogMirror, mirror, err)
		lastErr = err
	}
	return fmt.Errorf("all %d mirrors failed: %w", len(c.mirrors), lastErr)
}

func (c *Client) get(ctx context.Context, requestURL string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return read(resp.Body)
}
