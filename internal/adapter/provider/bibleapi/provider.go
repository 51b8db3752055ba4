// Package bibleapi fetches chapters from the bible-api.com REST API.
package bibleapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
)

// SourceID identifies this adapter in the fallback chain and the rate limiter.
const SourceID = "bibleapi"

const (
	defaultBaseURL = "https://bible-api.com"
	maxBodyBytes   = 4 << 20
)

// codes maps our translation codes to the ones bible-api.com understands.
var codes = map[domain.Translation]string{
	domain.TranslationKJV:   "kjv",
	domain.TranslationASV:   "asv",
	domain.TranslationWEB:   "web",
	domain.TranslationYLT:   "ylt",
	domain.TranslationDARBY: "darby",
	domain.TranslationBBE:   "bbe",
	domain.TranslationWBT:   "webster",
}

// Provider fetches chapters from bible-api.com.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default bible-api.com URL.
func NewProvider(timeout time.Duration, logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, timeout, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL string, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", SourceID),
	}
}

// ID returns the source id.
func (p *Provider) ID() string { return SourceID }

// Supports reports whether the translation is available from this source.
func (p *Provider) Supports(tr domain.Translation) bool {
	_, ok := codes[tr]
	return ok
}

// Fetch returns the verses of one chapter.
func (p *Provider) Fetch(ctx context.Context, tr domain.Translation, book string, chapter int) ([]provider.RawVerse, error) {
	code, ok := codes[tr]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", SourceID, tr, provider.ErrUnsupported)
	}

	reqURL := p.baseURL + "/" + url.PathEscape(book+" "+strconv.Itoa(chapter)) + "?translation=" + url.QueryEscape(code)

	p.log.DebugContext(ctx, "bibleapi request", slog.String("book", book), slog.Int("chapter", chapter), slog.String("translation", code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", SourceID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", SourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, provider.NewHTTPError(SourceID, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", SourceID, err)
	}

	var ch apiChapter
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, &provider.ParseError{Source: SourceID, Err: err}
	}
	if ch.Error != "" {
		if strings.Contains(strings.ToLower(ch.Error), "too many requests") {
			return nil, &provider.HTTPError{Source: SourceID, Status: http.StatusTooManyRequests}
		}
		return nil, &provider.ParseError{Source: SourceID, Err: errors.New(ch.Error)}
	}
	if ch.Verses == nil {
		return nil, &provider.ParseError{Source: SourceID, Err: errors.New("missing verses array")}
	}

	verses := mapVerses(*ch.Verses, chapter)
	if len(verses) == 0 {
		return nil, fmt.Errorf("%s %s %s %d: %w", SourceID, tr, book, chapter, provider.ErrEmptyResult)
	}

	p.log.DebugContext(ctx, "bibleapi response",
		slog.String("reference", ch.Reference),
		slog.Int("verses", len(verses)),
	)

	return verses, nil
}

// mapVerses keeps the verses of the requested chapter. A passage request
// past the end of a chapter can spill into the next one.
func mapVerses(in []apiVerse, chapter int) []provider.RawVerse {
	out := make([]provider.RawVerse, 0, len(in))
	for _, v := range in {
		if v.Chapter != 0 && v.Chapter != chapter {
			continue
		}
		out = append(out, provider.RawVerse{Number: v.Verse, Text: v.Text})
	}
	return out
}
