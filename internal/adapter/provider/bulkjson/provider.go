// Package bulkjson serves chapters out of whole-translation JSON files. Each
// file is downloaded once per process and kept in memory, which makes this
// the cheapest source in the fallback chain.
package bulkjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
)

const SourceID = "bulkjson"

const (
	defaultBaseURL = "https://raw.githubusercontent.com/thiagobodruk/bible/master/json"
	maxBodyBytes   = 64 << 20
)

var utf8BOM = []byte("\xef\xbb\xbf")

// DefaultFiles maps translations to file names under the base URL.
func DefaultFiles() map[domain.Translation]string {
	return map[domain.Translation]string{
		domain.TranslationKJV: "en_kjv.json",
		domain.TranslationBBE: "en_bbe.json",
	}
}

// Provider serves chapters from cached translation files.
type Provider struct {
	baseURL    string
	files      map[domain.Translation]string
	httpClient *http.Client
	log        *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[domain.Translation][]apiBook
}

// NewProvider creates a Provider. Empty baseURL or files fall back to the
// defaults.
func NewProvider(baseURL string, files map[domain.Translation]string, timeout time.Duration, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if len(files) == 0 {
		files = DefaultFiles()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		files:      files,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", SourceID),
		cache:      make(map[domain.Translation][]apiBook),
	}
}

func (p *Provider) ID() string { return SourceID }

func (p *Provider) Supports(tr domain.Translation) bool {
	_, ok := p.files[tr]
	return ok
}

// Fetch returns the verses of one chapter from the cached file.
func (p *Provider) Fetch(ctx context.Context, tr domain.Translation, book string, chapter int) ([]provider.RawVerse, error) {
	file, ok := p.files[tr]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", SourceID, tr, provider.ErrUnsupported)
	}
	b, ok := domain.LookupBook(book)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", SourceID, domain.ErrUnknownBook, book)
	}

	books, err := p.load(ctx, tr, file)
	if err != nil {
		return nil, err
	}

	chapters := books[b.Number-1].Chapters
	if chapter < 1 || chapter > len(chapters) || len(chapters[chapter-1]) == 0 {
		return nil, fmt.Errorf("%s %s %s %d: %w", SourceID, tr, book, chapter, provider.ErrEmptyResult)
	}

	texts := chapters[chapter-1]
	verses := make([]provider.RawVerse, len(texts))
	for i, text := range texts {
		verses[i] = provider.RawVerse{Number: i + 1, Text: text}
	}
	return verses, nil
}

// load returns the parsed file for tr, downloading it on first use.
// Concurrent first calls share a single download; failures are not cached.
// The shared download is detached from any one caller's cancellation and is
// bounded by the HTTP client timeout instead; each caller still stops
// waiting when its own ctx is done.
func (p *Provider) load(ctx context.Context, tr domain.Translation, file string) ([]apiBook, error) {
	p.mu.RLock()
	books, ok := p.cache[tr]
	p.mu.RUnlock()
	if ok {
		return books, nil
	}

	dl := context.WithoutCancel(ctx)
	ch := p.group.DoChan(string(tr), func() (any, error) {
		p.mu.RLock()
		cached, ok := p.cache[tr]
		p.mu.RUnlock()
		if ok {
			return cached, nil
		}

		books, err := p.download(dl, file)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[tr] = books
		p.mu.Unlock()
		return books, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]apiBook), nil
	}
}

func (p *Provider) download(ctx context.Context, file string) ([]apiBook, error) {
	start := time.Now()
	reqURL := p.baseURL + "/" + file

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", SourceID, err)
	}

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
	body = bytes.TrimPrefix(body, utf8BOM)

	var books []apiBook
	if err := json.Unmarshal(body, &books); err != nil {
		return nil, &provider.ParseError{Source: SourceID, Err: err}
	}
	if len(books) != len(domain.Books()) {
		return nil, &provider.ParseError{Source: SourceID, Err: fmt.Errorf("expected %d books, got %d", len(domain.Books()), len(books))}
	}

	p.log.InfoContext(ctx, "translation file loaded",
		slog.String("file", file),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)

	return books, nil
}
