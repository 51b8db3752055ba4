// Package bolls fetches chapters from the bolls.life API. Its verse text
// carries inline HTML and Strong's numbers.
package bolls

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
)

const SourceID = "bolls"

const (
	defaultBaseURL = "https://bolls.life"
	maxBodyBytes   = 4 << 20
)

var codes = map[domain.Translation]string{
	domain.TranslationKJV:   "KJV",
	domain.TranslationNKJV:  "NKJV",
	domain.TranslationASV:   "ASV",
	domain.TranslationWEB:   "WEB",
	domain.TranslationYLT:   "YLT",
	domain.TranslationDARBY: "DARBY",
	domain.TranslationBBE:   "BBE",
	domain.TranslationWBT:   "WBT",
	domain.TranslationNIV:   "NIV",
	domain.TranslationESV:   "ESV",
	domain.TranslationNASB:  "NASB",
	domain.TranslationNLT:   "NLT",
	domain.TranslationCSB:   "CSB17",
	domain.TranslationNRSV:  "NRSVCE",
	domain.TranslationRSV:   "RSV",
	domain.TranslationAMP:   "AMP",
	domain.TranslationMSG:   "MSG",
}

// strongs matches inline Strong's numbers such as <S>7225</S>.
var strongs = regexp.MustCompile(`(?i)<s>\s*\d+\s*</s>`)

type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

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

func (p *Provider) ID() string { return SourceID }

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
	b, ok := domain.LookupBook(book)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", SourceID, domain.ErrUnknownBook, book)
	}

	reqURL := fmt.Sprintf("%s/get-text/%s/%d/%d/", p.baseURL, code, b.Number, chapter)

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

	var raw []apiVerse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &provider.ParseError{Source: SourceID, Err: err}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s %s %s %d: %w", SourceID, tr, book, chapter, provider.ErrEmptyResult)
	}

	verses := make([]provider.RawVerse, 0, len(raw))
	for _, v := range raw {
		verses = append(verses, provider.RawVerse{
			Number: v.Verse,
			Text:   strongs.ReplaceAllString(v.Text, ""),
		})
	}

	p.log.DebugContext(ctx, "bolls response",
		slog.String("translation", code),
		slog.String("book", book),
		slog.Int("chapter", chapter),
		slog.Int("verses", len(verses)),
	)

	return verses, nil
}
