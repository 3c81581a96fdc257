// Package bibdata resolves ISBNs to bibliographic metadata via the Open
// Library books API.
package bibdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/libriscan/libriscan/internal/isbn"
)

// ErrNotFound is returned when the API has no record for the ISBN.
var ErrNotFound = errors.New("no bibliographic record for ISBN")

// DefaultTimeout bounds one lookup round-trip.
const DefaultTimeout = 10 * time.Second

// Book is the subset of an Open Library record relevant to cataloguing.
type Book struct {
	ISBN        string   `json:"isbn"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	Publishers  []string `json:"publishers,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	PageCount   int      `json:"page_count,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
}

// Config holds lookup client settings.
type Config struct {
	Endpoint string // base URL, e.g. https://openlibrary.org
	Timeout  time.Duration
}

// Client queries the Open Library books endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient returns a lookup client. A nil httpClient uses
// http.DefaultClient; per-request deadlines come from the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://openlibrary.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, client: httpClient}
}

type olRecord struct {
	Title         string    `json:"title"`
	Authors       []olNamed `json:"authors"`
	Publishers    []olNamed `json:"publishers"`
	PublishDate   string    `json:"publish_date"`
	NumberOfPages int       `json:"number_of_pages"`
	Cover         struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

type olNamed struct {
	Name string `json:"name"`
}

// Lookup fetches the record for code, which must be a valid ISBN-10 or
// ISBN-13. ErrNotFound is returned when Open Library has no data for it.
func (c *Client) Lookup(ctx context.Context, code string) (*Book, error) {
	normalized := isbn.Normalize(code)
	if !isbn.Validate(normalized) {
		return nil, fmt.Errorf("invalid ISBN %q", code)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	bibkey := "ISBN:" + normalized
	query := url.Values{
		"bibkeys": {bibkey},
		"format":  {"json"},
		"jscmd":   {"data"},
	}
	reqURL := c.cfg.Endpoint + "/api/books?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("looking up %s: unexpected status %s", normalized, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading lookup response: %w", err)
	}

	var records map[string]olRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding lookup response: %w", err)
	}

	record, ok := records[bibkey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, normalized)
	}

	book := &Book{
		ISBN:        normalized,
		Title:       record.Title,
		PublishDate: record.PublishDate,
		PageCount:   record.NumberOfPages,
	}
	for _, a := range record.Authors {
		book.Authors = append(book.Authors, a.Name)
	}
	for _, p := range record.Publishers {
		book.Publishers = append(book.Publishers, p.Name)
	}
	if record.Cover.Medium != "" {
		book.CoverURL = record.Cover.Medium
	} else {
		book.CoverURL = record.Cover.Large
	}
	return book, nil
}
