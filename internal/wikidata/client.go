// Package wikidata ingests candidate sites from the public linked-data
// query service for reconciliation against the normalized station set.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rasdb/internal"
	"rasdb/internal/config"
)

// siteQuery is the one bounded query this tool issues: every entity that
// is an instance of one of a fixed set of radio-astronomy site classes,
// with its country and coordinate location when present, ordered by label.
const siteQuery = `
SELECT ?site ?siteLabel ?countryLabel ?coord WHERE {
  VALUES ?class { wd:Q184356 wd:Q1254933 wd:Q349772 }
  ?site wdt:P31 ?class .
  OPTIONAL { ?site wdt:P17 ?country . }
  OPTIONAL { ?site wdt:P625 ?coord . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
ORDER BY ASC(?siteLabel)
`

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.WikidataTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.WikidataRateLimitRPS),
	}
}

// FetchSites runs the site query and returns one pending candidate per
// result row, in result order. Duplicate entities are kept as returned.
func (c *Client) FetchSites(ctx context.Context) ([]internal.CandidateRecord, error) {
	body, err := c.fetchJSON(ctx, siteQuery)
	if err != nil {
		return nil, err
	}

	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode sparql response: %w", err)
	}

	out := make([]internal.CandidateRecord, 0, len(resp.Results.Bindings))
	for _, binding := range resp.Results.Bindings {
		candidate := internal.CandidateRecord{
			Name:    binding["siteLabel"].Value,
			Country: binding["countryLabel"].Value,
			URI:     binding["site"].Value,
			Status:  internal.LinkPending,
		}
		if candidate.Name == "" {
			candidate.Name = labelFromURI(candidate.URI)
		}
		if lon, lat, err := ParsePoint(binding["coord"].Value); err == nil {
			candidate.Longitude = lon
			candidate.Latitude = lat
		}
		out = append(out, candidate)
	}

	return out, nil
}

func (c *Client) fetchJSON(ctx context.Context, query string) ([]byte, error) {
	u, err := url.Parse(c.cfg.WikidataEndpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", strings.TrimSpace(query))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.WikidataUserAgent)
		req.Header.Set("Accept", "application/sparql-results+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("sparql status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("sparql endpoint error: status=%d body=%s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("sparql request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ParsePoint parses a WKT point literal "Point(lon lat)" into coordinates.
// An empty literal means the entity has no coordinate location; both values
// come back absent.
func ParsePoint(literal string) (*float64, *float64, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return nil, nil, nil
	}

	inner, ok := strings.CutPrefix(literal, "Point(")
	if !ok {
		return nil, nil, fmt.Errorf("not a point literal: %q", literal)
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return nil, nil, fmt.Errorf("not a point literal: %q", literal)
	}

	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("malformed point literal: %q", literal)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed longitude in %q: %w", literal, err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed latitude in %q: %w", literal, err)
	}
	return &lon, &lat, nil
}

func labelFromURI(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
