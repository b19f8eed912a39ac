package pubmed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clinsights/pubscreen/internal/cache"
	"github.com/clinsights/pubscreen/internal/model"
	"github.com/clinsights/pubscreen/internal/util"
	"github.com/clinsights/pubscreen/internal/worker"
)

// ErrUnavailable marks publication-search provider failures: unreachable
// host, error status, or a payload that does not parse. Researchers hit
// by it are skipped, never silently given substitute data.
var ErrUnavailable = errors.New("publication search unavailable")

const (
	maxAttempts = 3
	retryDelay  = 500 * time.Millisecond
)

// sleepFunc is swapped in tests to avoid real backoff delays
var sleepFunc = time.Sleep

// Client searches PubMed through the NCBI E-utilities API: esearch for
// PMIDs, efetch for article metadata.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	tool        string
	email       string
	maxResults  int
	sort        string
	affiliation string
	maxBytes    int64
	userAgent   string
	store       cache.Cache     // nil = caching disabled
	limiter     *worker.Limiter // nil = unthrottled
	logger      *slog.Logger
}

// NewClient creates a PubMed client. The affiliation narrows every search
// to authors publishing under the host institution.
func NewClient(cfg model.PubMedConfig, httpCfg model.HTTPConfig, affiliation string, store cache.Cache, limiter *worker.Limiter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := httpCfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes == 0 {
		maxBytes = 8_000_000
	}
	userAgent := httpCfg.UserAgent
	if userAgent == "" {
		userAgent = "pubscreen/0.1 (+https://github.com/clinsights/pubscreen)"
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
	}
	if httpCfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		tool:        cfg.Tool,
		email:       cfg.Email,
		maxResults:  cfg.MaxResults,
		sort:        cfg.Sort,
		affiliation: affiliation,
		maxBytes:    maxBytes,
		userAgent:   userAgent,
		store:       store,
		limiter:     limiter,
		logger:      logger,
	}
}

// Search returns the researcher's publications, newest first, capped at
// the configured maximum. No publications is a normal empty result, not
// an error.
func (c *Client) Search(ctx context.Context, r model.Researcher) ([]model.Publication, error) {
	query := fmt.Sprintf("%s, %s[Author]", strings.TrimSpace(r.LastName), strings.TrimSpace(r.FirstName))
	if c.affiliation != "" {
		query += fmt.Sprintf(" AND %s[Affiliation]", c.affiliation)
	}

	ids, err := c.searchIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("pubmed search", slog.String("query", query), slog.Int("ids", len(ids)))
	if len(ids) == 0 {
		return nil, nil
	}

	return c.fetchArticles(ctx, ids)
}

// Ping verifies the provider answers at all; used by preflight checks
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", "cancer")
	params.Set("retmode", "json")
	params.Set("retmax", "0")

	body, err := c.get(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: esearch payload: %v", ErrUnavailable, err)
	}
	return nil
}

// searchIDs runs esearch and returns the matching PMIDs
func (c *Client) searchIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.maxResults))
	if c.sort != "" {
		params.Set("sort", c.sort)
	}

	body, err := c.get(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: esearch payload: %v", ErrUnavailable, err)
	}

	return resp.Result.IDList, nil
}

// fetchArticles runs efetch for the given PMIDs
func (c *Client) fetchArticles(ctx context.Context, ids []string) ([]model.Publication, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, c.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: efetch payload: %v", ErrUnavailable, err)
	}

	return set.publications(), nil
}

// get performs one cached, rate-limited GET. The cache key is derived
// from the canonical URL before etiquette parameters, so entries survive
// API key rotation.
func (c *Client) get(ctx context.Context, canonicalURL string) ([]byte, error) {
	key := cache.Key(canonicalURL)
	if c.store != nil {
		if body, ok := c.store.Get(key); ok {
			c.logger.Debug("pubmed cache hit", slog.String("url", canonicalURL))
			return body, nil
		}
	}

	requestURL := c.withEtiquette(canonicalURL)

	var body []byte
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			sleepFunc(time.Duration(attempt-1) * retryDelay)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, requestURL); err != nil {
				return nil, err
			}
		}

		var retryable bool
		body, retryable, lastErr = c.doRequest(ctx, requestURL)
		if lastErr == nil {
			break
		}
		c.logger.Debug("pubmed request failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
		if !retryable {
			return nil, lastErr
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if c.store != nil {
		if err := c.store.Set(key, body, 0); err != nil {
			c.logger.Warn("pubmed cache write failed", slog.String("error", err.Error()))
		}
	}

	return body, nil
}

// doRequest performs a single GET. The bool reports whether the failure
// is worth retrying: transport errors, 429 and 5xx are transient; any
// other error status is not
func (c *Client) doRequest(ctx context.Context, requestURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return body, false, nil
}

// withEtiquette appends the NCBI etiquette parameters to a request URL
func (c *Client) withEtiquette(rawURL string) string {
	extra := url.Values{}
	if c.tool != "" {
		extra.Set("tool", c.tool)
	}
	if c.email != "" {
		extra.Set("email", c.email)
	}
	if c.apiKey != "" {
		extra.Set("api_key", c.apiKey)
	}
	if len(extra) == 0 {
		return rawURL
	}
	return rawURL + "&" + extra.Encode()
}
