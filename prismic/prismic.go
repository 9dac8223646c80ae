// Package prismic is a small read-only client for the Prismic REST API v2.
// It implements the two queries the site needs: every document of a type,
// and one document of a type by UID.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPageSize is the number of results requested per page (the API maximum).
const DefaultPageSize = 100

// ErrNotFound is returned by GetByUID when no document matches.
var ErrNotFound = errors.New("prismic: document not found")

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("prismic: api returned %d: %s", e.StatusCode, e.Message)
}

// Document is a raw document as returned by the API. Data is left undecoded;
// its shape depends on the custom type.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Lang                 string          `json:"lang,omitempty"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of query results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	Results          []Document `json:"results"`
}

type apiInfo struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// Client queries one Prismic repository. It has no global state; create one
// per repository and share it.
type Client struct {
	endpoint string
	token    string
	pageSize int
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the access token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPageSize sets the page size used by GetByType.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a client for endpoint, e.g.
// "https://spacetraveling.cdn.prismic.io/api/v2".
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("prismic: invalid endpoint %q", endpoint)
	}
	c := &Client{
		endpoint: strings.TrimRight(u.String(), "/"),
		pageSize: DefaultPageSize,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetByType returns one page (1-based) of documents of docType.
func (c *Client) GetByType(ctx context.Context, docType string, page int) (*Response, error) {
	if !identPattern.MatchString(docType) {
		return nil, fmt.Errorf("prismic: invalid document type %q", docType)
	}
	if page < 1 {
		page = 1
	}
	return c.query(ctx, fmt.Sprintf("[[at(document.type,%s)]]", strconv.Quote(docType)), page)
}

// GetByUID returns the document of docType whose UID is uid, or ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*Document, error) {
	if !identPattern.MatchString(docType) {
		return nil, fmt.Errorf("prismic: invalid document type %q", docType)
	}
	resp, err := c.query(ctx, fmt.Sprintf("[[at(my.%s.uid,%s)]]", docType, strconv.Quote(uid)), 1)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	doc := resp.Results[0]
	return &doc, nil
}

func (c *Client) query(ctx context.Context, predicate string, page int) (*Response, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("ref", ref)
	q.Set("q", predicate)
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if c.token != "" {
		q.Set("access_token", c.token)
	}
	var resp Response
	if err := c.getJSON(ctx, c.endpoint+"/documents/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// masterRef resolves the ref of the published content release.
func (c *Client) masterRef(ctx context.Context) (string, error) {
	target := c.endpoint
	if c.token != "" {
		target += "?" + url.Values{"access_token": {c.token}}.Encode()
	}
	var info apiInfo
	if err := c.getJSON(ctx, target, &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", fmt.Errorf("prismic: api returned no master ref")
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("prismic: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prismic: request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{StatusCode: res.StatusCode, Message: errorMessage(res.Body)}
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("prismic: decode response: %w", err)
	}
	return nil
}

func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
