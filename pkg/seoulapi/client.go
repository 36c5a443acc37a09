// Package seoulapi is a client for the Seoul Open API realtime parking service.
package seoulapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/pkg/httpclient"
)

const (
	DefaultBaseURL = "http://openapi.seoul.go.kr:8088"
	ServiceName    = "SearchParkingInfoRealtime"
	ResponseType   = "json"

	DefaultPageStart = 1
	DefaultPageEnd   = 10
	DefaultTimeout   = 15 * time.Second

	CodeOK     = "INFO-000"
	CodeNoData = "INFO-200"
)

// Client performs SearchParkingInfoRealtime lookups.
type Client struct {
	http    httpclient.Client
	baseURL string
	apiKey  string
	start   int
	end     int
	log     logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(base string) Option {
	return func(cl *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			cl.baseURL = base
		}
	}
}

// WithPage sets the 1-based inclusive row window.
func WithPage(start, end int) Option {
	return func(cl *Client) {
		cl.start, cl.end = start, end
	}
}

func WithLogger(log logger.Logger) Option {
	return func(cl *Client) { cl.log = logger.Ensure(log) }
}

// New builds a client for the given API key.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("seoulapi: api key is empty")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		start:   DefaultPageStart,
		end:     DefaultPageEnd,
		log:     &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(DefaultTimeout)
	}
	if c.start < 1 || c.end < c.start {
		return nil, fmt.Errorf("seoulapi: invalid page bounds %d..%d", c.start, c.end)
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("seoulapi: parse base url: %w", err)
	}
	return c, nil
}

// BuildURL renders {base}/{key}/json/SearchParkingInfoRealtime/{start}/{end}/{district}.
// Every segment is path-escaped so the district occupies exactly one segment.
func (c *Client) BuildURL(district string) (string, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return "", ErrEmptyDistrict
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("seoulapi: parse base url: %w", err)
	}

	segments := []string{c.apiKey, ResponseType, ServiceName, strconv.Itoa(c.start), strconv.Itoa(c.end), district}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	basePath := strings.TrimRight(u.Path, "/")
	baseRaw := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = basePath + "/" + strings.Join(segments, "/")
	u.RawPath = baseRaw + "/" + strings.Join(escaped, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// Fetch performs one GET for district and decodes the response.
// It never retries. Failures match ErrFetchFailed; INFO-200 returns ErrNoData.
func (c *Client) Fetch(ctx context.Context, district string) (Data, error) {
	endpoint, err := c.BuildURL(district)
	if err != nil {
		return Data{}, err
	}
	district = strings.TrimSpace(district)

	start := time.Now()
	resp, err := c.http.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return Data{}, &FetchError{Kind: KindNetwork, District: district, Err: err}
	}

	body := resp.Body()
	status := resp.StatusCode()
	c.log.DebugObj("parking api responded", "seoulapi_response", map[string]any{
		"district":    district,
		"status":      status,
		"bytes":       len(body),
		"elapsed_ms":  time.Since(start).Milliseconds(),
		"service":     ServiceName,
		"page_window": fmt.Sprintf("%d-%d", c.start, c.end),
	})

	if status < 200 || status > 299 {
		return Data{}, &FetchError{
			Kind:       KindStatus,
			District:   district,
			StatusCode: status,
			Err:        errors.New(bodySummary(body, resp.Header("Content-Type"))),
		}
	}

	data, err := Decode(body)
	if err != nil {
		if res, ok := markupResult(body); ok {
			return Data{}, resultError(district, res)
		}
		return Data{}, &FetchError{Kind: KindDecode, District: district, StatusCode: status, Err: err}
	}

	switch code := data.Code(); code {
	case CodeOK, "":
		return data, nil
	default:
		return Data{}, resultError(district, Result{Code: code, Message: data.Message()})
	}
}

// Outcome is the single-shot result of FetchAsync.
type Outcome struct {
	Data Data
	Err  error
}

// FetchAsync runs Fetch on its own goroutine and delivers exactly one Outcome.
// Cancelling ctx aborts the in-flight request.
func (c *Client) FetchAsync(ctx context.Context, district string) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		data, err := c.Fetch(ctx, district)
		out <- Outcome{Data: data, Err: err}
	}()
	return out
}

// Decode parses a response body. It returns the zero Data on any error.
func Decode(body []byte) (Data, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Data{}, errors.New("empty response body")
	}

	var data Data
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return Data{}, fmt.Errorf("decode %s response: %w", ServiceName, err)
	}
	if data.SearchParkingInfoRealtime == nil && data.Result == nil {
		return Data{}, fmt.Errorf("decode %s response: missing %s envelope", ServiceName, ServiceName)
	}
	return data, nil
}

func resultError(district string, res Result) error {
	if res.Code == CodeNoData {
		return fmt.Errorf("%w: %s %s", ErrNoData, district, strings.TrimSpace(res.Message))
	}
	msg := strings.TrimSpace(res.Message)
	if msg == "" {
		msg = "unexpected result code"
	}
	return &FetchError{Kind: KindAPI, District: district, Code: res.Code, Err: errors.New(msg)}
}
