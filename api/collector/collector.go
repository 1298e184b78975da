// Package collector pages through the gov.il DynamicCollector API and returns the
// raw travel-warning records.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/morikuni/failure/v2"
	"github.com/travelwarn/travelwarn/log"
	"golang.org/x/time/rate"
)

// ErrorCode defines error types for collector requests
type ErrorCode string

const (
	// ErrRequestFailed covers transport errors and timeouts
	ErrRequestFailed ErrorCode = "CollectorRequestFailed"
	// ErrUnexpectedStatus is a non-2xx response
	ErrUnexpectedStatus ErrorCode = "CollectorUnexpectedStatus"
	// ErrMalformedResponse is a body that is not the expected JSON object
	ErrMalformedResponse ErrorCode = "CollectorMalformedResponse"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

const (
	DefaultEndpoint  = "https://www.gov.il/he/api/DynamicCollector"
	DefaultBatchSize = 10
	DefaultPause     = 200 * time.Millisecond
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0"
)

// DefaultTemplateID identifies the travel-warnings collection.
var DefaultTemplateID = uuid.MustParse("a591accc-14b7-4be8-a7b7-395ca588db53")

// Record is one raw result object as returned by the API.
// Numbers are kept as json.Number.
type Record = map[string]any

// Page is a single API response.
type Page struct {
	TotalResults int      `json:"TotalResults"`
	Results      []Record `json:"Results"`
}

type skipFilter struct {
	Query int `json:"Query"`
}

type queryFilters struct {
	Skip skipFilter `json:"skip"`
}

// pageRequest is the POST body. From repeats the skip offset; the API wants both.
type pageRequest struct {
	DynamicTemplateID uuid.UUID    `json:"DynamicTemplateID"`
	QueryFilters      queryFilters `json:"QueryFilters"`
	From              int          `json:"From"`
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	Endpoint   string
	TemplateID uuid.UUID
	BatchSize  int
	Pause      time.Duration
	Timeout    time.Duration
	UserAgent  string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches pages from the collector.
type Client struct {
	endpoint   string
	templateID uuid.UUID
	batchSize  int
	pause      time.Duration
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		endpoint:   opts.Endpoint,
		templateID: opts.TemplateID,
		batchSize:  opts.BatchSize,
		pause:      opts.Pause,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		logger:     log.Or(opts.Logger).With("component", "collector"),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.templateID == uuid.Nil {
		c.templateID = DefaultTemplateID
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}
	if c.pause < 0 {
		c.pause = 0
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: log.HTTPTransport(nil),
		}
	}
	return c
}

// FetchPage requests the page starting at offset.
func (c *Client) FetchPage(ctx context.Context, offset int) (Page, error) {
	body, err := json.Marshal(pageRequest{
		DynamicTemplateID: c.templateID,
		QueryFilters:      queryFilters{Skip: skipFilter{Query: offset}},
		From:              offset,
	})
	if err != nil {
		return Page{}, failure.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Page{}, failure.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The collector rejects Go's default user agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, failure.Wrap(err, failure.WithCode(ErrRequestFailed),
			failure.Message("Request to travel-warnings collector failed"),
			failure.Context{"offset": strconv.Itoa(offset)},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, failure.New(ErrUnexpectedStatus,
			failure.Message(fmt.Sprintf("Travel-warnings collector returned %s", resp.Status)),
			failure.Context{
				"offset": strconv.Itoa(offset),
				"body":   string(snippet),
			},
		)
	}

	var page Page
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return Page{}, failure.Wrap(err, failure.WithCode(ErrMalformedResponse),
			failure.Message("Travel-warnings collector returned an unreadable response"),
			failure.Context{"offset": strconv.Itoa(offset)},
		)
	}
	return page, nil
}

// FetchAll pages through the collection until the reported total is reached or a
// page comes back empty. Requests are spaced at least the configured pause apart.
// Any failure aborts the walk and nothing fetched so far is returned.
func (c *Client) FetchAll(ctx context.Context) ([]Record, error) {
	// One token per pause, burst 1: the first request goes out immediately.
	limiter := rate.NewLimiter(rate.Every(c.pause), 1)

	fetch := func(offset int) (Page, error) {
		if err := limiter.Wait(ctx); err != nil {
			return Page{}, failure.Wrap(err, failure.WithCode(ErrRequestFailed),
				failure.Message("Interrupted while waiting between batches"),
				failure.Context{"offset": strconv.Itoa(offset)},
			)
		}
		c.logger.Debug("Fetching batch", "offset", offset)
		return c.FetchPage(ctx, offset)
	}

	first, err := fetch(0)
	if err != nil {
		return nil, err
	}
	total := first.TotalResults
	if total <= 0 {
		c.logger.Info("Collector reported no results", "total", total)
		return []Record{}, nil
	}

	out := make([]Record, 0, len(first.Results))
	out = append(out, first.Results...)

	for offset := c.batchSize; offset < total; offset += c.batchSize {
		page, err := fetch(offset)
		if err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			c.logger.Warn("Empty batch before reported total, stopping",
				"offset", offset,
				"total", total,
				"fetched", len(out),
			)
			break
		}
		out = append(out, page.Results...)
	}

	c.logger.Info("Fetched travel warnings", "records", len(out), "total", total)
	return out, nil
}
