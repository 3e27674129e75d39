// Package kinto talks to the remote blocklist (Kinto) service: fetching the
// published snapshot, staging new records, and reading or moving the staging
// collection's review status.
package kinto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/addons-ops/blocktool/pkg/blocklist"
	"github.com/addons-ops/blocktool/pkg/collection"
)

// APIError reports a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client is the remote blocklist store as seen by the workflow. It also
// satisfies collection.Store.
type Client interface {
	FetchRecords(ctx context.Context) ([]*blocklist.Entry, error)
	CreateRecord(ctx context.Context, req blocklist.CreationRequest) error
	CollectionStatus(ctx context.Context) (collection.Status, error)
	SetCollectionStatus(ctx context.Context, status collection.Status) error
}

// Config holds the connection settings for a Kinto server.
type Config struct {
	Server        string // base URL including the /v1 prefix
	Bucket        string // published bucket the snapshot is read from
	StagingBucket string // bucket new records and status changes go to
	Collection    string
	Username      string
	Password      string
	Logger        *log.Logger
}

// HTTPClient implements Client over the Kinto HTTP API.
type HTTPClient struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *log.Logger
}

func NewClient(cfg Config) *HTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil
	return &HTTPClient{cfg: cfg, http: client, logger: logger}
}

type recordsResponse struct {
	Data []Record `json:"data"`
}

type collectionResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// FetchRecords downloads the published blocklist snapshot, following
// Next-Page headers until the listing is exhausted.
func (c *HTTPClient) FetchRecords(ctx context.Context) ([]*blocklist.Entry, error) {
	url := fmt.Sprintf("%s/buckets/%s/collections/%s/records", c.cfg.Server, c.cfg.Bucket, c.cfg.Collection)
	entries := make([]*blocklist.Entry, 0)
	for url != "" {
		c.logger.Debug("fetching records", "url", url)
		body, next, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}
		var page recordsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding records page: %w", err)
		}
		for _, record := range page.Data {
			entries = append(entries, record.Entry())
		}
		url = next
	}
	c.logger.Debug("snapshot fetched", "records", len(entries))
	return entries, nil
}

// CreateRecord stages one new blocklist record in the staging bucket.
func (c *HTTPClient) CreateRecord(ctx context.Context, req blocklist.CreationRequest) error {
	url := fmt.Sprintf("%s/buckets/%s/collections/%s/records", c.cfg.Server, c.cfg.StagingBucket, c.cfg.Collection)
	payload, err := json.Marshal(map[string]any{"data": RecordFrom(req)})
	if err != nil {
		return err
	}
	c.logger.Info("staging record", "guid", req.Guid)
	return c.write(ctx, http.MethodPost, url, payload)
}

// CollectionStatus reads the staging collection's review status.
func (c *HTTPClient) CollectionStatus(ctx context.Context) (collection.Status, error) {
	url := fmt.Sprintf("%s/buckets/%s/collections/%s", c.cfg.Server, c.cfg.StagingBucket, c.cfg.Collection)
	body, _, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	var resp collectionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding collection: %w", err)
	}
	return collection.Status(resp.Data.Status), nil
}

// SetCollectionStatus writes a new review status on the staging collection.
func (c *HTTPClient) SetCollectionStatus(ctx context.Context, status collection.Status) error {
	url := fmt.Sprintf("%s/buckets/%s/collections/%s", c.cfg.Server, c.cfg.StagingBucket, c.cfg.Collection)
	payload, err := json.Marshal(map[string]any{"data": map[string]string{"status": string(status)}})
	if err != nil {
		return err
	}
	c.logger.Info("setting collection status", "status", status)
	return c.write(ctx, http.MethodPatch, url, payload)
}

func (c *HTTPClient) get(ctx context.Context, url string) (body []byte, nextPage string, err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	res, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	body, err = io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, "", &APIError{StatusCode: res.StatusCode, Method: http.MethodGet, URL: url, Body: string(body)}
	}
	return body, res.Header.Get("Next-Page"), nil
}

func (c *HTTPClient) write(ctx context.Context, method, url string, payload []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return &APIError{StatusCode: res.StatusCode, Method: method, URL: url, Body: string(body)}
	}
	return nil
}

func (c *HTTPClient) do(req *retryablehttp.Request) (*http.Response, error) {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	return c.http.Do(req)
}
