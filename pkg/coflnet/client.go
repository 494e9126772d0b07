package coflnet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://sky.coflnet.com/api"

// Client talks to the Coflnet SkyBlock API. All calls are rate limited
// through a shared token bucket so backfill loops cannot outrun the API's
// tolerated request budget.
type Client struct {
	client      *resty.Client
	logger      *logrus.Logger
	rateLimiter *RateLimiter
}

type Config struct {
	BaseURL           string
	APIKey            string
	RequestTimeout    time.Duration
	RetryCount        int
	RetryWaitTime     time.Duration
	RequestsPerSecond int
}

func NewClient(config Config, logger *logrus.Logger) *Client {
	client := resty.New()

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client.SetBaseURL(baseURL)

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	retryWait := config.RetryWaitTime
	if retryWait <= 0 {
		retryWait = 1 * time.Second
	}
	client.SetRetryCount(config.RetryCount)
	client.SetRetryWaitTime(retryWait)
	client.SetHeader("Content-Type", "application/json")

	// Current API revisions accept anonymous requests. The bearer header is
	// only attached when a key is configured.
	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	return &Client{
		client:      client,
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RequestsPerSecond),
	}
}

// ListItemIDs fetches the catalog of tradable bazaar item tags.
func (c *Client) ListItemIDs(ctx context.Context) ([]string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := "/items/bazaar/tags"

	resp, err := c.client.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch bazaar item catalog")
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	var ids []string
	if err := json.Unmarshal(resp.Body(), &ids); err != nil {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "catalog is not a string array", Err: err}
	}

	c.logger.WithField("item_count", len(ids)).Info("Fetched bazaar item catalog")
	return ids, nil
}

// FetchSnapshot fetches the current all-items price snapshot, keyed by item
// tag. Entries are returned undecoded so one malformed product cannot sink
// the whole batch.
func (c *Client) FetchSnapshot(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := "/bazaar/snapshot"

	resp, err := c.client.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch bazaar snapshot")
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	products, err := decodeSnapshot(endpoint, resp.Body())
	if err != nil {
		return nil, err
	}

	c.logger.WithField("product_count", len(products)).Info("Fetched bazaar snapshot")
	return products, nil
}

// decodeSnapshot handles the two snapshot schemas the API has shipped: an
// envelope with a success flag and a products map, or the bare products map.
func decodeSnapshot(endpoint string, body []byte) (map[string]json.RawMessage, error) {
	var envelope struct {
		Success  *bool                      `json:"success"`
		Products map[string]json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Success != nil && !*envelope.Success {
			return nil, &ProtocolError{Endpoint: endpoint, Reason: "success flag is false"}
		}
		if envelope.Products != nil {
			return envelope.Products, nil
		}
		if envelope.Success != nil {
			return nil, &ProtocolError{Endpoint: endpoint, Reason: "envelope has no products"}
		}
	}

	var bare map[string]json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	return nil, &ProtocolError{Endpoint: endpoint, Reason: "unrecognized snapshot schema"}
}

// FetchHistory fetches the aggregated history of one item, optionally
// bounded to a window. Zero times leave the corresponding bound unset.
func (c *Client) FetchHistory(ctx context.Context, itemID string, from, to time.Time) ([]json.RawMessage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("/bazaar/%s/history", itemID)

	req := c.client.R().SetContext(ctx)
	if !from.IsZero() {
		req.SetQueryParam("from", strconv.FormatInt(from.UnixMilli(), 10))
	}
	if !to.IsZero() {
		req.SetQueryParam("to", strconv.FormatInt(to.UnixMilli(), 10))
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("item_id", itemID).Error("Failed to fetch item history")
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "history is not an entry array", Err: err}
	}

	return entries, nil
}

// Close releases the client's rate limiter. The client must not be used
// afterwards.
func (c *Client) Close() {
	c.rateLimiter.Stop()
}
