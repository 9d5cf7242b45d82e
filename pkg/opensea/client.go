// Package opensea reads completed sales from the OpenSea events API
package opensea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.opensea.io"

	// SharedStorefrontAddress is the contract shared by lazily minted collections;
	// filtering on it would match every storefront collection
	SharedStorefrontAddress = "0x495f947276749Ce646f68AC8c248420045cb7b5e"

	eventsPath = "/api/v1/events"
)

// Sentinel errors for client operations
var (
	ErrRequest          = errors.New("opensea request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecode           = errors.New("decoding opensea response")
)

// Client represents an OpenSea API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithAPIKey sends key in the X-API-KEY header; empty keys are ignored
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates an OpenSea client with a custom HTTP client and base URL
func NewClient(httpClient *http.Client, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventsRequest represents parameters for listing successful sales
type EventsRequest struct {
	CollectionSlug  string
	ContractAddress string // omitted when empty or the shared storefront
	OccurredAfter   time.Time
	Cursor          string // "next" from the previous page
}

// EventsPage is one page of sales, newest first
type EventsPage struct {
	Events []AssetEvent `json:"asset_events"`
	Next   string       `json:"next"`
}

// AssetEvent is a successful sale as returned by the API
type AssetEvent struct {
	Asset         Asset    `json:"asset"`
	TotalPrice    string   `json:"total_price"` // wei, decimal string
	WinnerAccount *Account `json:"winner_account"`
	Seller        *Account `json:"seller"`
	CreatedDate   Time     `json:"created_date"`
}

type Asset struct {
	Name       string     `json:"name"`
	Permalink  string     `json:"permalink"`
	ImageURL   string     `json:"image_url"`
	Collection Collection `json:"collection"`
}

type Collection struct {
	ImageURL string `json:"image_url"`
}

type Account struct {
	Address string `json:"address"`
}

// AddressOrEmpty returns the account address, or "" for a missing account
func (a *Account) AddressOrEmpty() string {
	if a == nil {
		return ""
	}
	return a.Address
}

// GetEvents retrieves one page of successful sales
func (c *Client) GetEvents(ctx context.Context, req EventsRequest) (*EventsPage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+eventsPath+"?"+eventsQuery(req).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrRequest, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var page EventsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &page, nil
}

func eventsQuery(req EventsRequest) url.Values {
	q := url.Values{}
	q.Set("event_type", "successful")
	q.Set("only_opensea", "false")
	q.Set("occurred_after", strconv.FormatInt(req.OccurredAfter.Unix(), 10))
	if req.CollectionSlug != "" {
		q.Set("collection_slug", req.CollectionSlug)
	}
	if req.ContractAddress != "" && !strings.EqualFold(req.ContractAddress, SharedStorefrontAddress) {
		q.Set("asset_contract_address", req.ContractAddress)
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	return q
}

// Time parses created_date, which the API sends in UTC without a zone suffix
type Time struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("created_date %q: unknown format", s)
}
