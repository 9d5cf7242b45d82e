// Package notifier forwards recent marketplace sales to a notification sink
package notifier

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/screwyprof/sortition/pkg/clock"
	"github.com/screwyprof/sortition/pkg/opensea"
)

// Sentinel errors for notifier operations
var (
	ErrFetchFailed     = errors.New("fetching sales failed")
	ErrInvalidSale     = errors.New("invalid sale")
	ErrSendFailed      = errors.New("sending sale failed")
	ErrInvalidLookback = errors.New("lookback must be positive")
)

// DefaultMaxPages bounds how many feed pages one run reads
const DefaultMaxPages = 10

// SalesSource lists successful sales, newest first
type SalesSource interface {
	GetEvents(ctx context.Context, req opensea.EventsRequest) (*opensea.EventsPage, error)
}

// Sink delivers one sale
type Sink interface {
	Send(ctx context.Context, sale Sale) error
}

// Clock abstracts time for production and testing
type Clock interface {
	Now() time.Time
}

// Summary describes one run
type Summary struct {
	Since     time.Time
	Pages     int
	Fetched   int
	Sent      int
	Truncated bool // more pages remained after MaxPages
}

// Option configures the Service
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMaxPages caps the number of pages fetched per run
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithContractAddress narrows the feed to one asset contract
func WithContractAddress(address string) Option {
	return func(s *Service) { s.contractAddress = address }
}

// Service runs the sale feed → sink pipeline
type Service struct {
	source          SalesSource
	sink            Sink
	clock           Clock
	collectionSlug  string
	contractAddress string
	lookbackSeconds int64
	maxPages        int
}

// NewService constructs a Service forwarding sales of collectionSlug from the last lookbackSeconds
func NewService(source SalesSource, sink Sink, collectionSlug string, lookbackSeconds int64, opts ...Option) *Service {
	s := &Service{
		source:          source,
		sink:            sink,
		clock:           clock.SystemClock{},
		collectionSlug:  collectionSlug,
		lookbackSeconds: lookbackSeconds,
		maxPages:        DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run fetches the window's sales and sends them oldest first.
// Every sale is converted before the first send, so a malformed
// sale fails the run without partial delivery. A send failure
// stops the run; Summary.Sent counts what was delivered.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if s.lookbackSeconds <= 0 {
		return Summary{}, fmt.Errorf("%w: %d", ErrInvalidLookback, s.lookbackSeconds)
	}

	summary := Summary{Since: s.clock.Now().Add(-time.Duration(s.lookbackSeconds) * time.Second)}

	sales, err := s.fetch(ctx, &summary)
	if err != nil {
		return summary, err
	}

	for _, sale := range sales {
		if err := s.sink.Send(ctx, sale); err != nil {
			return summary, fmt.Errorf("%w: %q: %w", ErrSendFailed, sale.Name, err)
		}
		summary.Sent++
	}

	return summary, nil
}

func (s *Service) fetch(ctx context.Context, summary *Summary) ([]Sale, error) {
	req := opensea.EventsRequest{
		CollectionSlug:  s.collectionSlug,
		ContractAddress: s.contractAddress,
		OccurredAfter:   summary.Since,
	}

	var sales []Sale
	for {
		page, err := s.source.GetEvents(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrFetchFailed, summary.Pages+1, err)
		}
		summary.Pages++
		summary.Fetched += len(page.Events)

		for _, ev := range page.Events {
			sale, err := NewSale(ev)
			if err != nil {
				return nil, err
			}
			sales = append(sales, sale)
		}

		if page.Next == "" {
			break
		}
		if summary.Pages >= s.maxPages {
			summary.Truncated = true
			break
		}
		req.Cursor = page.Next
	}

	// the feed is newest first
	slices.Reverse(sales)
	slices.SortStableFunc(sales, func(a, b Sale) int { return a.Timestamp.Compare(b.Timestamp) })

	return sales, nil
}
