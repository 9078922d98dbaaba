package score

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/localrank/localrank/pkg/types"
)

// UserMessage is the message shown to end users when a calculation fails.
const UserMessage = "Failed to calculate SEO score. Please try again."

// DefaultFetchTimeout bounds a single data-source fetch when the caller does
// not configure one.
const DefaultFetchTimeout = 10 * time.Second

var (
	// ErrDataFetch matches every *DataFetchError via errors.Is.
	ErrDataFetch = errors.New("data fetch failed")

	ErrEmptyName    = errors.New("business name is required")
	ErrEmptyAddress = errors.New("business address is required")
)

// DataFetchError is the single failure kind surfaced by Calculate. It wraps
// whatever the data source returned (network, timeout, malformed response).
type DataFetchError struct {
	Err error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDataFetch, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// Is reports true for ErrDataFetch so callers need not know the concrete type.
func (e *DataFetchError) Is(target error) bool { return target == ErrDataFetch }

// Fetcher returns the raw signals for a business. It is satisfied by every
// signals.Source.
type Fetcher interface {
	Fetch(ctx context.Context, name, address string) (*types.RawSignals, error)
}

// Report is the outcome of one successful calculation.
type Report struct {
	Name            string                 `json:"name"`
	Address         string                 `json:"address"`
	Score           types.CompositeScore   `json:"score"`
	Rating          types.Rating           `json:"rating"`
	Recommendations []types.Recommendation `json:"recommendations"`
	CalculatedAt    time.Time              `json:"calculatedAt"`
}

// Calculator runs fetch → compute → recommend for one business at a time.
// A Calculator holds no per-call state and is safe for concurrent use.
type Calculator struct {
	fetcher Fetcher
	timeout time.Duration
	now     func() time.Time // injectable for deterministic tests
}

// NewCalculator returns a Calculator that bounds every fetch by timeout.
// A non-positive timeout selects DefaultFetchTimeout.
func NewCalculator(f Fetcher, timeout time.Duration) *Calculator {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Calculator{fetcher: f, timeout: timeout, now: time.Now}
}

// Calculate fetches the signals for a business and scores them.
//
// Any failure of the fetch, including the timeout and a nil result, is
// returned as *DataFetchError; no partial score is ever produced. Cancellation
// of ctx by the caller is reported the same way.
func (c *Calculator) Calculate(ctx context.Context, name, address string) (*Report, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.fetcher.Fetch(fetchCtx, name, address)
	if err != nil {
		return nil, &DataFetchError{Err: err}
	}
	if raw == nil {
		return nil, &DataFetchError{Err: errors.New("data source returned no signals")}
	}

	s := Compute(name, address, raw)
	return &Report{
		Name:            name,
		Address:         address,
		Score:           s,
		Rating:          Classify(s.Total),
		Recommendations: Recommend(s),
		CalculatedAt:    c.now().UTC(),
	}, nil
}

// ValidateInput rejects blank business names and addresses.
func ValidateInput(name, address string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(address) == "" {
		return ErrEmptyAddress
	}
	return nil
}
