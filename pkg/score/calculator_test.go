package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrank/localrank/pkg/types"
)

type fetcherFunc func(ctx context.Context, name, address string) (*types.RawSignals, error)

func (f fetcherFunc) Fetch(ctx context.Context, name, address string) (*types.RawSignals, error) {
	return f(ctx, name, address)
}

func fixedSignals(raw *types.RawSignals) Fetcher {
	return fetcherFunc(func(context.Context, string, string) (*types.RawSignals, error) {
		return raw, nil
	})
}

func TestCalculator_Success(t *testing.T) {
	raw := signals(20,
		[]types.Platform{types.Facebook, types.Instagram},
		types.ReviewStats{Rating: 4.5, Count: 120},
		types.ReviewStats{Rating: 4.0, Count: 60},
	)
	c := NewCalculator(fixedSignals(raw), time.Second)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	rep, err := c.Calculate(context.Background(), "Joe's Pizza Place", "123 Main St, Springfield, IL, 62704")
	require.NoError(t, err)

	assert.Equal(t, 54, rep.Score.Total)
	assert.Equal(t, LabelFair, rep.Rating.Label)
	require.Len(t, rep.Recommendations, 1)
	assert.Equal(t, "No profile found on: twitter, linkedin", rep.Recommendations[0].Message)
	assert.Equal(t, at, rep.CalculatedAt)
	assert.Equal(t, "Joe's Pizza Place", rep.Name)
}

func TestCalculator_FetchErrorIsDataFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	c := NewCalculator(fetcherFunc(func(context.Context, string, string) (*types.RawSignals, error) {
		return nil, boom
	}), time.Second)

	rep, err := c.Calculate(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrDataFetch)
	assert.ErrorIs(t, err, boom)

	var dfe *DataFetchError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, boom, dfe.Err)
}

func TestCalculator_NilSignalsIsDataFetchError(t *testing.T) {
	c := NewCalculator(fixedSignals(nil), time.Second)
	_, err := c.Calculate(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestCalculator_Timeout(t *testing.T) {
	c := NewCalculator(fetcherFunc(func(ctx context.Context, _, _ string) (*types.RawSignals, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond)

	start := time.Now()
	_, err := c.Calculate(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrDataFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCalculator_CallerCancellation(t *testing.T) {
	c := NewCalculator(fetcherFunc(func(ctx context.Context, _, _ string) (*types.RawSignals, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Calculate(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrDataFetch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCalculator_DefaultTimeout(t *testing.T) {
	c := NewCalculator(fixedSignals(nil), 0)
	assert.Equal(t, DefaultFetchTimeout, c.timeout)
}

func TestValidateInput(t *testing.T) {
	assert.NoError(t, ValidateInput("Joe's", "1 Main St"))
	assert.ErrorIs(t, ValidateInput("  ", "1 Main St"), ErrEmptyName)
	assert.ErrorIs(t, ValidateInput("Joe's", ""), ErrEmptyAddress)
}
