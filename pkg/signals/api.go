package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/localrank/localrank/pkg/types"
)

// apiSource reads signals from a JSON HTTP provider exposing /search, /social
// and /reviews. The three requests run concurrently; any failure fails the
// whole fetch.
type apiSource struct {
	endpoint string
	client   *http.Client
}

func (s *apiSource) Fetch(ctx context.Context, name, address string) (*types.RawSignals, error) {
	q := url.Values{"name": {name}, "address": {address}}
	raw := &types.RawSignals{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.getJSON(gctx, "/search", q, &raw.SearchData)
	})
	g.Go(func() error {
		return s.getJSON(gctx, "/social", q, &raw.SocialMedia)
	})
	g.Go(func() error {
		return s.getJSON(gctx, "/reviews", q, &raw.Reviews)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if raw.SocialMedia == nil {
		raw.SocialMedia = map[types.Platform]types.SocialProfile{}
	}
	if raw.Reviews == nil {
		raw.Reviews = map[types.ReviewSource]types.ReviewStats{}
	}
	return raw, nil
}

// getJSON performs a GET on endpoint+path and decodes the body into dst.
func (s *apiSource) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := strings.TrimRight(s.endpoint, "/") + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("signals: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("signals: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signals: get %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("signals: decode %s: %w", path, err)
	}
	return nil
}
