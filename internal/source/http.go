package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gauge-analytics/influence/internal/domain"
)

// HTTPSource fetches the raw JSON arrays over HTTP. Transient failures are
// retried with exponential backoff here, at the collaborator boundary; the
// core itself never retries.
type HTTPSource struct {
	client     *http.Client
	endpoint   string
	maxRetries uint64
}

// NewHTTPSource creates an HTTP data source.
func NewHTTPSource(cfg domain.SourceConfig) *HTTPSource {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &HTTPSource{
		client:     &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		maxRetries: uint64(retries),
	}
}

// Fetch retrieves <endpoint>/<resource>.json.
func (s *HTTPSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := validResource(resource); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s.json", s.endpoint, resource)

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return fmt.Errorf("fetch %s: status %d", resource, resp.StatusCode)
		default:
			// Client errors will not heal on retry.
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", resource, resp.StatusCode))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return body, nil
}

// Ping issues a single request for the brands resource without retrying.
func (s *HTTPSource) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s.json", s.endpoint, domain.ResourceBrands)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no pinned connections worth
// tracking.
func (s *HTTPSource) Close() error {
	return nil
}
