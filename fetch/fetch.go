// Package fetch issues the single proxied GET that retrieves the congestion
// page. The target sits behind bot protection, so requests are routed
// through a fetch-bypass service; the service call either completes with a
// status code for the validator to judge, or fails at the transport level.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/minsoo-dev/libcrowd/config"
	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/result"
)

// Client wraps a colly collector around the proxy service.
type Client struct {
	cfg  *config.Config
	base *colly.Collector
	now  func() time.Time
}

// NewClient validates credentials and builds the collector. It fails fast,
// before any network activity, when the key or target URL is blank.
func NewClient(cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrConfig{Err: fmt.Errorf("api key is empty")}
	}
	if strings.TrimSpace(cfg.TargetURL) == "" {
		return nil, ErrConfig{Err: fmt.Errorf("target URL is empty")}
	}
	if _, err := url.Parse(cfg.TargetURL); err != nil {
		return nil, ErrConfig{Err: fmt.Errorf("parse target URL: %w", err)}
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	// The validator, not the transport, judges success: non-2xx bodies must
	// be delivered as responses, not surfaced as errors.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Client{cfg: cfg, base: collector, now: gate.Now}, nil
}

// WithTransport swaps the underlying round tripper, for tests.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.base.WithTransport(rt)
}

// WithClock swaps the timestamp source, for tests.
func (c *Client) WithClock(now func() time.Time) {
	c.now = now
}

// ProxyURL builds the bypass-service request URL embedding the target.
func (c *Client) ProxyURL() string {
	query := url.Values{}
	query.Set("api_key", c.cfg.APIKey)
	query.Set("url", c.cfg.TargetURL)
	return strings.TrimSuffix(c.cfg.ProxyBase, "?") + "?" + query.Encode()
}

// Fetch performs exactly one GET through the proxy. Any completed HTTP
// exchange, 2xx or not, yields Ok; only transport failures yield Err. There
// are no retries — a failed fetch waits for the next scheduled invocation.
func (c *Client) Fetch(ctx context.Context) result.Result[models.FetchResult] {
	timestamp := c.now().In(gate.Location).Format(models.TimestampLayout)

	var (
		fetched      models.FetchResult
		completed    bool
		transportErr error
	)

	collector := c.base.Clone()
	collector.OnResponse(func(r *colly.Response) {
		fetched = models.FetchResult{
			Timestamp:  timestamp,
			RawContent: string(r.Body),
			StatusCode: r.StatusCode,
		}
		completed = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		// ParseHTTPErrorResponse keeps status errors out of this path, so
		// anything landing here is a genuine transport failure.
		transportErr = classifyError(err)
	})

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return result.Err[models.FetchResult](ErrTransport{Err: err})
		}
	}

	if err := collector.Visit(c.ProxyURL()); err != nil {
		return result.Err[models.FetchResult](classifyError(err))
	}
	collector.Wait()

	if !completed {
		if transportErr == nil {
			transportErr = ErrTransport{Err: fmt.Errorf("no response received")}
		}
		return result.Err[models.FetchResult](transportErr)
	}
	return result.Ok(fetched)
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrConnection{Err: err}
	}
	return ErrTransport{Err: err}
}
