package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

const maxPayloadBytes = 8 << 20

// HTTPClient fetches period payloads from the metrics collaborator over HTTP.
type HTTPClient struct {
	baseURL      string
	serviceToken string
	base         http.RoundTripper
	timeout      time.Duration
}

// NewHTTPClient constructs a client. serviceToken is used when a query carries no credential.
func NewHTTPClient(baseURL, serviceToken string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		base:         http.DefaultTransport,
		timeout:      timeout,
	}
}

// WithTransport swaps the underlying round tripper.
func (c *HTTPClient) WithTransport(rt http.RoundTripper) *HTTPClient {
	if rt != nil {
		c.base = rt
	}
	return c
}

// Fetch implements dashboard.Fetcher.
func (c *HTTPClient) Fetch(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
	endpoint, err := c.endpoint(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client(q.Credential).Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", dashboard.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: metrics returned status %d", dashboard.ErrTransport, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", dashboard.ErrTransport, err)
	}
	return dashboard.DecodePayload(body)
}

func (c *HTTPClient) endpoint(q dashboard.Query) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("source: metrics base url not configured")
	}
	hotels := q.HotelIDs
	if hotels == nil {
		hotels = []string{}
	}
	encoded, err := json.Marshal(hotels)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("from", dashboard.FormatDay(q.Range.From))
	params.Set("to", dashboard.FormatDay(q.Range.To))
	params.Set("hotels", string(encoded))
	return c.baseURL + "/metrics?" + params.Encode(), nil
}

func (c *HTTPClient) client(credential string) *http.Client {
	token := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if token == "" {
		token = c.serviceToken
	}
	transport := c.base
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}
	return &http.Client{Transport: transport, Timeout: c.timeout}
}
