package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"threatconsole/internal/metrics"
	"threatconsole/internal/session"
)

const (
	APIUsers = "users"
	APIAI    = "ai"

	maxBodyBytes = 4 << 20
)

// Client talks to one upstream base URL.
type Client struct {
	api     string
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

func NewClient(api, baseURL string, hc *http.Client, log *zap.SugaredLogger) *Client {
	return &Client{
		api:     api,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log.With("api", api),
	}
}

// attachCredential sets the bearer header from h. Calling it again replaces
// the header rather than adding a second one.
func attachCredential(req *http.Request, h session.Holder) {
	if h == nil {
		return
	}
	if tok, ok := h.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// do performs one request. endpoint is the stable name used in metrics and
// errors, path the concrete URL path. A 401 clears h.
func (c *Client) do(ctx context.Context, h session.Holder, method, endpoint, path string, body, out interface{}) error {
	start := time.Now()
	err := c.roundTrip(ctx, h, method, endpoint, path, body, out)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = KindOf(err).outcome()
	}
	metrics.GatewayRequestsTotal.WithLabelValues(c.api, endpoint, outcome).Inc()
	metrics.GatewayRequestDurationSeconds.WithLabelValues(c.api, endpoint).Observe(time.Since(start).Seconds())

	if IsUnauthorized(err) && h != nil {
		if cerr := h.Clear(); cerr != nil {
			c.log.Warnw("Failed to clear session after 401", "endpoint", endpoint, "error", cerr)
		} else {
			c.log.Infow("Session cleared after 401", "endpoint", endpoint)
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, h session.Holder, method, endpoint, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Endpoint: endpoint, Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	attachCredential(req, h)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Endpoint: endpoint,
			Message:  upstreamMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Status: resp.StatusCode, Endpoint: endpoint, Err: err}
	}
	return nil
}

func upstreamMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// envelope is the AI API's response wrapper.
type envelope[T any] struct {
	Success *bool  `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func (e envelope[T]) check(endpoint string) error {
	if e.Success != nil && !*e.Success {
		msg := e.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return &Error{Kind: KindServer, Endpoint: endpoint, Message: msg}
	}
	return nil
}

// escaped joins a fixed prefix with one caller-supplied path segment.
func escaped(prefix, segment string) string {
	return prefix + url.PathEscape(segment)
}
