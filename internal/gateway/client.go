package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultEndpoint  = "https://api.stake.com/graphql"
	defaultReferer   = "https://stake.com/"
	defaultOrigin    = "https://stake.com"
	defaultUserAgent = "stakewatch/1.0"

	accessTokenHeader = "x-access-token"
	maxErrorBody      = 512
)

// Options parameterise the GraphQL gateway.
type Options struct {
	Endpoint    string
	Referer     string
	Origin      string
	UserAgent   string
	AccessToken string
	Timeout     time.Duration
	Retry       RetryPolicy
	HTTPClient  *http.Client
}

// Request is a single GraphQL operation.
type Request struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
	Path      []any  `json:"path,omitempty"`
}

// Response is a decoded 2xx GraphQL body. A non-empty Errors slice is left
// for the caller to interpret.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Client posts GraphQL operations to a fixed endpoint.
type Client struct {
	opts     Options
	endpoint string
	client   *http.Client
	retry    RetryPolicy
	logger   zerolog.Logger
}

// New constructs a gateway client. The access token is taken from opts only;
// an empty token means anonymous access.
func New(opts Options, logger zerolog.Logger) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if opts.Referer == "" {
		opts.Referer = defaultReferer
	}
	if opts.Origin == "" {
		opts.Origin = defaultOrigin
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	retry := opts.Retry
	if retry == nil {
		retry = NoRetry{}
	}

	return &Client{
		opts:     opts,
		endpoint: endpoint,
		client:   client,
		retry:    retry,
		logger:   logger.With().Str("component", "graphql_gateway").Logger(),
	}
}

// Anonymous reports whether requests are sent without a credential.
func (c *Client) Anonymous() bool { return c.opts.AccessToken == "" }

// Send posts req and decodes the response body.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal %s request: %w", req.OperationName, err)
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}

		delay, again := c.retry.Backoff(attempt, err)
		if !again {
			return Response{}, err
		}
		c.logger.Debug().Err(err).
			Str("operation", req.OperationName).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("retrying graphql request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Response{}, err
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, body []byte) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Referer", c.opts.Referer)
	httpReq.Header.Set("Origin", c.opts.Origin)
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.AccessToken != "" {
		httpReq.Header.Set(accessTokenHeader, c.opts.AccessToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, &TransportError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &TransportError{Endpoint: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &ProtocolError{StatusCode: resp.StatusCode, Body: snippet(payload)}
	}

	var out Response
	if err := json.Unmarshal(payload, &out); err != nil {
		return Response{}, fmt.Errorf("decode graphql response: %w", err)
	}
	return out, nil
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
