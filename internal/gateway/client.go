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

	"golang.org/x/sync/singleflight"
)

// TokenSource yields the bearer token for the caller carried in ctx. An
// empty token means the request goes out anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored then.
	HTTPClient *http.Client
}

// Client is a typed wrapper over the ticketing REST API.
type Client struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	tokens  TokenSource

	// gets coalesces identical in-flight GETs. Nothing is cached.
	gets singleflight.Group
}

func New(cfg Config, tokens TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	} else if hc.Timeout > 0 {
		timeout = hc.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      hc,
		timeout: timeout,
		tokens:  tokens,
	}
}

type call struct {
	method   string
	route    string
	endpoint string
	body     any
}

// request sends one call and decodes a JSON answer into T. An empty 2xx
// body yields the zero T.
func request[T any](ctx context.Context, c *Client, in call) (T, error) {
	var out T

	raw, err := c.send(ctx, in)
	if err != nil {
		return out, err
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%s %s: decode: %w", in.method, in.route, err)
	}

	return out, nil
}

func (c *Client) send(ctx context.Context, in call) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if in.method != http.MethodGet {
		return c.roundTrip(ctx, in, token)
	}

	// The shared GET is detached from every caller. A caller whose ctx ends
	// stops waiting; the others still get the answer.
	ch := c.gets.DoChan(token+" "+in.endpoint, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.roundTrip(shared, in, token)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s %s: %w", in.method, in.route, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}

	t, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("gateway: token: %w", err)
	}
	return t, nil
}

func (c *Client) roundTrip(ctx context.Context, in call, token string) ([]byte, error) {
	op := in.method + " " + in.route
	start := time.Now()

	var body io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		observe(in.route, in.method, outcomeTransport, time.Since(start).Seconds())
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(in.route, in.method, outcomeTransport, time.Since(start).Seconds())
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observe(in.route, in.method, outcomeAPIError, time.Since(start).Seconds())
		return nil, newAPIError(resp.StatusCode, messageOf(raw))
	}

	observe(in.route, in.method, outcomeOK, time.Since(start).Seconds())
	return raw, nil
}

// msgUnreadable is the message for an error body that is not JSON. A JSON
// body without a message falls back to "HTTP <status>".
const msgUnreadable = "Erro na requisição"

func messageOf(raw []byte) string {
	var reply struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return msgUnreadable
	}
	return reply.Message
}
