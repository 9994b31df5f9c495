package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Paths names the backend endpoints used by the client.
type Paths struct {
	Chat           string
	Hotspot        string
	Weather        string
	ProcessMessage string
	AdminLogin     string
	UploadPDF      string
	CreateRAG      string
}

// ProxyPaths are the endpoint paths as seen behind the front-end proxy.
func ProxyPaths() Paths {
	return Paths{
		Chat:           "/api/chat",
		Hotspot:        "/api/hotspot",
		Weather:        "/api/weather",
		ProcessMessage: "/api/process_message",
		AdminLogin:     "/api/admin/login",
		UploadPDF:      "/api/upload-pdf",
		CreateRAG:      "/api/create-rag",
	}
}

// BackendPaths are the real backend paths, i.e. ProxyPaths after the proxy
// rewrite: /api/chat maps to the retrieval chain, every other /api/x to /x.
func BackendPaths() Paths {
	return Paths{
		Chat:           "/chain/pdf_retrieval",
		Hotspot:        "/hotspot",
		Weather:        "/weather",
		ProcessMessage: "/process_message",
		AdminLogin:     "/admin/login",
		UploadPDF:      "/upload-pdf",
		CreateRAG:      "/create-rag",
	}
}

// Client talks to the travel-assistant backend. Every operation performs a
// single POST; there are no retries.
type Client struct {
	httpClient *http.Client
	// plain is httpClient without the configured bearer token, used to
	// attach per-call admin tokens.
	plain   *http.Client
	baseURL string
	paths   Paths
	token   string
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithPaths(p Paths) Option {
	return func(c *Client) { c.paths = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBearerToken attaches "Authorization: Bearer <token>" to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// NewClient returns a client for baseURL (scheme and host, optionally a path
// prefix). It defaults to ProxyPaths, http.DefaultTransport and a no-op logger.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		paths:      ProxyPaths(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.plain = c.httpClient
	if c.token != "" {
		c.httpClient = withToken(c.plain, c.token)
	}
	return c
}

// withToken returns a copy of hc that sends "Authorization: Bearer <token>".
func withToken(hc *http.Client, token string) *http.Client {
	out := *hc
	base := out.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	out.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}
	return &out
}

// send posts body as JSON and returns the response when the status is 2xx.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, path string, body any) Result[*http.Response] {
	b, err := json.Marshal(body)
	if err != nil {
		return Failure[*http.Response](fmt.Errorf("encode request for %s: %w", path, err))
	}
	return c.post(ctx, c.httpClient, path, "application/json", bytes.NewReader(b))
}

func (c *Client) post(ctx context.Context, hc *http.Client, path, contentType string, body io.Reader) Result[*http.Response] {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return Failure[*http.Response](fmt.Errorf("build request for %s: %w", path, err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := hc.Do(req)
	if err != nil {
		return Failure[*http.Response](&TransportError{Path: path, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return Failure[*http.Response](newRequestError(path, resp))
	}
	return Success(resp)
}

// fetch is send plus reading the whole body.
func (c *Client) fetch(ctx context.Context, path string, body any) Result[[]byte] {
	return Then(c.send(ctx, path, body), readBody(path))
}

func readBody(path string) func(*http.Response) ([]byte, error) {
	return func(resp *http.Response) ([]byte, error) {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Path: path, Err: err}
		}
		return data, nil
	}
}

// decodeJSON returns a decoder step for Then that reports failures as
// FormatError carrying the raw body.
func decodeJSON[T any](path string) func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return out, &FormatError{Path: path, Reason: "body is not valid JSON", Raw: string(data), Err: err}
		}
		return out, nil
	}
}
