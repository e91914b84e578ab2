// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps the bytes read from a non-streaming response.
	MaxResponseSize = 10 * 1024 * 1024

	// maxErrorBody caps the bytes read from an error response.
	maxErrorBody = 64 * 1024

	userAgent = "ragchat/1.0"
)

var (
	sharedTransport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// sharedStreamingClient has no timeout; streams are bounded by context.
	sharedStreamingClient = &http.Client{Transport: sharedTransport}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend on behalf of one session.
type Client struct {
	baseURL      string
	session      *session.Session
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a client for baseURL. sess may be nil for a client that
// only logs in.
func NewClient(baseURL string, sess *session.Session) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		session:      sess,
		httpClient:   &http.Client{Transport: sharedTransport, Timeout: DefaultTimeout},
		streamClient: sharedStreamingClient,
		logger:       slog.Default(),
	}
}

// WithTimeout sets the timeout for non-streaming requests.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient = &http.Client{Transport: c.httpClient.Transport, Timeout: d}
	}
	return c
}

// WithHTTPClient replaces both the request and the streaming HTTP clients.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// WithLogger sets the request logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// WithSession returns a copy of the client bound to sess.
func (c *Client) WithSession(sess *session.Session) *Client {
	cp := *c
	cp.session = sess
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, apierr.Transport(op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apierr.Transport(op, err)
	}
	c.setHeaders(req)
	return req, nil
}

// send performs req with hc, mapping failures to *apierr.Error. On success
// the caller owns resp.Body.
func (c *Client) send(ctx context.Context, hc *http.Client, op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	// Keep the token out of anything that might print the request later.
	req.Header.Del("Authorization")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return nil, apierr.Transport(op, err)
	}
	c.logger.Debug("backend request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apierr.FromStatus(op, resp.StatusCode, body)
	}
	return resp, nil
}

// doJSON sends in as the JSON body and decodes the response into out. in and
// out may be nil.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, c.httpClient, op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return apierr.Transport(op, err)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierr.Transport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
