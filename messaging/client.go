// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the peer (e.g., "https://matrix.example.org").
	HomeserverURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Version pins the protocol version. Nil negotiates against the
	// server's /versions response.
	Version *api.Version
	// AllowUnstable permits unstable variants when Version is pinned.
	AllowUnstable bool
	// Registerer receives the request metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Client is an unauthenticated Matrix client. It is safe for concurrent
// use and shared by every Session derived from it.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	version       *api.Version
	allowUnstable bool
	metrics       *requestMetrics

	versionsFlight singleflight.Group

	mu        sync.Mutex
	supported *api.SupportedVersions
}

// NewClient creates a new unauthenticated Matrix client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}
	parsed, err := url.Parse(config.HomeserverURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL %q must be an http or https URL", config.HomeserverURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics, err := newRequestMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("messaging: registering metrics: %w", err)
	}

	return &Client{
		baseURL:       strings.TrimRight(config.HomeserverURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
		version:       config.Version,
		allowUnstable: config.AllowUnstable,
		metrics:       metrics,
	}, nil
}

// BaseURL returns the homeserver URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ServerVersions returns the protocol versions and unstable features the
// homeserver advertises. The first successful answer is cached.
// Concurrent callers share one /versions request, and each stops
// waiting when its own ctx is done. The shared request is not cancelled
// by any single caller; the HTTP client's timeout bounds it.
func (c *Client) ServerVersions(ctx context.Context) (*api.SupportedVersions, error) {
	c.mu.Lock()
	cached := c.supported
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	flight := c.versionsFlight.DoChan(versionsFlightKey, func() (any, error) {
		return c.fetchVersions(context.WithoutCancel(ctx))
	})
	select {
	case result := <-flight:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*api.SupportedVersions), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("messaging: waiting for supported versions: %w", ctx.Err())
	}
}

const versionsFlightKey = "versions"

func (c *Client) fetchVersions(ctx context.Context) (*api.SupportedVersions, error) {
	message, err := clientapi.GetSupportedVersions.NewRequest(api.BuildOptions{BaseURL: c.baseURL}).
		Build(clientapi.GetSupportedVersionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("messaging: building versions request: %w", err)
	}
	supported, err := exchange(ctx, c, clientapi.GetSupportedVersions, message)
	if err != nil {
		return nil, err
	}
	latest, _ := supported.Latest()
	c.logger.Debug("fetched supported versions",
		"homeserver", c.baseURL,
		"latest", latest,
		"unstable_features", len(supported.UnstableFeatures),
	)
	c.mu.Lock()
	c.supported = &supported
	c.mu.Unlock()
	return &supported, nil
}

// ForgetVersions drops the cached /versions answer so the next request
// negotiates again. A request already in flight is abandoned to its
// current waiters.
func (c *Client) ForgetVersions() {
	c.versionsFlight.Forget(versionsFlightKey)
	c.mu.Lock()
	c.supported = nil
	c.mu.Unlock()
}

// BuildOptions returns the options for a request to this client's
// homeserver. Without a pinned version the homeserver's /versions answer
// is fetched, once, for negotiation.
func (c *Client) BuildOptions(ctx context.Context, accessToken string) (api.BuildOptions, error) {
	options := api.BuildOptions{
		BaseURL:       c.baseURL,
		AccessToken:   accessToken,
		Version:       c.version,
		AllowUnstable: c.allowUnstable,
	}
	if c.version == nil {
		supported, err := c.ServerVersions(ctx)
		if err != nil {
			return options, fmt.Errorf("messaging: negotiating protocol version: %w", err)
		}
		options.Supported = supported
	}
	return options, nil
}

// Exchange sends a built message and returns the raw response. Non-2xx
// responses are not errors here; the endpoint's ParseResponse turns them
// into envelopes. A message built without a base URL is sent to this
// client's homeserver.
func (c *Client) Exchange(ctx context.Context, message *api.OutgoingMessage) (*api.IncomingMessage, error) {
	if message.BaseURL == "" {
		addressed := *message
		addressed.BaseURL = c.baseURL
		message = &addressed
	}

	start := time.Now()
	request, err := message.HTTPRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.metrics.observe(message.Endpoint, 0, "", time.Since(start))
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", message.Method, message.Path, err)
	}
	defer response.Body.Close()

	incoming, err := api.IncomingFromHTTPResponse(response)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(message.Endpoint, response.StatusCode, "", elapsed)
		return nil, fmt.Errorf("messaging: %w", err)
	}

	var errcode string
	if incoming.StatusCode < 200 || incoming.StatusCode > 299 {
		envelope := api.FromWire(incoming.StatusCode, incoming.Body)
		errcode = envelope.Code
		if envelope.Synthesized() {
			c.logger.Debug("error response without errcode",
				"endpoint", message.Endpoint,
				"status", incoming.StatusCode,
				"content_type", incoming.Header.Get("Content-Type"),
				"body", netutil.Snippet(incoming.Body),
			)
		}
	}
	c.metrics.observe(message.Endpoint, incoming.StatusCode, errcode, elapsed)
	c.logger.Debug("matrix request",
		"endpoint", message.Endpoint,
		"method", message.Method,
		"path", message.Path,
		"status", incoming.StatusCode,
		"errcode", errcode,
		"duration", elapsed,
	)
	return incoming, nil
}

// Do sends one unauthenticated request through endpoint. Endpoints that
// require an access token fail with api.ErrNeedsAuthentication; use
// [Call] with a Session for those.
func Do[Req, Resp any](ctx context.Context, client *Client, endpoint *api.Endpoint[Req, Resp], request Req) (Resp, error) {
	return send(ctx, client, "", endpoint, request)
}

func send[Req, Resp any](ctx context.Context, client *Client, accessToken string, endpoint *api.Endpoint[Req, Resp], request Req) (Resp, error) {
	var zero Resp
	options, err := client.BuildOptions(ctx, accessToken)
	if err != nil {
		return zero, err
	}
	message, err := endpoint.NewRequest(options).Build(request)
	if err != nil {
		return zero, fmt.Errorf("messaging: building %s: %w", endpoint.Metadata().Name, err)
	}
	return exchange(ctx, client, endpoint, message)
}

func exchange[Req, Resp any](ctx context.Context, client *Client, endpoint *api.Endpoint[Req, Resp], message *api.OutgoingMessage) (Resp, error) {
	var zero Resp
	incoming, err := client.Exchange(ctx, message)
	if err != nil {
		return zero, err
	}
	response, err := endpoint.ParseResponse(incoming)
	if err != nil {
		return zero, fmt.Errorf("messaging: %s: %w", endpoint.Metadata().Name, err)
	}
	return response, nil
}
