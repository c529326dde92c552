// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/netutil"
)

// Config configures a Server.
type Config struct {
	// Logger is used for request and handler logging. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
	// MaxRequestBytes bounds decoded request bodies. Zero means
	// netutil.MaxRequestSize.
	MaxRequestBytes int64
	// Registerer receives the server's request metrics. Nil disables
	// them.
	Registerer prometheus.Registerer
}

// Server is an http.Handler over an immutable router. It is safe for
// concurrent use.
type Server struct {
	router          *api.Router
	handlers        map[string]serveFunc
	logger          *slog.Logger
	maxRequestBytes int64
	metrics         *serverMetrics
}

func newServer(router *api.Router, handlers map[string]serveFunc, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := config.MaxRequestBytes
	if limit <= 0 {
		limit = netutil.MaxRequestSize
	}
	metrics, err := newServerMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("server: registering metrics: %w", err)
	}
	return &Server{
		router:          router,
		handlers:        handlers,
		logger:          logger,
		maxRequestBytes: limit,
		metrics:         metrics,
	}, nil
}

// Router returns the router the server dispatches through.
func (s *Server) Router() *api.Router { return s.router }

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	start := time.Now()
	response, endpoint := s.handle(request)
	if err := response.Send(writer); err != nil {
		s.logger.Warn("writing response failed", "endpoint", endpoint, "error", err)
	}
	elapsed := time.Since(start)
	s.metrics.observe(endpoint, response.StatusCode, elapsed)
	s.logger.Debug("served matrix request",
		"method", request.Method,
		"path", request.URL.EscapedPath(),
		"endpoint", endpoint,
		"status", response.StatusCode,
		"duration", elapsed,
	)
}

func (s *Server) handle(request *http.Request) (*api.OutgoingResponse, string) {
	incoming, err := api.IncomingFromHTTPRequest(request, s.maxRequestBytes)
	if err != nil {
		return api.EncodeErrorResponse(bodyEnvelope(err)), ""
	}

	route, _, err := s.router.Lookup(incoming.Method, incoming.Path)
	if err != nil {
		var decodeErr *api.DecodeError
		if !errors.As(err, &decodeErr) {
			return api.EncodeErrorResponse(api.NewError(api.KindUnrecognizedRequest, err.Error())), ""
		}
		response := api.EncodeErrorResponse(decodeErr.Envelope())
		if decodeErr.Kind == api.MethodMismatch {
			response.Header.Set("Allow", strings.Join(s.router.AllowedMethods(incoming.Path), ", "))
		}
		return response, ""
	}

	name := route.Metadata().Name
	return s.handlers[name](request.Context(), incoming, s.logger), name
}

func bodyEnvelope(err error) *api.ErrorEnvelope {
	switch {
	case errors.Is(err, netutil.ErrTooLarge):
		return api.NewError(api.KindTooLarge, "Request body too large")
	case errors.Is(err, netutil.ErrUnsupportedEncoding):
		return &api.ErrorEnvelope{
			Kind:       api.KindUnknown,
			Code:       api.KindUnknown.Code(),
			Message:    err.Error(),
			StatusCode: http.StatusUnsupportedMediaType,
		}
	default:
		return api.NewError(api.KindNotJSON, "Could not read request body")
	}
}
