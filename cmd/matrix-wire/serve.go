// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/lib/config"
	"github.com/bureau-foundation/matrixwire/server"
)

type serveParams struct {
	configParams
	Listen string `flag:"listen,l" desc:"listen address (default: server.listen from the configuration)"`
}

func serveCommand(stdio streams) *cli.Command {
	var params serveParams
	return &cli.Command{
		Name:    "serve",
		Summary: "Serve canned endpoint responses over HTTP",
		Description: `Answer Matrix requests from a directory of fixtures. Each *.json or
*.jsonc file holds one response:

    {"status": 200, "body": {"room_id": "!ops:example.org", "servers": []}}

and is served for the endpoint named by its file name
(client.get_room_alias.jsonc) or by an "endpoint" member. Requests are
parsed as the endpoint would parse them, so malformed requests get the
same error envelopes a real server sends.`,
		Usage: "matrix-wire serve <fixtures-dir> [flags]",
		Examples: []cli.Example{
			{
				Description: "Serve fixtures for client tests",
				Command:     "matrix-wire serve testdata/homeserver --listen 127.0.0.1:8448",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("serve", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: matrix-wire serve <fixtures-dir>")
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}
			if params.Listen != "" {
				cfg.Server.Listen = params.Listen
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			handler, err := fixtureHandler(args[0], cfg.Server, logger)
			if err != nil {
				return err
			}
			return server.NewListener(server.ListenerConfig{
				Address: cfg.Server.Listen,
				Handler: handler,
				Logger:  logger,
			}).Serve(ctx)
		},
	}
}

// fixtureHandler loads every fixture in dir and returns the handler that
// serves them, with metrics under serverConfig.MetricsPath when set.
func fixtureHandler(dir string, serverConfig config.ServerConfig, logger *slog.Logger) (http.Handler, error) {
	registry := server.NewRegistry()
	count, err := registerFixtures(registry, dir)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("no *.json or *.jsonc fixtures in %s", dir)
	}

	var metrics *prometheus.Registry
	serverOptions := server.Config{Logger: logger, MaxRequestBytes: serverConfig.MaxRequestBytes}
	if serverConfig.MetricsPath != "" {
		metrics = prometheus.NewRegistry()
		serverOptions.Registerer = metrics
	}
	endpointServer, err := registry.Build(serverOptions)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded fixtures", "directory", dir, "endpoints", count)

	if metrics == nil {
		return endpointServer, nil
	}
	// Not an http.ServeMux: it would redirect Matrix paths with empty
	// segments ("/state/m.room.name//") to cleaned ones.
	metricsHandler := promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == serverConfig.MetricsPath {
			metricsHandler.ServeHTTP(writer, request)
			return
		}
		endpointServer.ServeHTTP(writer, request)
	}), nil
}

func registerFixtures(registry *server.Registry, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extension := filepath.Ext(entry.Name()); extension == ".json" || extension == ".jsonc" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		fixture, err := parseResponseFixture(data)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		endpointName := fixture.Endpoint
		if endpointName == "" {
			endpointName = strings.TrimSuffix(name, filepath.Ext(name))
		}
		route, err := findEndpoint(endpointName)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		registry.RegisterFixture(route, fixture.Status, fixture.Body)
	}
	return len(names), nil
}
