//go:build linux

// Package api serves the enumeration results over HTTP for tooling
// that would rather not speak netlink itself.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kelpdock/nsnet/stats"
)

type Server struct {
	server *echo.Echo

	conf Config
}

func New(conf *Config) *Server {
	return &Server{conf: *conf}
}

func (s *Server) String() string {
	return "api"
}

func (s *Server) Init() error {
	slog.Debug("initialising the api server")
	s.server = echo.New()

	// Configure the methods for each path
	s.server.GET("/", handleRoot)
	s.server.GET("/interfaces", handleInterfaces)
	s.server.GET("/interfaces/:name", handleInterface)
	s.server.GET("/netns/:ns/interfaces", handleNamespaceInterfaces)

	// Create a non-global registry.
	reg := prometheus.NewRegistry()
	if err := reg.Register(stats.NewCollector(&stats.Config{Log: true, NetnsID: -1})); err != nil {
		return fmt.Errorf("error registering the metrics: %w", err)
	}
	s.server.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Prevent the banner from showing up in the log
	s.server.HideBanner = true
	s.server.HidePort = true

	return nil
}

func (s *Server) Run(done <-chan struct{}) {
	slog.Debug("running the api server")

	// Extend the handlers' context once the routes are all registered.
	s.server.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&extendedContext{c, s.server.Routes(), &s.conf})
		}
	})

	go func() {
		if err := s.server.Start(fmt.Sprintf("%s:%d", s.conf.BindAddress, s.conf.BindPort)); err != http.ErrServerClosed {
			slog.Error("couldn't start the API server", "err", err)
		}
	}()

	// Simply wait until we're done
	<-done
	slog.Debug("cleanly exiting the api server")
}

func (s *Server) Cleanup() error {
	slog.Debug("cleaning up the api server")
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(context.TODO()); err != nil {
		return fmt.Errorf("error shutting down the API server: %w", err)
	}
	return nil
}
