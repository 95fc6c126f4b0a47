// Package api exposes the codec over HTTP so that captures can be decoded
// without linking against us.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scitags/nlcodec/netlink"
)

type Server struct {
	server *echo.Echo

	conf  Config
	codec *netlink.Codec
	reg   *prometheus.Registry
}

// New builds a server decoding with codec. The metrics in reg (if any)
// are exposed on /metrics.
func New(conf *Config, codec *netlink.Codec, reg *prometheus.Registry) *Server {
	if conf == nil {
		return &Server{conf: DefaultConfig, codec: codec, reg: reg}
	}
	return &Server{conf: *conf, codec: codec, reg: reg}
}

func (s *Server) String() string {
	return "api"
}

func (s *Server) Init() error {
	slog.Debug("initialising the api server")
	if s.codec == nil {
		return fmt.Errorf("the api server needs a codec")
	}

	s.server = echo.New()

	// Configure the middleware for extending the context of the
	// different handlers.
	s.server.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&extendedContext{c, s.server.Routes(), s.codec, s.conf.Verbosity})
		}
	})

	// Configure the methods for each path
	s.server.GET("/", handleRoot)
	s.server.GET("/families", handleFamilies)
	s.server.POST("/decode", handleDecode)
	if s.reg != nil {
		s.server.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{Registry: s.reg})))
	}

	// Prevent the banner from showing up in the log
	s.server.HideBanner = true
	s.server.HidePort = true

	return nil
}

// Handler is mostly useful for tests.
func (s *Server) Handler() http.Handler {
	return s.server
}

func (s *Server) Run(done <-chan struct{}) {
	slog.Debug("running the api server", "address", s.conf.BindAddress, "port", s.conf.BindPort)

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
	if err := s.server.Shutdown(context.TODO()); err != nil {
		return fmt.Errorf("error shutting down the API server: %w", err)
	}
	return nil
}
