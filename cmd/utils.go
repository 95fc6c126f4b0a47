package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scitags/nlcodec/families"
	"github.com/scitags/nlcodec/netlink"
)

// service is anything with a lifecycle we drive from serve.
type service interface {
	fmt.Stringer
	Init() error
	Run(done <-chan struct{})
	Cleanup() error
}

// createCodec builds a codec with the configured families. The returned
// registry is nil unless metrics are enabled.
func createCodec(c *Config) (*netlink.Codec, *prometheus.Registry, error) {
	var (
		reg  *prometheus.Registry
		opts []netlink.Option
	)

	if c.Metrics {
		// Create a non-global registry.
		reg = prometheus.NewRegistry()

		m := netlink.NewMetrics()
		if err := m.Register(reg); err != nil {
			return nil, nil, fmt.Errorf("error registering the metrics: %w", err)
		}
		opts = append(opts, netlink.WithMetrics(m))
	}

	codec := netlink.NewCodec(&c.Codec, opts...)
	if err := families.Register(codec, c.Families...); err != nil {
		return nil, nil, err
	}

	return codec, reg, nil
}

func initServices(services []service) error {
	for _, s := range services {
		if err := s.Init(); err != nil {
			return fmt.Errorf("error setting up service %s: %w", s, err)
		}
	}
	return nil
}

func cleanupServices(services []service) {
	for _, s := range services {
		if err := s.Cleanup(); err != nil {
			slog.Error("error cleaning up service", "service", s, "err", err)
		}
	}
}
