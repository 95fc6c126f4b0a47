package netlink

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric labels (note these are **always** strings):
//
//	family: name of the family a message was handled by. Control messages
//	        are accounted as "control" and unregistered ones as "opaque".
//	kind: the sentinel error a decoding failure wraps.
//	direction: either "decode" or "encode".
var (
	familyLabels    = []string{"family"}
	errorLabels     = []string{"kind"}
	directionLabels = []string{"direction"}
)

const (
	controlFamily = "control"
	opaqueFamily  = "opaque"
)

// Metrics keeps track of what a Codec has been up to. Every field must be
// a prometheus.Collector as they're registered through reflection. A nil
// *Metrics is valid and simply discards observations.
type Metrics struct {
	Decoded *prometheus.CounterVec
	Encoded *prometheus.CounterVec
	Errors  *prometheus.CounterVec
	Bytes   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlcodec_decoded_messages_total",
			Help: "Successfully decoded netlink messages",
		}, familyLabels),
		Encoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlcodec_encoded_messages_total",
			Help: "Successfully encoded netlink messages",
		}, familyLabels),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlcodec_errors_total",
			Help: "Decoding and encoding failures",
		}, errorLabels),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlcodec_bytes_total",
			Help: "Bytes consumed when decoding or produced when encoding [B]",
		}, directionLabels),
	}
}

// (Nastily) use reflection to avoid having to manually register everything.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	v := reflect.ValueOf(*m)

	for i := 0; i < v.NumField(); i++ {
		c, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok {
			return fmt.Errorf("error casting the interface for index %d", i)
		}
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("error registering index %d: %w", i, err)
		}
	}

	return nil
}

func (m *Metrics) decoded(family string, n int) {
	if m == nil {
		return
	}
	m.Decoded.WithLabelValues(family).Inc()
	m.Bytes.WithLabelValues("decode").Add(float64(n))
}

func (m *Metrics) encoded(family string, n int) {
	if m == nil {
		return
	}
	m.Encoded.WithLabelValues(family).Inc()
	m.Bytes.WithLabelValues("encode").Add(float64(n))
}

func (m *Metrics) failed(err error) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrTruncatedHeader):
		return "truncated_header"
	case errors.Is(err, ErrMalformedAttribute):
		return "malformed_attribute"
	case errors.Is(err, ErrUnsupportedFamily):
		return "unsupported_family"
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload_too_large"
	default:
		return "other"
	}
}
