// Package pingpong implements a toy netlink family: a peer sends a PING and
// expects a PONG carrying the same cookie back. It's small enough to be a
// reference for how families plug into the codec while still exercising
// strings, integers and nested attributes.
package pingpong

import (
	"fmt"
	"time"

	"github.com/scitags/nlcodec/netlink"
)

// Header precedes the attributes of every message.
type Header struct {
	Counter uint32 `json:"counter"`
}

func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderLen)
	netlink.NativeEndian().PutUint32(b, h.Counter)
	return b, nil
}

func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderLen {
		return fmt.Errorf("%w: ping-pong header needs %d bytes; got %d", netlink.ErrTruncatedHeader, HeaderLen, len(b))
	}
	h.Counter = netlink.NativeEndian().Uint32(b)
	return nil
}

// Origin identifies the process a ping was sent from.
type Origin struct {
	Host *string `json:"host,omitempty"`
	PID  *uint32 `json:"pid,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty"`
}

// Message is both a PING and a PONG: they only differ in Type. Nil fields
// are simply not encoded. Extra holds unknown attributes as well as
// repeated occurrences of known ones so that nothing's lost on the way.
type Message struct {
	Type   uint16 `json:"type"`
	Header Header `json:"header"`

	Text      *string `json:"message,omitempty"`
	Cookie    *uint32 `json:"cookie,omitempty"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
	Origin    *Origin `json:"origin,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty"`
}

// NewPing builds a ping carrying text and a cookie the peer will echo.
func NewPing(counter uint32, text string, cookie uint32) *Message {
	return &Message{
		Type:   PING,
		Header: Header{Counter: counter},
		Text:   &text,
		Cookie: &cookie,
	}
}

// Pong builds the reply to m: the same payload with the counter bumped.
func (m *Message) Pong() *Message {
	p := &Message{
		Type:   PONG,
		Header: Header{Counter: m.Header.Counter + 1},
		Extra:  append([]netlink.Attribute(nil), m.Extra...),
	}
	if m.Text != nil {
		t := *m.Text
		p.Text = &t
	}
	if m.Cookie != nil {
		c := *m.Cookie
		p.Cookie = &c
	}
	if m.Timestamp != nil {
		ts := *m.Timestamp
		p.Timestamp = &ts
	}
	if m.Origin != nil {
		p.Origin = m.Origin.clone()
	}
	return p
}

// Stamp sets the timestamp attribute.
func (m *Message) Stamp(t time.Time) {
	ts := uint64(t.UnixNano())
	m.Timestamp = &ts
}

// Time returns the timestamp attribute, if any.
func (m *Message) Time() (time.Time, bool) {
	if m.Timestamp == nil {
		return time.Time{}, false
	}
	return time.Unix(0, int64(*m.Timestamp)), true
}

func (m *Message) MessageType() uint16 { return m.Type }

func (m *Message) Attributes() *netlink.AttributeSet {
	s := &netlink.AttributeSet{}
	if m.Text != nil {
		s.Push(netlink.NewString(PINGPONG_A_MSG, *m.Text))
	}
	if m.Cookie != nil {
		s.Push(netlink.NewUint32(PINGPONG_A_COOKIE, *m.Cookie))
	}
	if m.Timestamp != nil {
		s.Push(netlink.NewUint64(PINGPONG_A_TIMESTAMP, *m.Timestamp))
	}
	if m.Origin != nil {
		o := netlink.NewNested(PINGPONG_A_ORIGIN)
		if m.Origin.Host != nil {
			o.Children.Push(netlink.NewString(PINGPONG_ORIGIN_HOST, *m.Origin.Host))
		}
		if m.Origin.PID != nil {
			o.Children.Push(netlink.NewUint32(PINGPONG_ORIGIN_PID, *m.Origin.PID))
		}
		o.Children.Push(m.Origin.Extra...)
		s.Push(o)
	}
	s.Push(m.Extra...)
	return s
}

func (m *Message) MarshalBody() ([]byte, error) {
	if m.Type != PING && m.Type != PONG {
		return nil, fmt.Errorf("message type %d is neither a ping nor a pong", m.Type)
	}
	return netlink.MarshalBody(m.Header, m.Attributes())
}

// Family decodes PING and PONG messages.
type Family struct{}

func (Family) Name() string { return "pingpong" }

func (Family) HeaderLen() int { return HeaderLen }

func (Family) DecodeBody(h netlink.Header, famHdr []byte, attrs *netlink.AttributeSet) (netlink.Body, error) {
	m := &Message{Type: h.Type}
	if err := m.Header.UnmarshalBinary(famHdr); err != nil {
		return nil, err
	}

	for _, a := range attrs.Attributes() {
		if err := m.decodeAttr(a); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", attrName[a.Type], err)
		}
	}

	return m, nil
}

// decodeAttr fills in the field matching a. The first occurrence of an
// attribute wins: later ones end up in Extra.
func (m *Message) decodeAttr(a netlink.Attribute) error {
	switch {
	case a.Type == PINGPONG_A_MSG && m.Text == nil:
		v, err := a.AsString()
		if err != nil {
			return err
		}
		m.Text = &v
	case a.Type == PINGPONG_A_COOKIE && m.Cookie == nil:
		v, err := a.AsUint32()
		if err != nil {
			return err
		}
		m.Cookie = &v
	case a.Type == PINGPONG_A_TIMESTAMP && m.Timestamp == nil:
		v, err := a.AsUint64()
		if err != nil {
			return err
		}
		m.Timestamp = &v
	case a.Type == PINGPONG_A_ORIGIN && m.Origin == nil:
		children, err := a.Nest()
		if err != nil {
			return err
		}
		m.Origin = &Origin{}
		if err := m.Origin.decode(children); err != nil {
			return err
		}
	default:
		m.Extra = append(m.Extra, a)
	}
	return nil
}

// NewOrigin fills in both origin attributes.
func NewOrigin(host string, pid uint32) *Origin {
	return &Origin{Host: &host, PID: &pid}
}

func (o *Origin) clone() *Origin {
	c := &Origin{Extra: append([]netlink.Attribute(nil), o.Extra...)}
	if o.Host != nil {
		h := *o.Host
		c.Host = &h
	}
	if o.PID != nil {
		pid := *o.PID
		c.PID = &pid
	}
	return c
}

func (o *Origin) decode(attrs *netlink.AttributeSet) error {
	for _, a := range attrs.Attributes() {
		switch {
		case a.Type == PINGPONG_ORIGIN_HOST && o.Host == nil:
			v, err := a.AsString()
			if err != nil {
				return fmt.Errorf("error decoding PINGPONG_ORIGIN_HOST: %w", err)
			}
			o.Host = &v
		case a.Type == PINGPONG_ORIGIN_PID && o.PID == nil:
			v, err := a.AsUint32()
			if err != nil {
				return fmt.Errorf("error decoding PINGPONG_ORIGIN_PID: %w", err)
			}
			o.PID = &v
		default:
			o.Extra = append(o.Extra, a)
		}
	}
	return nil
}

// Register binds the family to the codec.
func Register(c *netlink.Codec) error {
	return c.Register(Family{}, PING, PONG)
}
