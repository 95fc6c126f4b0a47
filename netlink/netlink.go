package netlink

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/scitags/nlcodec/types"
)

// FlagVocabulary can be implemented by a Family whose messages give a
// meaning to the upper byte of nlmsg_flags.
type FlagVocabulary interface {
	Flags(msgType uint16) Vocabulary
}

// FamilyInfo summarises a registered family.
type FamilyInfo struct {
	Name  string   `json:"name"`
	Types []uint16 `json:"types"`
}

// Codec turns byte buffers into messages and back. Families must be
// registered before the codec is shared: after that it's read-only and
// safe for concurrent use.
type Codec struct {
	Config

	logger   *slog.Logger
	metrics  *Metrics
	families map[uint16]Family
}

type Option func(*Codec)

// WithLogger overrides the logger chosen through Config.Log.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

func NewCodec(conf *Config, opts ...Option) *Codec {
	if conf == nil {
		conf = &DefaultConfig
	}

	c := &Codec{
		Config:   *conf,
		families: map[uint16]Family{},
	}

	if c.Log {
		c.logger = slog.Default().With("t", "netlink")
	} else {
		c.logger = slog.New(slog.DiscardHandler)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Register binds f to the given message types. Types below NLMSG_MIN_TYPE
// are reserved and a type can only be bound once.
func (c *Codec) Register(f Family, msgTypes ...uint16) error {
	if f == nil {
		return errors.New("cannot register a nil family")
	}
	if len(msgTypes) == 0 {
		return fmt.Errorf("no message types given for family %s", f.Name())
	}

	for _, t := range msgTypes {
		if t < NLMSG_MIN_TYPE {
			return fmt.Errorf("message type %#x of family %s is reserved for control messages", t, f.Name())
		}
		if prev, ok := c.families[t]; ok {
			return fmt.Errorf("message type %#x is already registered to family %s", t, prev.Name())
		}
	}

	for _, t := range msgTypes {
		c.families[t] = f
	}
	c.logger.Debug("registered family", "family", f.Name(), "types", msgTypes)

	return nil
}

func (c *Codec) FamilyOf(msgType uint16) (Family, bool) {
	f, ok := c.families[msgType]
	return f, ok
}

// Families lists what's been registered sorted by family name.
func (c *Codec) Families() []FamilyInfo {
	byName := map[string][]uint16{}
	for t, f := range c.families {
		byName[f.Name()] = append(byName[f.Name()], t)
	}

	infos := make([]FamilyInfo, 0, len(byName))
	for name, msgTypes := range byName {
		slices.Sort(msgTypes)
		infos = append(infos, FamilyInfo{Name: name, Types: msgTypes})
	}
	slices.SortFunc(infos, func(a, b FamilyInfo) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})

	return infos
}

// FamilyName names whoever handles msgType.
func (c *Codec) FamilyName(msgType uint16) string {
	if f, ok := c.families[msgType]; ok {
		return f.Name()
	}
	if _, ok := controlTypeName[msgType]; ok {
		return controlFamily
	}
	return opaqueFamily
}

// Flags interprets h.Flags with the vocabulary of its family, falling
// back to the standard flags.
func (c *Codec) Flags(h Header) FlagSet {
	if f, ok := c.families[h.Type]; ok {
		if fv, ok := f.(FlagVocabulary); ok {
			return FlagsFromBits(h.Flags, fv.Flags(h.Type))
		}
	}
	return FlagsFromBits(h.Flags, StandardFlags)
}

// DecodeOne decodes the message at the start of b. It returns the number
// of bytes to advance by, which is the message length rounded up to
// NLMSG_ALIGNTO without going past the end of b.
func (c *Codec) DecodeOne(b []byte) (*Message, int, error) {
	return c.decode(b, c.Strict)
}

// DecodeKnown behaves like DecodeOne but fails with ErrUnsupportedFamily
// on data messages no family is registered for.
func (c *Codec) DecodeKnown(b []byte) (*Message, int, error) {
	return c.decode(b, true)
}

func (c *Codec) decode(b []byte, strict bool) (*Message, int, error) {
	m, n, err := c.decodeMessage(b, strict)
	if err != nil {
		c.metrics.failed(err)
		c.logger.Debug("error decoding message", "err", err)
		return nil, 0, err
	}

	c.metrics.decoded(c.FamilyName(m.Header.Type), n)
	c.logger.Log(context.Background(), types.LevelTrace, "decoded message",
		"header", m.Header, "family", c.FamilyName(m.Header.Type))

	return m, n, nil
}

func (c *Codec) decodeMessage(b []byte, strict bool) (*Message, int, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, 0, err
	}
	if int(h.Length) > len(b) {
		return nil, 0, fmt.Errorf("%w: message declares %d bytes but only %d remain", ErrTruncatedHeader, h.Length, len(b))
	}

	n := min(nlmsgAlign(int(h.Length)), len(b))
	body := b[NLMSG_HDRLEN:h.Length]
	m := &Message{Header: h}

	switch h.Type {
	case NLMSG_ERROR:
		if m.Body, err = decodeErrorReport(body); err != nil {
			return nil, 0, err
		}
		return m, n, nil
	case NLMSG_DONE:
		m.Body = decodeDone(body)
		return m, n, nil
	}

	f, ok := c.families[h.Type]
	if !ok {
		if strict && h.Type >= NLMSG_MIN_TYPE {
			return nil, 0, fmt.Errorf("%w: no family registered for message type %#x", ErrUnsupportedFamily, h.Type)
		}
		m.Body = &Opaque{Type: h.Type, Data: cloneBytes(body)}
		return m, n, nil
	}

	if m.Body, err = c.decodeBody(f, h, body); err != nil {
		return nil, 0, err
	}

	return m, n, nil
}

// decodeBody slices off the family header (aligned to NLMSG_ALIGNTO as
// nlmsg_attrdata does) and decodes the attributes following it.
func (c *Codec) decodeBody(f Family, h Header, body []byte) (Body, error) {
	hl := f.HeaderLen()
	if len(body) < hl {
		return nil, fmt.Errorf("%w: family %s needs a %d byte header but the body carries %d bytes",
			ErrTruncatedHeader, f.Name(), hl, len(body))
	}

	attrs, err := DecodeAttributes(body[min(nlmsgAlign(hl), len(body)):])
	if err != nil {
		return nil, fmt.Errorf("error decoding attributes of family %s: %w", f.Name(), err)
	}

	for _, a := range attrs.Attributes() {
		c.logger.Log(context.Background(), types.LevelTrace, "decoded attribute", "family", f.Name(), "attr", a)
	}

	bd, err := f.DecodeBody(h, body[:hl:hl], attrs)
	if err != nil {
		return nil, fmt.Errorf("error decoding body of family %s: %w", f.Name(), err)
	}

	return bd, nil
}

// DecodeAll lazily decodes every message in b. Iteration ends after a Done
// message or an error has been yielded.
func (c *Codec) DecodeAll(b []byte) iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		for off := 0; off < len(b); {
			m, n, err := c.DecodeOne(b[off:])
			if err != nil {
				yield(nil, fmt.Errorf("error decoding message at offset %d: %w", off, err))
				return
			}
			if !yield(m, nil) || m.IsDone() {
				return
			}
			off += n
		}
	}
}

// Dump is the outcome of a multi-part request.
type Dump struct {
	Messages []*Message `json:"messages"`

	// Done is nil if the buffer ran out before NLMSG_DONE showed up.
	Done *Done `json:"done,omitempty"`

	// Error is set when the kernel aborted the dump.
	Error *ErrorReport `json:"error,omitempty"`
}

func (d *Dump) Complete() bool {
	return d.Done != nil
}

// DecodeDump collects the data messages in b up to the NLMSG_DONE marker.
// An NLMSG_ERROR ends the dump too and is kept in Dump.Error.
func (c *Codec) DecodeDump(b []byte) (*Dump, error) {
	d := &Dump{}
	for m, err := range c.DecodeAll(b) {
		if err != nil {
			return nil, err
		}
		switch body := m.Body.(type) {
		case *Done:
			d.Done = body
		case *ErrorReport:
			d.Error = body
			return d, nil
		default:
			d.Messages = append(d.Messages, m)
		}
	}
	return d, nil
}

// Encode finalises m (Header.Length and Header.Type are computed from the
// body) and returns its wire representation padded to NLMSG_ALIGNTO.
func (c *Codec) Encode(m *Message) ([]byte, error) {
	b, err := c.appendMessage(nil, m)
	if err != nil {
		c.metrics.failed(err)
		return nil, err
	}
	c.metrics.encoded(c.FamilyName(m.Header.Type), len(b))
	return b, nil
}

// EncodeAll concatenates several messages into a single datagram.
func (c *Codec) EncodeAll(msgs ...*Message) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	for i, m := range msgs {
		start := len(b)
		if b, err = c.appendMessage(b, m); err != nil {
			c.metrics.failed(err)
			return nil, fmt.Errorf("error encoding message %d: %w", i, err)
		}
		c.metrics.encoded(c.FamilyName(m.Header.Type), len(b)-start)
	}
	return b, nil
}

func (c *Codec) appendMessage(b []byte, m *Message) ([]byte, error) {
	if m == nil || m.Body == nil {
		return nil, errors.New("cannot encode a message without a body")
	}

	body, err := m.Body.MarshalBody()
	if err != nil {
		return nil, fmt.Errorf("error marshalling body of type %#x: %w", m.Body.MessageType(), err)
	}

	m.Header.Length = uint32(NLMSG_HDRLEN + len(body))
	m.Header.Type = m.Body.MessageType()

	b = appendHeader(b, m.Header)
	b = append(b, body...)
	b = append(b, make([]byte, nlmsgAlign(len(body))-len(body))...)

	c.logger.Log(context.Background(), types.LevelTrace, "encoded message", "header", m.Header)

	return b, nil
}

// MarshalBody is the shared body encoder for families: the fixed header
// (if any) padded to NLMSG_ALIGNTO followed by the attributes.
func MarshalBody(famHdr encoding.BinaryMarshaler, attrs *AttributeSet) ([]byte, error) {
	var b []byte
	if famHdr != nil {
		hdr, err := famHdr.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("error marshalling the family header: %w", err)
		}
		b = make([]byte, 0, nlmsgAlign(len(hdr))+attrs.EncodedLen())
		b = append(b, hdr...)
		b = append(b, make([]byte, nlmsgAlign(len(hdr))-len(hdr))...)
	}
	return attrs.AppendTo(b)
}
