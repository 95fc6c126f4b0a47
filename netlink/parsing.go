package netlink

import (
	"fmt"
)

// Please note the readBuffer has been adapted from
// github.com/vishvananda/netlink/socket_linux.go. Callers must check the
// length of Bytes before reading: it panics when running out of data.
type readBuffer struct {
	Bytes []byte
	pos   int
}

func (b *readBuffer) Next(n int) []byte {
	s := b.Bytes[b.pos : b.pos+n]
	b.pos += n
	return s
}

func (b *readBuffer) Remaining() int {
	return len(b.Bytes) - b.pos
}

// cloneBytes copies b so that nothing we hand out aliases the buffer a
// message was decoded from. Empty payloads become nil.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// DecodeAttribute decodes the attribute starting at b[offset:]. It returns
// the attribute together with the number of bytes it spans including its
// padding, which is what the caller should advance by. Padding bytes are
// skipped, never validated. Nested attributes are decoded recursively.
func DecodeAttribute(b []byte, offset int) (Attribute, int, error) {
	if offset < 0 || offset > len(b) {
		return Attribute{}, 0, fmt.Errorf("%w: offset %d out of range [0, %d]", ErrMalformedAttribute, offset, len(b))
	}

	rb := readBuffer{Bytes: b[offset:]}
	if rb.Remaining() < NLA_HDRLEN {
		return Attribute{}, 0, fmt.Errorf("%w: trailing %d bytes at offset %d can't hold an attribute header",
			ErrMalformedAttribute, rb.Remaining(), offset)
	}

	length := int(native.Uint16(rb.Next(2)))
	rawType := native.Uint16(rb.Next(2))

	if length < NLA_HDRLEN {
		return Attribute{}, 0, fmt.Errorf("%w: length %d at offset %d is below %d",
			ErrMalformedAttribute, length, offset, NLA_HDRLEN)
	}

	payloadLen := length - NLA_HDRLEN
	if nlaAlign(payloadLen) > rb.Remaining() {
		return Attribute{}, 0, fmt.Errorf("%w: type %d at offset %d declares %d payload bytes but only %d remain",
			ErrMalformedAttribute, rawType&NLA_TYPE_MASK, offset, payloadLen, rb.Remaining())
	}

	a := Attribute{
		Type:         rawType & NLA_TYPE_MASK,
		Nested:       rawType&NLA_F_NESTED != 0,
		NetByteOrder: rawType&NLA_F_NET_BYTEORDER != 0,
	}

	payload := rb.Next(payloadLen)
	if a.Nested {
		children, err := DecodeAttributes(payload)
		if err != nil {
			return Attribute{}, 0, fmt.Errorf("error decoding children of nested type %d at offset %d: %w", a.Type, offset, err)
		}
		a.Children = children
	} else {
		a.Data = cloneBytes(payload)
	}

	return a, NLA_HDRLEN + nlaAlign(payloadLen), nil
}

// DecodeAttributes decodes attributes until b is exhausted.
func DecodeAttributes(b []byte) (*AttributeSet, error) {
	s := &AttributeSet{}
	for off := 0; off < len(b); {
		a, n, err := DecodeAttribute(b, off)
		if err != nil {
			return nil, err
		}
		s.Push(a)
		off += n
	}
	return s, nil
}

func decodeErrorReport(b []byte) (*ErrorReport, error) {
	if len(b) < 4+NLMSG_HDRLEN {
		return nil, fmt.Errorf("%w: error report carries %d bytes; want at least %d", ErrTruncatedHeader, len(b), 4+NLMSG_HDRLEN)
	}

	rb := readBuffer{Bytes: b}
	e := &ErrorReport{Code: int32(native.Uint32(rb.Next(4)))}

	// The kernel truncates the echoed message (NETLINK_CAP_ACK) without
	// touching its length, so we can't insist on the length being sane.
	hdr := rb.Next(NLMSG_HDRLEN)
	e.Original = Header{
		Length:   native.Uint32(hdr[0:4]),
		Type:     native.Uint16(hdr[4:6]),
		Flags:    native.Uint16(hdr[6:8]),
		Sequence: native.Uint32(hdr[8:12]),
		PortID:   native.Uint32(hdr[12:16]),
	}
	e.Payload = cloneBytes(rb.Next(rb.Remaining()))

	return e, nil
}

func decodeDone(b []byte) *Done {
	if len(b) < 4 {
		return &Done{Bare: true, Extra: cloneBytes(b)}
	}
	return &Done{
		Code:  int32(native.Uint32(b[:4])),
		Extra: cloneBytes(b[4:]),
	}
}
