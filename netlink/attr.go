package netlink

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Attribute is a single netlink attribute (struct nlattr followed by its
// payload). Leaf attributes carry their payload in Data, nested ones in
// Children. Type never includes the NLA_F_* bits: those are exposed through
// Nested and NetByteOrder.
type Attribute struct {
	Type         uint16        `json:"type"`
	Nested       bool          `json:"nested,omitempty"`
	NetByteOrder bool          `json:"netByteOrder,omitempty"`
	Data         []byte        `json:"data,omitempty"`
	Children     *AttributeSet `json:"children,omitempty"`
}

func (a Attribute) String() string {
	if a.Nested {
		return fmt.Sprintf("{type: %d, nested: %d children}", a.Type, a.Children.Len())
	}
	return fmt.Sprintf("{type: %d, len: %d}", a.Type, len(a.Data))
}

// payloadLen is the unpadded payload length, i.e. nla_len - NLA_HDRLEN.
func (a Attribute) payloadLen() int {
	if a.Nested {
		return a.Children.EncodedLen()
	}
	return len(a.Data)
}

// EncodedLen returns the number of bytes a spans on the wire, padding
// included.
func (a Attribute) EncodedLen() int {
	return NLA_HDRLEN + nlaAlign(a.payloadLen())
}

// AppendTo appends the wire representation of a to b. Padding is always
// zeroed. Bits of Type overlapping the NLA_F_* flags are dropped.
func (a Attribute) AppendTo(b []byte) ([]byte, error) {
	pl := a.payloadLen()
	if pl > NLA_MAX_PAYLOAD {
		return b, fmt.Errorf("%w: type %d carries %d bytes; the maximum is %d", ErrPayloadTooLarge, a.Type, pl, NLA_MAX_PAYLOAD)
	}

	t := a.Type & NLA_TYPE_MASK
	if a.Nested {
		t |= NLA_F_NESTED
	}
	if a.NetByteOrder {
		t |= NLA_F_NET_BYTEORDER
	}

	b = appendUint16(b, native, uint16(NLA_HDRLEN+pl))
	b = appendUint16(b, native, t)

	if a.Nested {
		var err error
		if b, err = a.Children.AppendTo(b); err != nil {
			return b, fmt.Errorf("error encoding children of nested type %d: %w", a.Type, err)
		}
	} else {
		b = append(b, a.Data...)
	}

	return append(b, make([]byte, nlaAlign(pl)-pl)...), nil
}

// Equal compares types, flags and payloads. A nil payload equals an empty one.
func (a Attribute) Equal(o Attribute) bool {
	if a.Type != o.Type || a.Nested != o.Nested || a.NetByteOrder != o.NetByteOrder {
		return false
	}
	if a.Nested {
		return a.Children.Equal(o.Children)
	}
	return bytes.Equal(a.Data, o.Data)
}

// EncodeAttribute returns the padded wire representation of a.
func EncodeAttribute(a Attribute) ([]byte, error) {
	return a.AppendTo(make([]byte, 0, a.EncodedLen()))
}

// Nest returns the children of a nested attribute. Some subsystems don't
// set NLA_F_NESTED on their containers, so when the flag is missing Data
// is decoded on the fly.
func (a Attribute) Nest() (*AttributeSet, error) {
	if a.Nested {
		if a.Children == nil {
			return &AttributeSet{}, nil
		}
		return a.Children, nil
	}
	return DecodeAttributes(a.Data)
}

func NewBytes(t uint16, v []byte) Attribute {
	return Attribute{Type: t, Data: cloneBytes(v)}
}

// NewFlag builds a payload-less attribute whose presence is its value.
func NewFlag(t uint16) Attribute {
	return Attribute{Type: t}
}

func NewUint8(t uint16, v uint8) Attribute {
	return Attribute{Type: t, Data: []byte{v}}
}

func NewUint16(t uint16, v uint16) Attribute {
	return Attribute{Type: t, Data: appendUint16(nil, native, v)}
}

func NewUint32(t uint16, v uint32) Attribute {
	return Attribute{Type: t, Data: appendUint32(nil, native, v)}
}

func NewUint64(t uint16, v uint64) Attribute {
	return Attribute{Type: t, Data: appendUint64(nil, native, v)}
}

// NewBigEndian16 encodes v in network byte order without setting
// NLA_F_NET_BYTEORDER, which is what netfilter does.
func NewBigEndian16(t uint16, v uint16) Attribute {
	return Attribute{Type: t, Data: appendUint16(nil, networkOrder, v)}
}

func NewBigEndian32(t uint16, v uint32) Attribute {
	return Attribute{Type: t, Data: appendUint32(nil, networkOrder, v)}
}

func NewBigEndian64(t uint16, v uint64) Attribute {
	return Attribute{Type: t, Data: appendUint64(nil, networkOrder, v)}
}

// NewString encodes s as a NUL terminated string.
func NewString(t uint16, s string) Attribute {
	return Attribute{Type: t, Data: append([]byte(s), 0)}
}

func NewNested(t uint16, children ...Attribute) Attribute {
	s := &AttributeSet{}
	s.Push(children...)
	return Attribute{Type: t, Nested: true, Children: s}
}

func (a Attribute) checkLen(want int) error {
	if a.Nested {
		return fmt.Errorf("%w: type %d is nested; want a %d byte scalar", ErrMalformedAttribute, a.Type, want)
	}
	if len(a.Data) != want {
		return fmt.Errorf("%w: type %d carries %d bytes; want %d", ErrMalformedAttribute, a.Type, len(a.Data), want)
	}
	return nil
}

func (a Attribute) order() binary.ByteOrder {
	if a.NetByteOrder {
		return networkOrder
	}
	return native
}

func (a Attribute) AsUint8() (uint8, error) {
	if err := a.checkLen(1); err != nil {
		return 0, err
	}
	return a.Data[0], nil
}

// AsUint16 decodes the payload in host byte order unless NLA_F_NET_BYTEORDER
// is set. The same goes for AsUint32 and AsUint64.
func (a Attribute) AsUint16() (uint16, error) {
	if err := a.checkLen(2); err != nil {
		return 0, err
	}
	return a.order().Uint16(a.Data), nil
}

func (a Attribute) AsUint32() (uint32, error) {
	if err := a.checkLen(4); err != nil {
		return 0, err
	}
	return a.order().Uint32(a.Data), nil
}

func (a Attribute) AsUint64() (uint64, error) {
	if err := a.checkLen(8); err != nil {
		return 0, err
	}
	return a.order().Uint64(a.Data), nil
}

func (a Attribute) AsBigEndian16() (uint16, error) {
	if err := a.checkLen(2); err != nil {
		return 0, err
	}
	return networkOrder.Uint16(a.Data), nil
}

func (a Attribute) AsBigEndian32() (uint32, error) {
	if err := a.checkLen(4); err != nil {
		return 0, err
	}
	return networkOrder.Uint32(a.Data), nil
}

func (a Attribute) AsBigEndian64() (uint64, error) {
	if err := a.checkLen(8); err != nil {
		return 0, err
	}
	return networkOrder.Uint64(a.Data), nil
}

// AsString drops the NUL terminator and anything after it. Strings
// without a terminator are accepted as well.
func (a Attribute) AsString() (string, error) {
	if a.Nested {
		return "", fmt.Errorf("%w: type %d is nested; want a string", ErrMalformedAttribute, a.Type)
	}
	if i := bytes.IndexByte(a.Data, 0); i >= 0 {
		return string(a.Data[:i]), nil
	}
	return string(a.Data), nil
}

// AsBytes returns a copy of the payload.
func (a Attribute) AsBytes() ([]byte, error) {
	if a.Nested {
		return nil, fmt.Errorf("%w: type %d is nested; want raw bytes", ErrMalformedAttribute, a.Type)
	}
	return cloneBytes(a.Data), nil
}

// AsSized is AsBytes for fixed size payloads such as addresses.
func (a Attribute) AsSized(n int) ([]byte, error) {
	if err := a.checkLen(n); err != nil {
		return nil, err
	}
	return cloneBytes(a.Data), nil
}

func (a Attribute) AsFlag() (bool, error) {
	if err := a.checkLen(0); err != nil {
		return false, err
	}
	return true, nil
}
