package netlink

import "fmt"

// MarshalBinary encodes h into its 16-byte wire representation.
func (h Header) MarshalBinary() ([]byte, error) {
	return appendHeader(make([]byte, 0, NLMSG_HDRLEN), h), nil
}

// UnmarshalBinary decodes a header from the first NLMSG_HDRLEN bytes of b.
func (h *Header) UnmarshalBinary(b []byte) error {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return err
	}
	*h = hdr
	return nil
}

func appendHeader(b []byte, h Header) []byte {
	b = appendUint32(b, native, h.Length)
	b = appendUint16(b, native, h.Type)
	b = appendUint16(b, native, h.Flags)
	b = appendUint32(b, native, h.Sequence)
	return appendUint32(b, native, h.PortID)
}

// DecodeHeader decodes exactly one header from the start of b. It doesn't
// check the declared length against len(b): slicing a buffer into
// messages is the codec's job.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < NLMSG_HDRLEN {
		return Header{}, fmt.Errorf("%w: got %d bytes; want at least %d", ErrTruncatedHeader, len(b), NLMSG_HDRLEN)
	}

	rb := readBuffer{Bytes: b}
	h := Header{
		Length:   native.Uint32(rb.Next(4)),
		Type:     native.Uint16(rb.Next(2)),
		Flags:    native.Uint16(rb.Next(2)),
		Sequence: native.Uint32(rb.Next(4)),
		PortID:   native.Uint32(rb.Next(4)),
	}

	if h.Length < NLMSG_HDRLEN {
		return Header{}, fmt.Errorf("%w: declared length %d is below %d", ErrTruncatedHeader, h.Length, NLMSG_HDRLEN)
	}

	return h, nil
}
