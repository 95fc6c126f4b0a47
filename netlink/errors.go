package netlink

import "errors"

// Every decoding or encoding failure wraps one of these so that callers
// can rely on errors.Is regardless of the context we add on top.
var (
	// ErrTruncatedHeader signals fewer than NLMSG_HDRLEN bytes, a header
	// length below NLMSG_HDRLEN or a declared length running past the
	// buffer. It's also returned when a family header is cut short.
	ErrTruncatedHeader = errors.New("truncated netlink header")

	// ErrMalformedAttribute signals an invalid nla_len, a payload running
	// past its container or a trailing partial attribute.
	ErrMalformedAttribute = errors.New("malformed netlink attribute")

	// ErrUnsupportedFamily is only returned when the caller explicitly
	// asked for a registered family and the message type has none.
	ErrUnsupportedFamily = errors.New("unsupported netlink family")

	// ErrPayloadTooLarge signals an attribute payload not fitting nla_len.
	ErrPayloadTooLarge = errors.New("attribute payload too large")
)
