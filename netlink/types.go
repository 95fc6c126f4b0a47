package netlink

import (
	"fmt"
	"syscall"
)

// Header is struct nlmsghdr as in linux/netlink.h. It's always encoded in
// host byte order. Check netlink(7) for more information.
type Header struct {
	// Length of the message, including this header.
	Length uint32 `json:"length"`

	// Type selects the family body (or a control message) the header
	// is followed by.
	Type uint16 `json:"type"`

	// Flags is a family-scoped bitmask. See FlagSet.
	Flags uint16 `json:"flags"`

	Sequence uint32 `json:"seq"`
	PortID   uint32 `json:"portID"`
}

func (h Header) String() string {
	return fmt.Sprintf("len=%d type=%#x flags=%#x seq=%d pid=%d", h.Length, h.Type, h.Flags, h.Sequence, h.PortID)
}

// Body is the payload following a Header. Every family provides its own
// implementations, and the codec itself uses ErrorReport, Done and Opaque
// for control and unregistered messages.
type Body interface {
	// MessageType is stamped into Header.Type when encoding.
	MessageType() uint16

	// MarshalBody returns the wire representation of everything after
	// the netlink header.
	MarshalBody() ([]byte, error)
}

// Family decodes the bodies for the message types it's registered for.
// The codec takes care of slicing the fixed family header off and of
// decoding the attributes following it so that families only need to
// interpret both.
type Family interface {
	Name() string

	// HeaderLen is the length of the fixed family header, 0 if none.
	HeaderLen() int

	DecodeBody(h Header, famHdr []byte, attrs *AttributeSet) (Body, error)
}

// Message is a single netlink message.
type Message struct {
	Header Header `json:"header"`
	Body   Body   `json:"body"`
}

// Sequence exposes the sequence number so that callers can match replies
// against their requests.
func (m *Message) Sequence() uint32 {
	return m.Header.Sequence
}

// PortID exposes the sender's port id.
func (m *Message) PortID() uint32 {
	return m.Header.PortID
}

// IsDone reports whether m ends a multi-part dump.
func (m *Message) IsDone() bool {
	_, ok := m.Body.(*Done)
	return ok
}

// Opaque carries the raw body of a message whose type has no registered
// family, which lets us skip over messages we don't understand.
type Opaque struct {
	Type uint16 `json:"type"`
	Data []byte `json:"data"`
}

func (o *Opaque) MessageType() uint16 { return o.Type }

func (o *Opaque) MarshalBody() ([]byte, error) {
	return append([]byte(nil), o.Data...), nil
}

// ErrorReport is the NLMSG_ERROR body: a negated errno followed by the
// header of the message that triggered it. A zero code is an ACK. Note an
// ErrorReport is a successfully decoded message, not a codec failure.
type ErrorReport struct {
	Code     int32  `json:"code"`
	Original Header `json:"original"`

	// Payload holds whatever trails the original header: the original
	// payload (unless NETLINK_CAP_ACK is set) and extended ACK TLVs.
	Payload []byte `json:"payload,omitempty"`
}

func (e *ErrorReport) MessageType() uint16 { return NLMSG_ERROR }

func (e *ErrorReport) MarshalBody() ([]byte, error) {
	b := make([]byte, 4, 4+NLMSG_HDRLEN+len(e.Payload))
	native.PutUint32(b, uint32(e.Code))
	b = appendHeader(b, e.Original)
	return append(b, e.Payload...), nil
}

// IsAck reports whether the report is a plain acknowledgement.
func (e *ErrorReport) IsAck() bool {
	return e.Code == 0
}

// Errno returns the positive errno carried in the report.
func (e *ErrorReport) Errno() syscall.Errno {
	if e.Code < 0 {
		return syscall.Errno(-e.Code)
	}
	return syscall.Errno(e.Code)
}

func (e *ErrorReport) Error() string {
	if e.IsAck() {
		return fmt.Sprintf("netlink ack for seq %d", e.Original.Sequence)
	}
	return fmt.Sprintf("netlink error for seq %d: %v", e.Original.Sequence, e.Errno())
}

// Done is the NLMSG_DONE sentinel closing a dump. The kernel usually
// appends an int32 status; Bare is set when it didn't. Extended ACK TLVs
// trailing the status are kept raw in Extra.
type Done struct {
	Code  int32  `json:"code"`
	Bare  bool   `json:"bare,omitempty"`
	Extra []byte `json:"extra,omitempty"`
}

func (d *Done) MessageType() uint16 { return NLMSG_DONE }

func (d *Done) MarshalBody() ([]byte, error) {
	if d.Bare {
		return cloneBytes(d.Extra), nil
	}
	b := make([]byte, 4, 4+len(d.Extra))
	native.PutUint32(b, uint32(d.Code))
	return append(b, d.Extra...), nil
}
