package netlink

import (
	"fmt"

	mnl "github.com/mdlayher/netlink"
)

// NetlinkMessage converts m into a message ready to be handed to
// (*mnl.Conn).Send. Just like Encode, m's header is finalised: its Length
// is the unpadded nlmsg_len the kernel writes. The returned header's
// Length is that value aligned to NLMSG_ALIGNTO instead, as mdlayher
// insists on the length covering Data, padding included.
func (c *Codec) NetlinkMessage(m *Message) (mnl.Message, error) {
	if m == nil || m.Body == nil {
		return mnl.Message{}, fmt.Errorf("cannot convert a message without a body")
	}

	body, err := m.Body.MarshalBody()
	if err != nil {
		return mnl.Message{}, fmt.Errorf("error marshalling body of type %#x: %w", m.Body.MessageType(), err)
	}

	m.Header.Length = uint32(NLMSG_HDRLEN + len(body))
	m.Header.Type = m.Body.MessageType()

	// The socket insists on lengths being aligned.
	body = append(body, make([]byte, nlmsgAlign(len(body))-len(body))...)

	return mnl.Message{
		Header: mnl.Header{
			Length:   uint32(NLMSG_HDRLEN + len(body)),
			Type:     mnl.HeaderType(m.Header.Type),
			Flags:    mnl.HeaderFlags(m.Header.Flags),
			Sequence: m.Header.Sequence,
			PID:      m.Header.PortID,
		},
		Data: body,
	}, nil
}

// FromNetlinkMessage decodes a message returned by (*mnl.Conn).Receive.
// The socket has already parsed the header, so the declared length is
// recomputed from the data it handed us.
func (c *Codec) FromNetlinkMessage(nm mnl.Message) (*Message, error) {
	b := appendHeader(make([]byte, 0, NLMSG_HDRLEN+len(nm.Data)), Header{
		Length:   uint32(NLMSG_HDRLEN + len(nm.Data)),
		Type:     uint16(nm.Header.Type),
		Flags:    uint16(nm.Header.Flags),
		Sequence: nm.Header.Sequence,
		PortID:   nm.Header.PID,
	})
	b = append(b, nm.Data...)

	m, _, err := c.DecodeOne(b)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FromNetlinkMessages decodes a batch as returned by (*mnl.Conn).Receive.
func (c *Codec) FromNetlinkMessages(nms []mnl.Message) ([]*Message, error) {
	msgs := make([]*Message, 0, len(nms))
	for i, nm := range nms {
		m, err := c.FromNetlinkMessage(nm)
		if err != nil {
			return nil, fmt.Errorf("error decoding message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
