// Package conntrack implements the subset of ctnetlink (the netfilter
// connection tracking family) needed to dump, get and delete entries. It's
// the one real world family we speak: values are big endian and the
// containers aren't always flagged as nested.
package conntrack

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/fatih/structs"
	"golang.org/x/sys/unix"

	"github.com/scitags/nlcodec/netlink"
)

// ErrAddressFamily is returned when a tuple can't be encoded because its
// addresses belong to different families or because there is none.
var ErrAddressFamily = errors.New("conntrack: bad tuple addresses")

// validTags encodes valid struct tags allowing for the control of the
// marshalling of Entry structs.
var validTags = map[string]struct{}{
	// The default: every field we know about.
	"structs": {},

	// When leveraging the lean tag only the tuples, the status and the
	// counters are marshalled.
	"lean": {},
}

// TCPState is a conntrack TCP state as found in CTA_PROTOINFO_TCP_STATE.
type TCPState uint8

func (s TCPState) String() string {
	name, ok := tcpStateName[s]
	if !ok {
		return fmt.Sprintf("UNKNOWN_STATE_%d", uint8(s))
	}
	return name
}

func (s TCPState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the ip_conntrack_status bitmask.
type Status uint32

func (s Status) String() string {
	if s == 0 {
		return "0"
	}
	var names []string
	rest := s
	for _, n := range statusNames {
		if s&n.bit != 0 {
			names = append(names, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Nfgenmsg is the header shared by every nfnetlink subsystem. ResID is
// big endian on the wire.
type Nfgenmsg struct {
	Family  uint8  `json:"family" structs:"family" lean:"-"`
	Version uint8  `json:"version" structs:"version" lean:"-"`
	ResID   uint16 `json:"resID" structs:"resID" lean:"-"`
}

func (h Nfgenmsg) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderLen)
	b[0] = h.Family
	b[1] = h.Version
	binary.BigEndian.PutUint16(b[2:4], h.ResID)
	return b, nil
}

func (h *Nfgenmsg) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderLen {
		return fmt.Errorf("%w: nfgenmsg needs %d bytes; got %d", netlink.ErrTruncatedHeader, HeaderLen, len(b))
	}
	h.Family = b[0]
	h.Version = b[1]
	h.ResID = binary.BigEndian.Uint16(b[2:4])
	return nil
}

// Tuple identifies one direction of a connection. Ports are only
// meaningful for protocols having them and the ICMP fields for ICMP(v6).
type Tuple struct {
	Src   netip.Addr `json:"src" structs:"src,omitnested" lean:"src,omitnested"`
	Dst   netip.Addr `json:"dst" structs:"dst,omitnested" lean:"dst,omitnested"`
	Proto uint8      `json:"proto" structs:"proto" lean:"proto"`

	SrcPort uint16 `json:"srcPort,omitempty" structs:"srcPort,omitempty" lean:"srcPort,omitempty"`
	DstPort uint16 `json:"dstPort,omitempty" structs:"dstPort,omitempty" lean:"dstPort,omitempty"`

	ICMPID   uint16 `json:"icmpID,omitempty" structs:"icmpID,omitempty" lean:"-"`
	ICMPType uint8  `json:"icmpType,omitempty" structs:"icmpType,omitempty" lean:"-"`
	ICMPCode uint8  `json:"icmpCode,omitempty" structs:"icmpCode,omitempty" lean:"-"`

	Zone *uint16 `json:"zone,omitempty" structs:"zone,omitempty" lean:"-"`

	// IPExtra and ProtoExtra keep what we didn't understand within
	// CTA_TUPLE_IP and CTA_TUPLE_PROTO so that it's put back in place.
	IPExtra    []netlink.Attribute `json:"ipExtra,omitempty" structs:"ipExtra,omitempty,omitnested" lean:"-"`
	ProtoExtra []netlink.Attribute `json:"protoExtra,omitempty" structs:"protoExtra,omitempty,omitnested" lean:"-"`
	Extra      []netlink.Attribute `json:"extra,omitempty" structs:"extra,omitempty,omitnested" lean:"-"`
}

func hasPorts(proto uint8) bool {
	switch proto {
	case unix.IPPROTO_TCP, unix.IPPROTO_UDP, unix.IPPROTO_UDPLITE, unix.IPPROTO_SCTP, unix.IPPROTO_DCCP:
		return true
	}
	return false
}

var protoName = map[uint8]string{
	unix.IPPROTO_ICMP:    "icmp",
	unix.IPPROTO_TCP:     "tcp",
	unix.IPPROTO_UDP:     "udp",
	unix.IPPROTO_DCCP:    "dccp",
	unix.IPPROTO_ICMPV6:  "icmpv6",
	unix.IPPROTO_SCTP:    "sctp",
	unix.IPPROTO_UDPLITE: "udplite",
}

func (t *Tuple) String() string {
	proto, ok := protoName[t.Proto]
	if !ok {
		proto = fmt.Sprintf("proto-%d", t.Proto)
	}
	if hasPorts(t.Proto) {
		return fmt.Sprintf("%s %s -> %s", proto,
			netip.AddrPortFrom(t.Src, t.SrcPort), netip.AddrPortFrom(t.Dst, t.DstPort))
	}
	return fmt.Sprintf("%s %s -> %s", proto, t.Src, t.Dst)
}

// l3family returns the address family of the tuple's addresses, which
// must agree with one another.
func (t *Tuple) l3family() (uint8, error) {
	if t.Src.IsValid() && t.Dst.IsValid() && t.Src.Is4() != t.Dst.Is4() {
		return 0, fmt.Errorf("%w: tuple mixes %s and %s", ErrAddressFamily, t.Src, t.Dst)
	}
	if t.Src.Is4() || t.Dst.Is4() {
		return unix.AF_INET, nil
	}
	return unix.AF_INET6, nil
}

func (t *Tuple) attribute(kind uint16) (netlink.Attribute, error) {
	a := netlink.NewNested(kind)

	if t.Src.IsValid() || t.Dst.IsValid() || len(t.IPExtra) > 0 {
		family, err := t.l3family()
		if err != nil {
			return netlink.Attribute{}, err
		}
		ip := netlink.NewNested(CTA_TUPLE_IP)
		if family == unix.AF_INET {
			pushAddr(ip.Children, CTA_IP_V4_SRC, t.Src)
			pushAddr(ip.Children, CTA_IP_V4_DST, t.Dst)
		} else {
			pushAddr(ip.Children, CTA_IP_V6_SRC, t.Src)
			pushAddr(ip.Children, CTA_IP_V6_DST, t.Dst)
		}
		ip.Children.Push(t.IPExtra...)
		a.Children.Push(ip)
	}

	proto := netlink.NewNested(CTA_TUPLE_PROTO, netlink.NewUint8(CTA_PROTO_NUM, t.Proto))
	switch {
	case hasPorts(t.Proto):
		proto.Children.Push(
			netlink.NewBigEndian16(CTA_PROTO_SRC_PORT, t.SrcPort),
			netlink.NewBigEndian16(CTA_PROTO_DST_PORT, t.DstPort),
		)
	case t.Proto == unix.IPPROTO_ICMP:
		proto.Children.Push(
			netlink.NewBigEndian16(CTA_PROTO_ICMP_ID, t.ICMPID),
			netlink.NewUint8(CTA_PROTO_ICMP_TYPE, t.ICMPType),
			netlink.NewUint8(CTA_PROTO_ICMP_CODE, t.ICMPCode),
		)
	case t.Proto == unix.IPPROTO_ICMPV6:
		proto.Children.Push(
			netlink.NewBigEndian16(CTA_PROTO_ICMPV6_ID, t.ICMPID),
			netlink.NewUint8(CTA_PROTO_ICMPV6_TYPE, t.ICMPType),
			netlink.NewUint8(CTA_PROTO_ICMPV6_CODE, t.ICMPCode),
		)
	}
	proto.Children.Push(t.ProtoExtra...)
	a.Children.Push(proto)

	if t.Zone != nil {
		a.Children.Push(netlink.NewBigEndian16(CTA_TUPLE_ZONE, *t.Zone))
	}
	a.Children.Push(t.Extra...)

	return a, nil
}

func pushAddr(s *netlink.AttributeSet, t uint16, addr netip.Addr) {
	if addr.IsValid() {
		s.Push(netlink.NewBytes(t, addr.AsSlice()))
	}
}

func (t *Tuple) decode(attrs *netlink.AttributeSet) error {
	var hasIP, hasProto bool
	for _, a := range attrs.Attributes() {
		var err error
		switch {
		case a.Type == CTA_TUPLE_IP && !hasIP:
			hasIP = true
			err = t.decodeIP(a)
		case a.Type == CTA_TUPLE_PROTO && !hasProto:
			hasProto = true
			err = t.decodeProto(a)
		case a.Type == CTA_TUPLE_ZONE && t.Zone == nil:
			var v uint16
			if v, err = a.AsBigEndian16(); err == nil {
				t.Zone = &v
			}
		default:
			t.Extra = append(t.Extra, a)
		}
		if err != nil {
			return fmt.Errorf("error decoding tuple attribute %d: %w", a.Type, err)
		}
	}
	return nil
}

// decodeIP keeps the first source and destination. Repeated addresses,
// addresses of the other family and unknown children go to IPExtra.
func (t *Tuple) decodeIP(a netlink.Attribute) error {
	children, err := a.Nest()
	if err != nil {
		return err
	}
	for _, c := range children.Attributes() {
		var (
			addr netip.Addr
			dst  *netip.Addr
		)
		switch c.Type {
		case CTA_IP_V4_SRC, CTA_IP_V4_DST:
			v, err := c.AsSized(4)
			if err != nil {
				return err
			}
			addr = netip.AddrFrom4([4]byte(v))
		case CTA_IP_V6_SRC, CTA_IP_V6_DST:
			v, err := c.AsSized(16)
			if err != nil {
				return err
			}
			addr = netip.AddrFrom16([16]byte(v))
		}
		switch c.Type {
		case CTA_IP_V4_SRC, CTA_IP_V6_SRC:
			dst = &t.Src
		case CTA_IP_V4_DST, CTA_IP_V6_DST:
			dst = &t.Dst
		}

		other := t.Src
		if dst == &t.Src {
			other = t.Dst
		}
		if dst == nil || dst.IsValid() || (other.IsValid() && other.Is4() != addr.Is4()) {
			t.IPExtra = append(t.IPExtra, c)
			continue
		}
		*dst = addr
	}
	return nil
}

// protoChildren lists the children of CTA_TUPLE_PROTO that make sense for
// proto besides CTA_PROTO_NUM, in the order the kernel puts them in.
func protoChildren(proto uint8) []uint16 {
	switch {
	case hasPorts(proto):
		return []uint16{CTA_PROTO_SRC_PORT, CTA_PROTO_DST_PORT}
	case proto == unix.IPPROTO_ICMP:
		return []uint16{CTA_PROTO_ICMP_ID, CTA_PROTO_ICMP_TYPE, CTA_PROTO_ICMP_CODE}
	case proto == unix.IPPROTO_ICMPV6:
		return []uint16{CTA_PROTO_ICMPV6_ID, CTA_PROTO_ICMPV6_TYPE, CTA_PROTO_ICMPV6_CODE}
	}
	return nil
}

// decodeProto needs the protocol number to know which children it can
// make sense of. The first occurrence of each wins. Everything else,
// including ports on a protocol without them, goes to ProtoExtra.
func (t *Tuple) decodeProto(a netlink.Attribute) error {
	children, err := a.Nest()
	if err != nil {
		return err
	}

	num, ok := children.First(CTA_PROTO_NUM)
	if ok {
		if t.Proto, err = num.AsUint8(); err != nil {
			return err
		}
	}

	known := protoChildren(t.Proto)
	seen := map[uint16]bool{}
	for _, c := range children.Attributes() {
		if seen[c.Type] || (c.Type != CTA_PROTO_NUM && !slices.Contains(known, c.Type)) {
			t.ProtoExtra = append(t.ProtoExtra, c)
			continue
		}
		seen[c.Type] = true

		var err error
		switch c.Type {
		case CTA_PROTO_SRC_PORT:
			t.SrcPort, err = c.AsBigEndian16()
		case CTA_PROTO_DST_PORT:
			t.DstPort, err = c.AsBigEndian16()
		case CTA_PROTO_ICMP_ID, CTA_PROTO_ICMPV6_ID:
			t.ICMPID, err = c.AsBigEndian16()
		case CTA_PROTO_ICMP_TYPE, CTA_PROTO_ICMPV6_TYPE:
			t.ICMPType, err = c.AsUint8()
		case CTA_PROTO_ICMP_CODE, CTA_PROTO_ICMPV6_CODE:
			t.ICMPCode, err = c.AsUint8()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// TCPFlags mirrors struct nf_ct_tcp_flags.
type TCPFlags struct {
	Flags uint8 `json:"flags" structs:"flags"`
	Mask  uint8 `json:"mask" structs:"mask"`
}

// ProtoInfoTCP is the TCP specific tracking state.
type ProtoInfoTCP struct {
	State       TCPState `json:"state" structs:"state" lean:"state"`
	WScaleOrig  uint8    `json:"wscaleOrig" structs:"wscaleOrig" lean:"-"`
	WScaleReply uint8    `json:"wscaleReply" structs:"wscaleReply" lean:"-"`
	FlagsOrig   TCPFlags `json:"flagsOrig" structs:"flagsOrig" lean:"-"`
	FlagsReply  TCPFlags `json:"flagsReply" structs:"flagsReply" lean:"-"`

	Extra []netlink.Attribute `json:"extra,omitempty" structs:"extra,omitempty,omitnested" lean:"-"`
}

// ProtoInfo only knows about TCP: other protocols end up in Extra.
type ProtoInfo struct {
	TCP *ProtoInfoTCP `json:"tcp,omitempty" structs:"tcp,omitempty" lean:"tcp,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty" structs:"extra,omitempty,omitnested" lean:"-"`
}

func (p *ProtoInfo) attribute() netlink.Attribute {
	a := netlink.NewNested(CTA_PROTOINFO)
	if p.TCP != nil {
		tcp := netlink.NewNested(CTA_PROTOINFO_TCP,
			netlink.NewUint8(CTA_PROTOINFO_TCP_STATE, uint8(p.TCP.State)),
			netlink.NewUint8(CTA_PROTOINFO_TCP_WSCALE_ORIGINAL, p.TCP.WScaleOrig),
			netlink.NewUint8(CTA_PROTOINFO_TCP_WSCALE_REPLY, p.TCP.WScaleReply),
			netlink.NewBytes(CTA_PROTOINFO_TCP_FLAGS_ORIGINAL, []byte{p.TCP.FlagsOrig.Flags, p.TCP.FlagsOrig.Mask}),
			netlink.NewBytes(CTA_PROTOINFO_TCP_FLAGS_REPLY, []byte{p.TCP.FlagsReply.Flags, p.TCP.FlagsReply.Mask}),
		)
		tcp.Children.Push(p.TCP.Extra...)
		a.Children.Push(tcp)
	}
	a.Children.Push(p.Extra...)
	return a
}

func (p *ProtoInfo) decode(attrs *netlink.AttributeSet) error {
	for _, a := range attrs.Attributes() {
		if a.Type != CTA_PROTOINFO_TCP || p.TCP != nil {
			p.Extra = append(p.Extra, a)
			continue
		}
		children, err := a.Nest()
		if err != nil {
			return err
		}
		p.TCP = &ProtoInfoTCP{}
		if err := p.TCP.decode(children); err != nil {
			return fmt.Errorf("error decoding CTA_PROTOINFO_TCP: %w", err)
		}
	}
	return nil
}

// decode keeps the first occurrence of every child; repeated ones and
// unknown ones go to Extra.
func (p *ProtoInfoTCP) decode(attrs *netlink.AttributeSet) error {
	seen := map[uint16]bool{}
	for _, a := range attrs.Attributes() {
		if seen[a.Type] {
			p.Extra = append(p.Extra, a)
			continue
		}
		seen[a.Type] = true

		var err error
		switch a.Type {
		case CTA_PROTOINFO_TCP_STATE:
			var v uint8
			v, err = a.AsUint8()
			p.State = TCPState(v)
		case CTA_PROTOINFO_TCP_WSCALE_ORIGINAL:
			p.WScaleOrig, err = a.AsUint8()
		case CTA_PROTOINFO_TCP_WSCALE_REPLY:
			p.WScaleReply, err = a.AsUint8()
		case CTA_PROTOINFO_TCP_FLAGS_ORIGINAL:
			var v []byte
			if v, err = a.AsSized(2); err == nil {
				p.FlagsOrig = TCPFlags{Flags: v[0], Mask: v[1]}
			}
		case CTA_PROTOINFO_TCP_FLAGS_REPLY:
			var v []byte
			if v, err = a.AsSized(2); err == nil {
				p.FlagsReply = TCPFlags{Flags: v[0], Mask: v[1]}
			}
		default:
			p.Extra = append(p.Extra, a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Counters are the accounting figures of one direction. They are only
// present when nf_conntrack_acct is enabled.
type Counters struct {
	Packets uint64 `json:"packets" structs:"packets" lean:"packets"`
	Bytes   uint64 `json:"bytes" structs:"bytes" lean:"bytes"`

	Extra []netlink.Attribute `json:"extra,omitempty" structs:"extra,omitempty,omitnested" lean:"-"`
}

func (c *Counters) attribute(kind uint16) netlink.Attribute {
	a := netlink.NewNested(kind,
		netlink.NewBigEndian64(CTA_COUNTERS_PACKETS, c.Packets),
		netlink.NewBigEndian64(CTA_COUNTERS_BYTES, c.Bytes),
	)
	a.Children.Push(c.Extra...)
	return a
}

// decode accepts both the 64 bit counters and the older 32 bit ones, which
// are re-encoded as 64 bit ones. The first packet and byte counts win:
// anything else (CTA_COUNTERS_PAD included) goes to Extra.
func (c *Counters) decode(attrs *netlink.AttributeSet) error {
	var hasPackets, hasBytes bool
	for _, a := range attrs.Attributes() {
		var err error
		switch {
		case a.Type == CTA_COUNTERS_PACKETS && !hasPackets:
			c.Packets, err = a.AsBigEndian64()
			hasPackets = true
		case a.Type == CTA_COUNTERS_BYTES && !hasBytes:
			c.Bytes, err = a.AsBigEndian64()
			hasBytes = true
		case a.Type == CTA_COUNTERS32_PACKETS && !hasPackets:
			var v uint32
			v, err = a.AsBigEndian32()
			c.Packets, hasPackets = uint64(v), true
		case a.Type == CTA_COUNTERS32_BYTES && !hasBytes:
			var v uint32
			v, err = a.AsBigEndian32()
			c.Bytes, hasBytes = uint64(v), true
		default:
			c.Extra = append(c.Extra, a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Entry is the body of every ctnetlink message. Requests only fill in the
// header and maybe a tuple, whilst dumps carry the whole thing. Nil fields
// aren't encoded. The struct tags allow for a precise control over what
// fields are marshalled, see MarshalJSON.
type Entry struct {
	Verbosity string `json:"-" structs:"-" lean:"-"`

	Type   uint16   `json:"type" structs:"type" lean:"-"`
	Header Nfgenmsg `json:"header" structs:"header" lean:"-"`

	Origin *Tuple  `json:"origin,omitempty" structs:"origin,omitempty" lean:"origin,omitempty"`
	Reply  *Tuple  `json:"reply,omitempty" structs:"reply,omitempty" lean:"reply,omitempty"`
	Status *Status `json:"status,omitempty" structs:"status,omitempty" lean:"status,omitempty"`

	ProtoInfo *ProtoInfo `json:"protoInfo,omitempty" structs:"protoInfo,omitempty" lean:"protoInfo,omitempty"`

	Timeout *uint32 `json:"timeout,omitempty" structs:"timeout,omitempty" lean:"-"`
	Mark    *uint32 `json:"mark,omitempty" structs:"mark,omitempty" lean:"-"`
	Use     *uint32 `json:"use,omitempty" structs:"use,omitempty" lean:"-"`
	ID      *uint32 `json:"id,omitempty" structs:"id,omitempty" lean:"-"`
	Zone    *uint16 `json:"zone,omitempty" structs:"zone,omitempty" lean:"-"`

	CountersOrig  *Counters `json:"countersOrig,omitempty" structs:"countersOrig,omitempty" lean:"countersOrig,omitempty"`
	CountersReply *Counters `json:"countersReply,omitempty" structs:"countersReply,omitempty" lean:"countersReply,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty" structs:"extra,omitempty,omitnested" lean:"-"`
}

// MarshalJSON leverages structs to choose what struct tag to use when
// marshalling. The default tag is `structs`; `lean` only outputs what's
// needed to tell connections apart and how busy they are. Unknown
// verbosities fall back to the default.
func (e *Entry) MarshalJSON() ([]byte, error) {
	s := structs.New(e)

	if e.Verbosity != "" {
		if _, ok := validTags[e.Verbosity]; ok {
			s.TagName = e.Verbosity
		}
	}

	return json.Marshal(s.Map())
}

// SetVerbosity picks the struct tag MarshalJSON marshals with.
func (e *Entry) SetVerbosity(v string) {
	e.Verbosity = v
}

func (e *Entry) String() string {
	var b strings.Builder
	if e.Origin != nil {
		b.WriteString(e.Origin.String())
	} else {
		fmt.Fprintf(&b, "family %d", e.Header.Family)
	}
	if e.ProtoInfo != nil && e.ProtoInfo.TCP != nil {
		fmt.Fprintf(&b, " %s", e.ProtoInfo.TCP.State)
	}
	if e.Status != nil {
		fmt.Fprintf(&b, " [%s]", *e.Status)
	}
	if e.CountersOrig != nil && e.CountersReply != nil {
		fmt.Fprintf(&b, " packets=%d/%d bytes=%d/%d",
			e.CountersOrig.Packets, e.CountersReply.Packets, e.CountersOrig.Bytes, e.CountersReply.Bytes)
	}
	return b.String()
}

func (e *Entry) MessageType() uint16 { return e.Type }

// Attributes fails with ErrAddressFamily when a tuple can't be encoded.
func (e *Entry) Attributes() (*netlink.AttributeSet, error) {
	s := &netlink.AttributeSet{}
	if e.Origin != nil {
		a, err := e.Origin.attribute(CTA_TUPLE_ORIG)
		if err != nil {
			return nil, fmt.Errorf("error encoding CTA_TUPLE_ORIG: %w", err)
		}
		s.Push(a)
	}
	if e.Reply != nil {
		a, err := e.Reply.attribute(CTA_TUPLE_REPLY)
		if err != nil {
			return nil, fmt.Errorf("error encoding CTA_TUPLE_REPLY: %w", err)
		}
		s.Push(a)
	}
	if e.Status != nil {
		s.Push(netlink.NewBigEndian32(CTA_STATUS, uint32(*e.Status)))
	}
	if e.ProtoInfo != nil {
		s.Push(e.ProtoInfo.attribute())
	}
	if e.Timeout != nil {
		s.Push(netlink.NewBigEndian32(CTA_TIMEOUT, *e.Timeout))
	}
	if e.Mark != nil {
		s.Push(netlink.NewBigEndian32(CTA_MARK, *e.Mark))
	}
	if e.CountersOrig != nil {
		s.Push(e.CountersOrig.attribute(CTA_COUNTERS_ORIG))
	}
	if e.CountersReply != nil {
		s.Push(e.CountersReply.attribute(CTA_COUNTERS_REPLY))
	}
	if e.Use != nil {
		s.Push(netlink.NewBigEndian32(CTA_USE, *e.Use))
	}
	if e.ID != nil {
		s.Push(netlink.NewBigEndian32(CTA_ID, *e.ID))
	}
	if e.Zone != nil {
		s.Push(netlink.NewBigEndian16(CTA_ZONE, *e.Zone))
	}
	s.Push(e.Extra...)
	return s, nil
}

func (e *Entry) MarshalBody() ([]byte, error) {
	switch e.Type {
	case CT_NEW, CT_GET, CT_DELETE:
	default:
		return nil, fmt.Errorf("message type %#x is not a ctnetlink one", e.Type)
	}
	attrs, err := e.Attributes()
	if err != nil {
		return nil, err
	}
	return netlink.MarshalBody(e.Header, attrs)
}

func (e *Entry) decodeAttr(a netlink.Attribute) error {
	switch {
	case a.Type == CTA_TUPLE_ORIG && e.Origin == nil:
		t, err := decodeTuple(a)
		if err != nil {
			return err
		}
		e.Origin = t
	case a.Type == CTA_TUPLE_REPLY && e.Reply == nil:
		t, err := decodeTuple(a)
		if err != nil {
			return err
		}
		e.Reply = t
	case a.Type == CTA_STATUS && e.Status == nil:
		v, err := a.AsBigEndian32()
		if err != nil {
			return err
		}
		s := Status(v)
		e.Status = &s
	case a.Type == CTA_PROTOINFO && e.ProtoInfo == nil:
		children, err := a.Nest()
		if err != nil {
			return err
		}
		e.ProtoInfo = &ProtoInfo{}
		return e.ProtoInfo.decode(children)
	case a.Type == CTA_TIMEOUT && e.Timeout == nil:
		return decodeBE32(a, &e.Timeout)
	case a.Type == CTA_MARK && e.Mark == nil:
		return decodeBE32(a, &e.Mark)
	case a.Type == CTA_USE && e.Use == nil:
		return decodeBE32(a, &e.Use)
	case a.Type == CTA_ID && e.ID == nil:
		return decodeBE32(a, &e.ID)
	case a.Type == CTA_ZONE && e.Zone == nil:
		v, err := a.AsBigEndian16()
		if err != nil {
			return err
		}
		e.Zone = &v
	case a.Type == CTA_COUNTERS_ORIG && e.CountersOrig == nil:
		c, err := decodeCounters(a)
		if err != nil {
			return err
		}
		e.CountersOrig = c
	case a.Type == CTA_COUNTERS_REPLY && e.CountersReply == nil:
		c, err := decodeCounters(a)
		if err != nil {
			return err
		}
		e.CountersReply = c
	default:
		e.Extra = append(e.Extra, a)
	}
	return nil
}

func decodeBE32(a netlink.Attribute, dst **uint32) error {
	v, err := a.AsBigEndian32()
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

func decodeTuple(a netlink.Attribute) (*Tuple, error) {
	children, err := a.Nest()
	if err != nil {
		return nil, err
	}
	t := &Tuple{}
	if err := t.decode(children); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeCounters(a netlink.Attribute) (*Counters, error) {
	children, err := a.Nest()
	if err != nil {
		return nil, err
	}
	c := &Counters{}
	if err := c.decode(children); err != nil {
		return nil, err
	}
	return c, nil
}

// Family decodes ctnetlink messages.
type Family struct{}

func (Family) Name() string { return "conntrack" }

func (Family) HeaderLen() int { return HeaderLen }

// Flags names the upper byte of nlmsg_flags the way the kernel reads it:
// GET requests take the dump modifiers and NEW ones the creation ones.
func (Family) Flags(msgType uint16) netlink.Vocabulary {
	switch msgType {
	case CT_GET:
		return netlink.GetFlags
	case CT_NEW:
		return netlink.NewFlags
	}
	return netlink.StandardFlags
}

func (Family) DecodeBody(h netlink.Header, famHdr []byte, attrs *netlink.AttributeSet) (netlink.Body, error) {
	e := &Entry{Type: h.Type}
	if err := e.Header.UnmarshalBinary(famHdr); err != nil {
		return nil, err
	}

	for _, a := range attrs.Attributes() {
		if err := e.decodeAttr(a); err != nil {
			name, ok := attrName[a.Type]
			if !ok {
				name = fmt.Sprintf("attribute %d", a.Type)
			}
			return nil, fmt.Errorf("error decoding %s: %w", name, err)
		}
	}

	return e, nil
}

// NewDumpRequest builds the request listing every entry of the given L3
// family (unix.AF_UNSPEC for all of them).
func NewDumpRequest(seq uint32, l3family uint8) *netlink.Message {
	return &netlink.Message{
		Header: netlink.Header{
			Flags:    netlink.NLM_F_REQUEST | netlink.NLM_F_DUMP,
			Sequence: seq,
		},
		Body: &Entry{
			Type:   CT_GET,
			Header: Nfgenmsg{Family: l3family, Version: NFNETLINK_V0},
		},
	}
}

// NewGetRequest asks for the single entry whose original tuple is orig.
func NewGetRequest(seq uint32, orig *Tuple) (*netlink.Message, error) {
	return tupleRequest(seq, CT_GET, netlink.NLM_F_REQUEST|netlink.NLM_F_ACK, orig)
}

// NewDeleteRequest asks the kernel to forget about the entry whose original
// tuple is orig.
func NewDeleteRequest(seq uint32, orig *Tuple) (*netlink.Message, error) {
	return tupleRequest(seq, CT_DELETE, netlink.NLM_F_REQUEST|netlink.NLM_F_ACK, orig)
}

// tupleRequest derives the L3 family from orig's addresses, so it needs
// at least one of them.
func tupleRequest(seq uint32, msgType, flags uint16, orig *Tuple) (*netlink.Message, error) {
	if orig == nil || (!orig.Src.IsValid() && !orig.Dst.IsValid()) {
		return nil, fmt.Errorf("%w: the request needs an address to look for", ErrAddressFamily)
	}
	family, err := orig.l3family()
	if err != nil {
		return nil, err
	}
	return &netlink.Message{
		Header: netlink.Header{Flags: flags, Sequence: seq},
		Body: &Entry{
			Type:   msgType,
			Header: Nfgenmsg{Family: family, Version: NFNETLINK_V0},
			Origin: orig,
		},
	}, nil
}

// Register binds the family to the codec.
func Register(c *netlink.Codec) error {
	return c.Register(Family{}, CT_NEW, CT_GET, CT_DELETE)
}
