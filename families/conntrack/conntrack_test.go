package conntrack

import (
	"encoding/json"
	"errors"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"github.com/scitags/nlcodec/netlink"
)

func newCodec(t *testing.T) *netlink.Codec {
	t.Helper()
	c := netlink.NewCodec(nil)
	if err := Register(c); err != nil {
		t.Fatalf("error registering the family: %v", err)
	}
	return c
}

// netip.Addr has no Equal method but is comparable.
var addrs = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func ptr[T any](v T) *T {
	return &v
}

func sampleEntry(srcPort uint16, packets uint64) *Entry {
	status := IPS_SEEN_REPLY | IPS_ASSURED | IPS_CONFIRMED
	return &Entry{
		Type:   CT_NEW,
		Header: Nfgenmsg{Family: unix.AF_INET, Version: NFNETLINK_V0},
		Origin: &Tuple{
			Src:     netip.MustParseAddr("192.168.1.10"),
			Dst:     netip.MustParseAddr("188.184.21.108"),
			Proto:   unix.IPPROTO_TCP,
			SrcPort: srcPort,
			DstPort: 443,
		},
		Reply: &Tuple{
			Src:     netip.MustParseAddr("188.184.21.108"),
			Dst:     netip.MustParseAddr("192.168.1.10"),
			Proto:   unix.IPPROTO_TCP,
			SrcPort: 443,
			DstPort: srcPort,
		},
		Status: &status,
		ProtoInfo: &ProtoInfo{TCP: &ProtoInfoTCP{
			State:       TCP_CONNTRACK_ESTABLISHED,
			WScaleOrig:  7,
			WScaleReply: 9,
			FlagsOrig:   TCPFlags{Flags: 0x23, Mask: 0x23},
			FlagsReply:  TCPFlags{Flags: 0x23, Mask: 0x23},
		}},
		Timeout:       ptr(uint32(431999)),
		Mark:          ptr(uint32(0)),
		CountersOrig:  &Counters{Packets: packets, Bytes: packets * 1500},
		CountersReply: &Counters{Packets: packets / 2, Bytes: packets * 40},
		Use:           ptr(uint32(1)),
		ID:            ptr(uint32(0xdeadbeef)),
	}
}

// The request below was captured with wireshark whilst running
// `conntrack -L` on a little endian box.
func TestDumpRequestWire(t *testing.T) {
	if netlink.IsBigEndian() {
		t.Skip("the capture was taken on a little endian host")
	}

	c := newCodec(t)

	want := []byte{
		0x14, 0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x03,
		0xb9, 0x80, 0xc2, 0x68, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}

	b, err := c.Encode(NewDumpRequest(1757577401, unix.AF_UNSPEC))
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}

	m, n, err := c.DecodeOne(want)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if n != len(want) {
		t.Errorf("consumed %d bytes; want %d", n, len(want))
	}
	if diff := cmp.Diff(NewDumpRequest(1757577401, unix.AF_UNSPEC).Body, m.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	flags := c.Flags(m.Header)
	if diff := cmp.Diff([]string{"REQUEST", "ROOT", "MATCH", "DUMP"}, flags.Names()); diff != "" {
		t.Errorf("flag names mismatch (-want +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	c := newCodec(t)

	var msgs []*netlink.Message
	for i := range 3 {
		msgs = append(msgs, &netlink.Message{
			Header: netlink.Header{Flags: netlink.NLM_F_MULTI, Sequence: 9, PortID: 1234},
			Body:   sampleEntry(uint16(40000+i), uint64(10*(i+1))),
		})
	}
	msgs = append(msgs, &netlink.Message{
		Header: netlink.Header{Flags: netlink.NLM_F_MULTI, Sequence: 9, PortID: 1234},
		Body:   &netlink.Done{},
	})

	b, err := c.EncodeAll(msgs...)
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}

	d, err := c.DecodeDump(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if !d.Complete() || d.Error != nil {
		t.Fatalf("the dump should be complete and error free: %+v", d)
	}
	if len(d.Messages) != 3 {
		t.Fatalf("got %d entries; want 3", len(d.Messages))
	}
	if diff := cmp.Diff(msgs[:3], d.Messages, addrs); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}

	for i, m := range d.Messages {
		e := m.Body.(*Entry)
		if e.Origin.SrcPort != uint16(40000+i) || e.CountersOrig.Packets != uint64(10*(i+1)) {
			t.Errorf("entry %d: %s", i, e)
		}
	}
}

func TestContainersWithoutNestedFlag(t *testing.T) {
	c := newCodec(t)

	ip, err := netlink.NewAttributeSet(
		netlink.NewBytes(CTA_IP_V6_SRC, netip.MustParseAddr("2001:db8::1").AsSlice()),
		netlink.NewBytes(CTA_IP_V6_DST, netip.MustParseAddr("2001:db8::2").AsSlice()),
	).Encode()
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	proto, _ := netlink.NewAttributeSet(
		netlink.NewUint8(CTA_PROTO_NUM, unix.IPPROTO_ICMPV6),
		netlink.NewBigEndian16(CTA_PROTO_ICMPV6_ID, 77),
		netlink.NewUint8(CTA_PROTO_ICMPV6_TYPE, 128),
		netlink.NewUint8(CTA_PROTO_ICMPV6_CODE, 0),
	).Encode()
	tuple, _ := netlink.NewAttributeSet(
		netlink.Attribute{Type: CTA_TUPLE_IP, Data: ip},
		netlink.Attribute{Type: CTA_TUPLE_PROTO, Data: proto},
	).Encode()
	counters, _ := netlink.NewAttributeSet(
		netlink.NewBigEndian32(CTA_COUNTERS32_PACKETS, 3),
		netlink.NewBigEndian32(CTA_COUNTERS32_BYTES, 312),
	).Encode()

	body, err := netlink.MarshalBody(Nfgenmsg{Family: unix.AF_INET6}, netlink.NewAttributeSet(
		netlink.Attribute{Type: CTA_TUPLE_ORIG, Data: tuple},
		netlink.Attribute{Type: CTA_COUNTERS_ORIG, Data: counters},
		netlink.NewBigEndian16(CTA_ZONE, 5),
	))
	if err != nil {
		t.Fatalf("error marshalling: %v", err)
	}

	b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: CT_NEW, Data: body}})
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	m, _, err := c.DecodeOne(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}

	want := &Entry{
		Type:   CT_NEW,
		Header: Nfgenmsg{Family: unix.AF_INET6},
		Origin: &Tuple{
			Src:      netip.MustParseAddr("2001:db8::1"),
			Dst:      netip.MustParseAddr("2001:db8::2"),
			Proto:    unix.IPPROTO_ICMPV6,
			ICMPID:   77,
			ICMPType: 128,
		},
		CountersOrig: &Counters{Packets: 3, Bytes: 312},
		Zone:         ptr(uint16(5)),
	}
	if diff := cmp.Diff(want, m.Body, addrs); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestGetAndDeleteRequests(t *testing.T) {
	c := newCodec(t)

	orig := &Tuple{
		Src:     netip.MustParseAddr("10.0.0.1"),
		Dst:     netip.MustParseAddr("10.0.0.2"),
		Proto:   unix.IPPROTO_UDP,
		SrcPort: 5353,
		DstPort: 53,
	}

	get, err := NewGetRequest(1, orig)
	if err != nil {
		t.Fatalf("error building the get request: %v", err)
	}
	del, err := NewDeleteRequest(2, orig)
	if err != nil {
		t.Fatalf("error building the delete request: %v", err)
	}

	for _, req := range []*netlink.Message{get, del} {
		b, err := c.Encode(req)
		if err != nil {
			t.Fatalf("error encoding: %v", err)
		}
		m, _, err := c.DecodeOne(b)
		if err != nil {
			t.Fatalf("error decoding: %v", err)
		}
		if diff := cmp.Diff(req, m, addrs); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}

		e := m.Body.(*Entry)
		if e.Header.Family != unix.AF_INET {
			t.Errorf("family = %d; want AF_INET", e.Header.Family)
		}
		if !c.Flags(m.Header).Has("ACK") {
			t.Errorf("%#x requests should ask for an ACK", e.Type)
		}
	}
}

func TestBadRequestTuples(t *testing.T) {
	tests := map[string]*Tuple{
		"nil":   nil,
		"empty": {Proto: unix.IPPROTO_TCP},
		"mixed": {Src: netip.MustParseAddr("10.0.0.1"), Dst: netip.MustParseAddr("2001:db8::1")},
	}

	for name, orig := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewGetRequest(1, orig); !errors.Is(err, ErrAddressFamily) {
				t.Errorf("get: got %v; want ErrAddressFamily", err)
			}
			if _, err := NewDeleteRequest(1, orig); !errors.Is(err, ErrAddressFamily) {
				t.Errorf("delete: got %v; want ErrAddressFamily", err)
			}
		})
	}

	e := sampleEntry(40000, 10)
	e.Reply.Dst = netip.MustParseAddr("2001:db8::1")
	if _, err := e.MarshalBody(); !errors.Is(err, ErrAddressFamily) {
		t.Errorf("got %v; want ErrAddressFamily", err)
	}
}

// Decoding and encoding again must give back the very same bytes, even
// when the containers hold repeated or unknown children.
func TestNestedReencoding(t *testing.T) {
	c := newCodec(t)

	unknown := netlink.NewBytes(9, []byte{0xde, 0xad, 0xbe, 0xef})
	src := netlink.NewBytes(CTA_IP_V4_SRC, []byte{10, 0, 0, 1})
	dst := netlink.NewBytes(CTA_IP_V4_DST, []byte{10, 0, 0, 2})
	num := netlink.NewUint8(CTA_PROTO_NUM, unix.IPPROTO_TCP)
	sport := netlink.NewBigEndian16(CTA_PROTO_SRC_PORT, 40000)
	dport := netlink.NewBigEndian16(CTA_PROTO_DST_PORT, 443)
	counters := []netlink.Attribute{
		netlink.NewBigEndian64(CTA_COUNTERS_PACKETS, 10),
		netlink.NewBigEndian64(CTA_COUNTERS_BYTES, 1500),
	}

	tests := map[string][]netlink.Attribute{
		"counters": {
			netlink.NewNested(CTA_COUNTERS_ORIG, append(counters, unknown)...),
			netlink.NewNested(CTA_COUNTERS_REPLY, append(counters, netlink.NewBigEndian64(CTA_COUNTERS_PACKETS, 11))...),
		},
		"ip": {
			netlink.NewNested(CTA_TUPLE_ORIG,
				netlink.NewNested(CTA_TUPLE_IP, src, dst, src, unknown),
				netlink.NewNested(CTA_TUPLE_PROTO, num, sport, dport),
			),
		},
		"mixed families": {
			netlink.NewNested(CTA_TUPLE_ORIG,
				netlink.NewNested(CTA_TUPLE_IP, src,
					netlink.NewBytes(CTA_IP_V6_DST, netip.MustParseAddr("2001:db8::1").AsSlice())),
				netlink.NewNested(CTA_TUPLE_PROTO, num, sport, dport),
			),
		},
		"proto": {
			netlink.NewNested(CTA_TUPLE_ORIG,
				netlink.NewNested(CTA_TUPLE_IP, src, dst),
				netlink.NewNested(CTA_TUPLE_PROTO, num, sport, dport, sport,
					netlink.NewBigEndian16(CTA_PROTO_ICMP_ID, 7), unknown),
			),
		},
		"protoinfo": {
			netlink.NewNested(CTA_PROTOINFO,
				netlink.NewNested(CTA_PROTOINFO_TCP,
					netlink.NewUint8(CTA_PROTOINFO_TCP_STATE, uint8(TCP_CONNTRACK_ESTABLISHED)),
					netlink.NewUint8(CTA_PROTOINFO_TCP_WSCALE_ORIGINAL, 7),
					netlink.NewUint8(CTA_PROTOINFO_TCP_WSCALE_REPLY, 9),
					netlink.NewBytes(CTA_PROTOINFO_TCP_FLAGS_ORIGINAL, []byte{0x23, 0x23}),
					netlink.NewBytes(CTA_PROTOINFO_TCP_FLAGS_REPLY, []byte{0x23, 0x23}),
					netlink.NewUint8(CTA_PROTOINFO_TCP_STATE, uint8(TCP_CONNTRACK_CLOSE)),
				),
			),
		},
	}

	for name, attrs := range tests {
		t.Run(name, func(t *testing.T) {
			body, err := netlink.MarshalBody(Nfgenmsg{Family: unix.AF_INET}, netlink.NewAttributeSet(attrs...))
			if err != nil {
				t.Fatalf("error marshalling: %v", err)
			}
			b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: CT_NEW, Data: body}})
			if err != nil {
				t.Fatalf("error encoding: %v", err)
			}
			m, _, err := c.DecodeOne(b)
			if err != nil {
				t.Fatalf("error decoding: %v", err)
			}

			again, err := m.Body.MarshalBody()
			if err != nil {
				t.Fatalf("error re-encoding: %v", err)
			}
			if diff := cmp.Diff(body, again); diff != "" {
				t.Errorf("re-encoding mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFirstOccurrenceWins(t *testing.T) {
	c := newCodec(t)

	body, _ := netlink.MarshalBody(Nfgenmsg{Family: unix.AF_INET}, netlink.NewAttributeSet(
		netlink.NewNested(CTA_TUPLE_ORIG,
			netlink.NewNested(CTA_TUPLE_IP,
				netlink.NewBytes(CTA_IP_V4_SRC, []byte{10, 0, 0, 1}),
				netlink.NewBytes(CTA_IP_V4_SRC, []byte{10, 0, 0, 9}),
			),
			netlink.NewNested(CTA_TUPLE_PROTO,
				netlink.NewUint8(CTA_PROTO_NUM, unix.IPPROTO_UDP),
				netlink.NewBigEndian16(CTA_PROTO_SRC_PORT, 1),
				netlink.NewBigEndian16(CTA_PROTO_SRC_PORT, 2),
			),
		),
		netlink.NewNested(CTA_COUNTERS_ORIG,
			netlink.NewBigEndian64(CTA_COUNTERS_PACKETS, 5),
			netlink.NewBigEndian32(CTA_COUNTERS32_PACKETS, 6),
		),
	))
	b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: CT_NEW, Data: body}})
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	m, _, err := c.DecodeOne(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}

	e := m.Body.(*Entry)
	if e.Origin.Src != netip.MustParseAddr("10.0.0.1") || len(e.Origin.IPExtra) != 1 {
		t.Errorf("unexpected addresses %s (extra %v)", e.Origin.Src, e.Origin.IPExtra)
	}
	if e.Origin.SrcPort != 1 || len(e.Origin.ProtoExtra) != 1 {
		t.Errorf("unexpected ports %d (extra %v)", e.Origin.SrcPort, e.Origin.ProtoExtra)
	}
	if e.CountersOrig.Packets != 5 || len(e.CountersOrig.Extra) != 1 {
		t.Errorf("unexpected counters %+v", e.CountersOrig)
	}
	if len(e.Origin.Extra) != 0 {
		t.Errorf("nothing should leak out of the tuple's containers: %v", e.Origin.Extra)
	}
}

func TestResIDIsBigEndian(t *testing.T) {
	b, _ := Nfgenmsg{Family: unix.AF_INET, ResID: 0x0102}.MarshalBinary()
	if diff := cmp.Diff([]byte{unix.AF_INET, 0, 1, 2}, b); diff != "" {
		t.Errorf("nfgenmsg mismatch (-want +got):\n%s", diff)
	}
}

func TestMalformedAddress(t *testing.T) {
	c := newCodec(t)

	body, _ := netlink.MarshalBody(Nfgenmsg{Family: unix.AF_INET}, netlink.NewAttributeSet(
		netlink.NewNested(CTA_TUPLE_ORIG,
			netlink.NewNested(CTA_TUPLE_IP, netlink.NewBytes(CTA_IP_V4_SRC, []byte{10, 0, 0})),
		),
	))
	b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: CT_NEW, Data: body}})
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if _, _, err := c.DecodeOne(b); !errors.Is(err, netlink.ErrMalformedAttribute) {
		t.Errorf("got %v; want ErrMalformedAttribute", err)
	}
}

func TestVerbosity(t *testing.T) {
	tests := map[string]struct {
		verbosity string
		present   []string
		absent    []string
	}{
		"default": {
			present: []string{"type", "header", "origin", "reply", "status", "timeout", "id"},
		},
		"lean": {
			verbosity: "lean",
			present:   []string{"origin", "reply", "status", "countersOrig"},
			absent:    []string{"type", "header", "timeout", "mark", "id"},
		},
		"bogus": {
			verbosity: "bogus",
			present:   []string{"timeout"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := sampleEntry(40000, 10)
			e.Verbosity = tc.verbosity

			b, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("error marshalling: %v", err)
			}

			var got map[string]any
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("error unmarshalling: %v", err)
			}
			for _, k := range tc.present {
				if _, ok := got[k]; !ok {
					t.Errorf("key %q is missing from %s", k, b)
				}
			}
			for _, k := range tc.absent {
				if _, ok := got[k]; ok {
					t.Errorf("key %q shouldn't be in %s", k, b)
				}
			}
		})
	}
}

func TestStrings(t *testing.T) {
	e := sampleEntry(40000, 10)

	want := "tcp 192.168.1.10:40000 -> 188.184.21.108:443 ESTABLISHED [SEEN_REPLY|ASSURED|CONFIRMED] packets=10/5 bytes=15000/400"
	if got := e.String(); got != want {
		t.Errorf("got %q; want %q", got, want)
	}
	if got := TCPState(42).String(); got != "UNKNOWN_STATE_42" {
		t.Errorf("got %q", got)
	}
	if got := (IPS_DYING | 1<<20).String(); got != "DYING|0x100000" {
		t.Errorf("got %q", got)
	}
}
