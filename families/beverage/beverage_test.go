package beverage

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
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

func roundTrip(t *testing.T, c *netlink.Codec, in *netlink.Message) *netlink.Message {
	t.Helper()
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	out, _, err := c.DecodeOne(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	return out
}

func TestCoffeeForAda(t *testing.T) {
	c := newCodec(t)

	in := &netlink.Message{
		Header: netlink.Header{Flags: NLM_F_SERVE | NLM_F_DRINK, Sequence: 1},
		Body:   NewOrder(COFFEE, HOT, "Ada").WithCaffeine(95).WithHotness(80),
	}
	out := roundTrip(t, c, in)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	m := out.Body.(*Message)
	if m.Header.Variant != COFFEE || m.Header.Family != HOT {
		t.Errorf("got a %s %s", m.Header.Family, m.Header.Variant)
	}
	if *m.PersonName != "Ada" || *m.CaffeineContent != 95 || *m.Hotness != 80 {
		t.Errorf("unexpected attributes %+v", m)
	}

	flags := c.Flags(out.Header)
	if !flags.Has("SERVE") || !flags.Has("DRINK") || flags.Has("SPILL") || flags.Has("WASH") {
		t.Errorf("unexpected flags %s", flags)
	}
	if diff := cmp.Diff([]string{"SERVE", "DRINK"}, flags.Names()); diff != "" {
		t.Errorf("flag names mismatch (-want +got):\n%s", diff)
	}
}

func TestEveryFlagSubset(t *testing.T) {
	c := newCodec(t)

	names := []string{"SPILL", "SERVE", "DRINK", "WASH"}
	for mask := 0; mask < 1<<len(names); mask++ {
		f := netlink.FlagsFromBits(netlink.NLM_F_REQUEST, Flags)
		for i, name := range names {
			if mask&(1<<i) != 0 {
				if err := f.Set(name); err != nil {
					t.Fatalf("error setting %s: %v", name, err)
				}
			}
		}

		out := roundTrip(t, c, &netlink.Message{
			Header: netlink.Header{Flags: f.Bits()},
			Body:   NewOrder(TEA, COLD, "Bob"),
		})

		got := c.Flags(out.Header)
		for i, name := range names {
			if got.Has(name) != (mask&(1<<i) != 0) {
				t.Errorf("mask %04b: Has(%s) = %t", mask, name, got.Has(name))
			}
		}
	}
}

func TestUnknownBitsAndValues(t *testing.T) {
	c := newCodec(t)

	in := &netlink.Message{
		// 1<<12 means nothing to us yet.
		Header: netlink.Header{Flags: NLM_F_WASH | 1<<12},
		Body: &Message{
			Header: BvgGenMsg{Family: 7, Variant: 9, ResourceID: 101},
			Extra: []netlink.Attribute{
				netlink.NewString(42, "oat milk"),
				netlink.NewNested(43, netlink.NewUint8(1, 1)),
			},
		},
	}
	out := roundTrip(t, c, in)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	flags := c.Flags(out.Header)
	if flags.Unknown() != 1<<12 || !flags.Has("WASH") {
		t.Errorf("unexpected flags %s", flags)
	}

	m := out.Body.(*Message)
	if m.Header.Family.String() != "UNKNOWN_FAMILY_7" || m.Header.Variant.String() != "UNKNOWN_VARIANT_9" {
		t.Errorf("got %s and %s", m.Header.Family, m.Header.Variant)
	}
}

func TestAdditions(t *testing.T) {
	c := newCodec(t)

	order := NewOrder(TEA, HOT, "Alice").WithHotness(95)
	order.Additions = NewAdditions(20, 2)

	out := roundTrip(t, c, &netlink.Message{Body: order})
	if diff := cmp.Diff(order, out.Body); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAdditionsReencoding(t *testing.T) {
	c := newCodec(t)

	tests := map[string][]netlink.Attribute{
		"empty":   nil,
		"milk":    {netlink.NewUint32(BVG_ADD_MILK, 10)},
		"twice":   {netlink.NewUint32(BVG_ADD_MILK, 10), netlink.NewUint32(BVG_ADD_MILK, 20)},
		"unknown": {netlink.NewUint32(BVG_ADD_SUGAR, 1), netlink.NewBytes(9, []byte{0xde, 0xad, 0xbe, 0xef})},
	}

	for name, children := range tests {
		t.Run(name, func(t *testing.T) {
			body, err := netlink.MarshalBody(BvgGenMsg{Family: HOT, Variant: TEA}, netlink.NewAttributeSet(
				netlink.NewNested(BVG_A_ADDITIONS, children...),
			))
			if err != nil {
				t.Fatalf("error marshalling: %v", err)
			}

			out := roundTrip(t, c, &netlink.Message{Body: &netlink.Opaque{Type: BEVERAGE, Data: body}})
			again, err := out.Body.(*Message).MarshalBody()
			if err != nil {
				t.Fatalf("error re-encoding: %v", err)
			}
			if diff := cmp.Diff(body, again); diff != "" {
				t.Errorf("re-encoding mismatch (-want +got):\n%s", diff)
			}
		})
	}

	body, _ := netlink.MarshalBody(BvgGenMsg{}, netlink.NewAttributeSet(netlink.NewNested(BVG_A_ADDITIONS,
		netlink.NewUint32(BVG_ADD_MILK, 10),
		netlink.NewUint32(BVG_ADD_MILK, 20),
	)))
	out := roundTrip(t, c, &netlink.Message{Body: &netlink.Opaque{Type: BEVERAGE, Data: body}})
	add := out.Body.(*Message).Additions
	if add.MilkML == nil || *add.MilkML != 10 {
		t.Errorf("the first milk should win: %v", add.MilkML)
	}
	if add.SugarCubes != nil {
		t.Errorf("sugar was never asked for: %d", *add.SugarCubes)
	}
}

func TestShortHeader(t *testing.T) {
	c := newCodec(t)

	b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: BEVERAGE, Data: []byte{2, 1}}})
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if _, _, err := c.DecodeOne(b); !errors.Is(err, netlink.ErrTruncatedHeader) {
		t.Errorf("got %v; want ErrTruncatedHeader", err)
	}
}

func TestMalformedHotness(t *testing.T) {
	c := newCodec(t)

	body, _ := netlink.MarshalBody(BvgGenMsg{Family: HOT, Variant: TEA}, netlink.NewAttributeSet(
		netlink.NewUint64(BVG_A_HOTNESS, 80),
	))
	b, err := c.Encode(&netlink.Message{Body: &netlink.Opaque{Type: BEVERAGE, Data: body}})
	if err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if _, _, err := c.DecodeOne(b); !errors.Is(err, netlink.ErrMalformedAttribute) {
		t.Errorf("got %v; want ErrMalformedAttribute", err)
	}
}
