package netlink

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Length:   20,
		Type:     0x0101,
		Flags:    NLM_F_REQUEST | NLM_F_DUMP,
		Sequence: 1757577401,
		PortID:   4242,
	}

	b, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("error marshalling: %v", err)
	}
	if len(b) != NLMSG_HDRLEN {
		t.Fatalf("marshalled %d bytes; want %d", len(b), NLMSG_HDRLEN)
	}

	got, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var u Header
	if err := u.UnmarshalBinary(b); err != nil || u != h {
		t.Errorf("UnmarshalBinary() = %v, %v; want %v", u, err, h)
	}
}

func TestHeaderLayout(t *testing.T) {
	skipBigEndian(t)

	b, _ := Header{Length: 0x14, Type: 0x0101, Flags: 0x0301, Sequence: 0x68c280b9, PortID: 0}.MarshalBinary()
	want := []byte{
		0x14, 0x00, 0x00, 0x00,
		0x01, 0x01,
		0x01, 0x03,
		0xb9, 0x80, 0xc2, 0x68,
		0x00, 0x00, 0x00, 0x00,
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	full, _ := Header{Length: 16}.MarshalBinary()
	short, _ := Header{Length: 15}.MarshalBinary()

	tests := map[string][]byte{
		"nil":         nil,
		"fifteen":     full[:15],
		"lengthBelow": short,
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeHeader(in); !errors.Is(err, ErrTruncatedHeader) {
				t.Errorf("got %v; want ErrTruncatedHeader", err)
			}
		})
	}
}
