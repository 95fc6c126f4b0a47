package families

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scitags/nlcodec/netlink"
)

func TestRegister(t *testing.T) {
	c := netlink.NewCodec(nil)
	if err := Register(c); err != nil {
		t.Fatalf("error registering: %v", err)
	}

	var got []string
	for _, f := range c.Families() {
		got = append(got, f.Name)
	}
	if diff := cmp.Diff(Names(), got); diff != "" {
		t.Errorf("families mismatch (-want +got):\n%s", diff)
	}

	// Twice is once too many.
	if err := Register(c, "beverage"); err == nil {
		t.Errorf("registering beverage twice should fail")
	}
}

func TestUnknownFamily(t *testing.T) {
	if err := Register(netlink.NewCodec(nil), "pingpong", "nfqueue"); err == nil {
		t.Errorf("nfqueue shouldn't be registered")
	}
}
