package subcmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/scitags/nlcodec/families"
	"github.com/scitags/nlcodec/families/beverage"
	"github.com/scitags/nlcodec/families/conntrack"
	"github.com/scitags/nlcodec/families/pingpong"
	"github.com/scitags/nlcodec/netlink"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

func init() {
	BeverageDemo.Flags().StringVar(&drinker, "name", "Ada", "who the drink is for")
	ConntrackDemo.Flags().IntVar(&entries, "entries", 3, "number of entries in the dump")
}

var (
	drinker string
	entries int

	PingPongDemo = &cobra.Command{
		Use:   "pingpong",
		Short: "Answer a ping with a pong.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ping := pingpong.NewPing(1, "are you there?", 0xc0ffee)
			ping.Stamp(time.Now())

			reply, err := roundTrip("pingpong", &netlink.Message{
				Header: netlink.Header{Flags: netlink.NLM_F_REQUEST, Sequence: 1},
				Body:   ping,
			})
			if err != nil {
				return err
			}

			_, err = roundTrip("pingpong", &netlink.Message{
				Header: netlink.Header{Sequence: reply[0].Sequence()},
				Body:   reply[0].Body.(*pingpong.Message).Pong(),
			})
			return err
		},
	}

	BeverageDemo = &cobra.Command{
		Use:   "beverage",
		Short: "Order a hot coffee.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip("beverage", &netlink.Message{
				Header: netlink.Header{Flags: beverage.NLM_F_SERVE | beverage.NLM_F_DRINK, Sequence: 1},
				Body:   beverage.NewOrder(beverage.COFFEE, beverage.HOT, drinker).WithCaffeine(95).WithHotness(80),
			})
			return err
		},
	}

	ConntrackDemo = &cobra.Command{
		Use:   "conntrack",
		Short: "Request a conntrack dump and decode a made up answer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := roundTrip("conntrack", conntrack.NewDumpRequest(uint32(time.Now().Unix()), unix.AF_INET)); err != nil {
				return err
			}

			msgs := make([]*netlink.Message, 0, entries+1)
			for i := range entries {
				msgs = append(msgs, &netlink.Message{
					Header: netlink.Header{Flags: netlink.NLM_F_MULTI, Sequence: 1},
					Body:   sampleEntry(i),
				})
			}
			msgs = append(msgs, &netlink.Message{
				Header: netlink.Header{Flags: netlink.NLM_F_MULTI, Sequence: 1},
				Body:   &netlink.Done{},
			})
			_, err := roundTrip("conntrack", msgs...)
			return err
		},
	}
)

// roundTrip encodes msgs into a single datagram, prints it and then prints
// what decoding it yields.
func roundTrip(family string, msgs ...*netlink.Message) ([]*netlink.Message, error) {
	c := netlink.NewCodec(nil, netlink.WithLogger(slog.Default()))
	if err := families.Register(c, family); err != nil {
		return nil, err
	}

	b, err := c.EncodeAll(msgs...)
	if err != nil {
		return nil, fmt.Errorf("error encoding: %w", err)
	}
	fmt.Printf("encoded %d message(s) into %d bytes:\n%s", len(msgs), len(b), hex.Dump(b))

	var decoded []*netlink.Message
	for m, err := range c.DecodeAll(b) {
		if err != nil {
			return nil, err
		}
		out, err := json.MarshalIndent(m, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("error marshalling: %w", err)
		}
		fmt.Printf("decoded %s message (flags %s):\n%s\n", c.FamilyName(m.Header.Type), c.Flags(m.Header), out)
		decoded = append(decoded, m)
	}

	return decoded, nil
}

func sampleEntry(i int) *conntrack.Entry {
	status := conntrack.IPS_SEEN_REPLY | conntrack.IPS_ASSURED | conntrack.IPS_CONFIRMED
	timeout := uint32(432000 - i)
	src, dst := netip.MustParseAddr("192.168.1.10"), netip.MustParseAddr("188.184.21.108")
	srcPort := uint16(40000 + i)

	return &conntrack.Entry{
		Type:   conntrack.CT_NEW,
		Header: conntrack.Nfgenmsg{Family: unix.AF_INET, Version: conntrack.NFNETLINK_V0},
		Origin: &conntrack.Tuple{Src: src, Dst: dst, Proto: unix.IPPROTO_TCP, SrcPort: srcPort, DstPort: 443},
		Reply:  &conntrack.Tuple{Src: dst, Dst: src, Proto: unix.IPPROTO_TCP, SrcPort: 443, DstPort: srcPort},
		Status: &status,
		ProtoInfo: &conntrack.ProtoInfo{TCP: &conntrack.ProtoInfoTCP{
			State: conntrack.TCP_CONNTRACK_ESTABLISHED,
		}},
		Timeout:       &timeout,
		CountersOrig:  &conntrack.Counters{Packets: uint64(10 * (i + 1)), Bytes: uint64(15000 * (i + 1))},
		CountersReply: &conntrack.Counters{Packets: uint64(5 * (i + 1)), Bytes: uint64(400 * (i + 1))},
	}
}
