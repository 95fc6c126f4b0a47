package netlink

import (
	"encoding/binary"

	ne "github.com/josharian/native"
)

var (
	// Netlink headers and most attribute payloads travel in host byte order.
	native binary.ByteOrder = ne.Endian

	// Payloads flagged with NLA_F_NET_BYTEORDER (and most of netfilter's)
	// are big endian.
	networkOrder binary.ByteOrder = binary.BigEndian
)

// NativeEndian returns the host byte order netlink headers are encoded in.
// Families with fixed headers in host order should use it too.
func NativeEndian() binary.ByteOrder {
	return native
}

// IsBigEndian reports whether the host stores integers big endian. Tests
// carrying captured little endian datagrams use it to bail out.
func IsBigEndian() bool {
	return ne.IsBigEndian
}

func appendUint16(b []byte, order binary.ByteOrder, v uint16) []byte {
	var t [2]byte
	order.PutUint16(t[:], v)
	return append(b, t[:]...)
}

func appendUint32(b []byte, order binary.ByteOrder, v uint32) []byte {
	var t [4]byte
	order.PutUint32(t[:], v)
	return append(b, t[:]...)
}

func appendUint64(b []byte, order binary.ByteOrder, v uint64) []byte {
	var t [8]byte
	order.PutUint64(t[:], v)
	return append(b, t[:]...)
}
