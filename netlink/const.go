package netlink

// All of these constants' names make the linter complain, but we inherited
// them from the kernel's uapi headers (linux/netlink.h), so we will keep them.
const (
	// NLMSG_HDRLEN is the size of struct nlmsghdr.
	NLMSG_HDRLEN = 16

	// NLMSG_ALIGNTO is the alignment of every netlink message.
	NLMSG_ALIGNTO = 4

	// NLA_HDRLEN is the size of struct nlattr.
	NLA_HDRLEN = 4

	// NLA_ALIGNTO is the alignment of every attribute.
	NLA_ALIGNTO = 4

	// NLA_MAX_PAYLOAD is the largest payload representable in nla_len.
	NLA_MAX_PAYLOAD = 0xFFFF - NLA_HDRLEN
)

// Reserved control message types. Families must pick types at or above
// NLMSG_MIN_TYPE.
const (
	NLMSG_NOOP     uint16 = 0x1
	NLMSG_ERROR    uint16 = 0x2
	NLMSG_DONE     uint16 = 0x3
	NLMSG_OVERRUN  uint16 = 0x4
	NLMSG_MIN_TYPE uint16 = 0x10
)

// Standard header flags, see netlink(7).
const (
	NLM_F_REQUEST       uint16 = 0x1
	NLM_F_MULTI         uint16 = 0x2
	NLM_F_ACK           uint16 = 0x4
	NLM_F_ECHO          uint16 = 0x8
	NLM_F_DUMP_INTR     uint16 = 0x10
	NLM_F_DUMP_FILTERED uint16 = 0x20

	// Modifiers to GET requests.
	NLM_F_ROOT   uint16 = 0x100
	NLM_F_MATCH  uint16 = 0x200
	NLM_F_ATOMIC uint16 = 0x400
	NLM_F_DUMP   uint16 = NLM_F_ROOT | NLM_F_MATCH

	// Modifiers to NEW requests.
	NLM_F_REPLACE uint16 = 0x100
	NLM_F_EXCL    uint16 = 0x200
	NLM_F_CREATE  uint16 = 0x400
	NLM_F_APPEND  uint16 = 0x800
)

// Bits carried in nla_type on top of the attribute type itself.
const (
	NLA_F_NESTED        uint16 = 1 << 15
	NLA_F_NET_BYTEORDER uint16 = 1 << 14
	NLA_TYPE_MASK       uint16 = ^(NLA_F_NESTED | NLA_F_NET_BYTEORDER)
)

var controlTypeName = map[uint16]string{
	NLMSG_NOOP:    "NLMSG_NOOP",
	NLMSG_ERROR:   "NLMSG_ERROR",
	NLMSG_DONE:    "NLMSG_DONE",
	NLMSG_OVERRUN: "NLMSG_OVERRUN",
}

func nlmsgAlign(n int) int {
	return (n + NLMSG_ALIGNTO - 1) &^ (NLMSG_ALIGNTO - 1)
}

func nlaAlign(n int) int {
	return (n + NLA_ALIGNTO - 1) &^ (NLA_ALIGNTO - 1)
}
