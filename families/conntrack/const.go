package conntrack

// All of these constants' names make the linter complain, but we inherited
// them from the kernel's uapi headers (linux/netfilter/nfnetlink*.h), so
// we will keep them as they are...
const (
	NFNL_SUBSYS_CTNETLINK = 1

	IPCTNL_MSG_CT_NEW    = 0
	IPCTNL_MSG_CT_GET    = 1
	IPCTNL_MSG_CT_DELETE = 2

	// NFNETLINK_V0 is the only nfgenmsg version there is.
	NFNETLINK_V0 = 0
)

// Message types: the subsystem goes in the upper byte and the message in
// the lower one.
const (
	CT_NEW    uint16 = NFNL_SUBSYS_CTNETLINK<<8 | IPCTNL_MSG_CT_NEW
	CT_GET    uint16 = NFNL_SUBSYS_CTNETLINK<<8 | IPCTNL_MSG_CT_GET
	CT_DELETE uint16 = NFNL_SUBSYS_CTNETLINK<<8 | IPCTNL_MSG_CT_DELETE
)

// HeaderLen is the size of struct nfgenmsg.
const HeaderLen = 4

// enum ctattr_type
const (
	CTA_UNSPEC uint16 = iota
	CTA_TUPLE_ORIG
	CTA_TUPLE_REPLY
	CTA_STATUS
	CTA_PROTOINFO
	CTA_HELP
	CTA_NAT_SRC
	CTA_TIMEOUT
	CTA_MARK
	CTA_COUNTERS_ORIG
	CTA_COUNTERS_REPLY
	CTA_USE
	CTA_ID
	CTA_NAT_DST
	CTA_TUPLE_MASTER
	CTA_SEQ_ADJ_ORIG
	CTA_SEQ_ADJ_REPLY
	CTA_SECMARK
	CTA_ZONE
)

// enum ctattr_tuple
const (
	CTA_TUPLE_UNSPEC uint16 = iota
	CTA_TUPLE_IP
	CTA_TUPLE_PROTO
	CTA_TUPLE_ZONE
)

// enum ctattr_ip
const (
	CTA_IP_UNSPEC uint16 = iota
	CTA_IP_V4_SRC
	CTA_IP_V4_DST
	CTA_IP_V6_SRC
	CTA_IP_V6_DST
)

// enum ctattr_l4proto
const (
	CTA_PROTO_UNSPEC uint16 = iota
	CTA_PROTO_NUM
	CTA_PROTO_SRC_PORT
	CTA_PROTO_DST_PORT
	CTA_PROTO_ICMP_ID
	CTA_PROTO_ICMP_TYPE
	CTA_PROTO_ICMP_CODE
	CTA_PROTO_ICMPV6_ID
	CTA_PROTO_ICMPV6_TYPE
	CTA_PROTO_ICMPV6_CODE
)

// enum ctattr_protoinfo
const (
	CTA_PROTOINFO_UNSPEC uint16 = iota
	CTA_PROTOINFO_TCP
)

// enum ctattr_protoinfo_tcp
const (
	CTA_PROTOINFO_TCP_UNSPEC uint16 = iota
	CTA_PROTOINFO_TCP_STATE
	CTA_PROTOINFO_TCP_WSCALE_ORIGINAL
	CTA_PROTOINFO_TCP_WSCALE_REPLY
	CTA_PROTOINFO_TCP_FLAGS_ORIGINAL
	CTA_PROTOINFO_TCP_FLAGS_REPLY
)

// enum ctattr_counters
const (
	CTA_COUNTERS_UNSPEC uint16 = iota
	CTA_COUNTERS_PACKETS
	CTA_COUNTERS_BYTES
	CTA_COUNTERS32_PACKETS
	CTA_COUNTERS32_BYTES
	CTA_COUNTERS_PAD
)

// enum tcp_conntrack. Note these differ from the TCP_* socket states.
const (
	TCP_CONNTRACK_NONE        TCPState = 0
	TCP_CONNTRACK_SYN_SENT    TCPState = 1
	TCP_CONNTRACK_SYN_RECV    TCPState = 2
	TCP_CONNTRACK_ESTABLISHED TCPState = 3
	TCP_CONNTRACK_FIN_WAIT    TCPState = 4
	TCP_CONNTRACK_CLOSE_WAIT  TCPState = 5
	TCP_CONNTRACK_LAST_ACK    TCPState = 6
	TCP_CONNTRACK_TIME_WAIT   TCPState = 7
	TCP_CONNTRACK_CLOSE       TCPState = 8
	TCP_CONNTRACK_LISTEN      TCPState = 9 // or TCP_CONNTRACK_SYN_SENT2
	TCP_CONNTRACK_MAX         TCPState = 10
	TCP_CONNTRACK_IGNORE      TCPState = 11
)

var tcpStateName = map[TCPState]string{
	0:  "NONE",
	1:  "SYN_SENT",
	2:  "SYN_RECV",
	3:  "ESTABLISHED",
	4:  "FIN_WAIT",
	5:  "CLOSE_WAIT",
	6:  "LAST_ACK",
	7:  "TIME_WAIT",
	8:  "CLOSE",
	9:  "LISTEN",
	10: "MAX",
	11: "IGNORE",
}

// enum ip_conntrack_status
const (
	IPS_EXPECTED      Status = 1 << 0
	IPS_SEEN_REPLY    Status = 1 << 1
	IPS_ASSURED       Status = 1 << 2
	IPS_CONFIRMED     Status = 1 << 3
	IPS_SRC_NAT       Status = 1 << 4
	IPS_DST_NAT       Status = 1 << 5
	IPS_SEQ_ADJUST    Status = 1 << 6
	IPS_SRC_NAT_DONE  Status = 1 << 7
	IPS_DST_NAT_DONE  Status = 1 << 8
	IPS_DYING         Status = 1 << 9
	IPS_FIXED_TIMEOUT Status = 1 << 10
	IPS_TEMPLATE      Status = 1 << 11
	IPS_UNTRACKED     Status = 1 << 12
	IPS_HELPER        Status = 1 << 13
	IPS_OFFLOAD       Status = 1 << 14
	IPS_HW_OFFLOAD    Status = 1 << 15
)

// statusNames is ordered by bit.
var statusNames = []struct {
	bit  Status
	name string
}{
	{IPS_EXPECTED, "EXPECTED"},
	{IPS_SEEN_REPLY, "SEEN_REPLY"},
	{IPS_ASSURED, "ASSURED"},
	{IPS_CONFIRMED, "CONFIRMED"},
	{IPS_SRC_NAT, "SRC_NAT"},
	{IPS_DST_NAT, "DST_NAT"},
	{IPS_SEQ_ADJUST, "SEQ_ADJUST"},
	{IPS_SRC_NAT_DONE, "SRC_NAT_DONE"},
	{IPS_DST_NAT_DONE, "DST_NAT_DONE"},
	{IPS_DYING, "DYING"},
	{IPS_FIXED_TIMEOUT, "FIXED_TIMEOUT"},
	{IPS_TEMPLATE, "TEMPLATE"},
	{IPS_UNTRACKED, "UNTRACKED"},
	{IPS_HELPER, "HELPER"},
	{IPS_OFFLOAD, "OFFLOAD"},
	{IPS_HW_OFFLOAD, "HW_OFFLOAD"},
}

var attrName = map[uint16]string{
	CTA_TUPLE_ORIG:     "CTA_TUPLE_ORIG",
	CTA_TUPLE_REPLY:    "CTA_TUPLE_REPLY",
	CTA_STATUS:         "CTA_STATUS",
	CTA_PROTOINFO:      "CTA_PROTOINFO",
	CTA_TIMEOUT:        "CTA_TIMEOUT",
	CTA_MARK:           "CTA_MARK",
	CTA_COUNTERS_ORIG:  "CTA_COUNTERS_ORIG",
	CTA_COUNTERS_REPLY: "CTA_COUNTERS_REPLY",
	CTA_USE:            "CTA_USE",
	CTA_ID:             "CTA_ID",
	CTA_ZONE:           "CTA_ZONE",
}
