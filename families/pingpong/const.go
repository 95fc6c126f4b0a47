package pingpong

// Message types. Anything below NLMSG_MIN_TYPE (0x10) is reserved, so we
// simply picked two values above it.
const (
	PING uint16 = 18
	PONG uint16 = 20
)

// Attribute types.
const (
	PINGPONG_A_UNSPEC uint16 = iota
	PINGPONG_A_MSG
	PINGPONG_A_COOKIE
	PINGPONG_A_TIMESTAMP
	PINGPONG_A_ORIGIN
)

// Attributes nested within PINGPONG_A_ORIGIN.
const (
	PINGPONG_ORIGIN_UNSPEC uint16 = iota
	PINGPONG_ORIGIN_HOST
	PINGPONG_ORIGIN_PID
)

// HeaderLen is the size of the fixed header preceding the attributes.
const HeaderLen = 4

var attrName = map[uint16]string{
	PINGPONG_A_MSG:       "PINGPONG_A_MSG",
	PINGPONG_A_COOKIE:    "PINGPONG_A_COOKIE",
	PINGPONG_A_TIMESTAMP: "PINGPONG_A_TIMESTAMP",
	PINGPONG_A_ORIGIN:    "PINGPONG_A_ORIGIN",
}
