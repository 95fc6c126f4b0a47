package beverage

import "github.com/scitags/nlcodec/netlink"

// BEVERAGE is the one message type of the family. Whether it's a tea or a
// coffee is up to BvgGenMsg.Variant.
const BEVERAGE uint16 = 0x13

// Flags reusing the upper byte of nlmsg_flags.
const (
	NLM_F_SPILL uint16 = 1 << 8
	NLM_F_SERVE uint16 = 1 << 9
	NLM_F_DRINK uint16 = 1 << 10
	NLM_F_WASH  uint16 = 1 << 11
)

// Flags is the vocabulary nlmsg_flags should be read with.
var Flags = netlink.StandardFlags.With(
	netlink.Flag{Name: "SPILL", Bits: NLM_F_SPILL},
	netlink.Flag{Name: "SERVE", Bits: NLM_F_SERVE},
	netlink.Flag{Name: "DRINK", Bits: NLM_F_DRINK},
	netlink.Flag{Name: "WASH", Bits: NLM_F_WASH},
)

// Attribute types.
const (
	BVG_A_UNSPEC uint16 = iota
	BVG_A_CAFFEINE_CONTENT
	BVG_A_HOTNESS
	BVG_A_PERSON_NAME
	BVG_A_ADDITIONS
)

// Attributes nested within BVG_A_ADDITIONS.
const (
	BVG_ADD_UNSPEC uint16 = iota
	BVG_ADD_MILK
	BVG_ADD_SUGAR
)

// HeaderLen is the size of BvgGenMsg.
const HeaderLen = 4

type BvgGenFamily uint8

const (
	HOT  BvgGenFamily = 2
	COLD BvgGenFamily = 10
)

var familyName = map[BvgGenFamily]string{
	HOT:  "HOT",
	COLD: "COLD",
}

type Variant uint8

const (
	TEA    Variant = 1
	COFFEE Variant = 2
)

var variantName = map[Variant]string{
	TEA:    "TEA",
	COFFEE: "COFFEE",
}

var attrName = map[uint16]string{
	BVG_A_CAFFEINE_CONTENT: "BVG_A_CAFFEINE_CONTENT",
	BVG_A_HOTNESS:          "BVG_A_HOTNESS",
	BVG_A_PERSON_NAME:      "BVG_A_PERSON_NAME",
	BVG_A_ADDITIONS:        "BVG_A_ADDITIONS",
}
