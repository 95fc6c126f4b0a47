// Package beverage implements a made up netlink family ordering teas and
// coffees. It exercises a fixed family header, family scoped flags and a
// nested attribute.
package beverage

import (
	"fmt"

	"github.com/scitags/nlcodec/netlink"
)

func (f BvgGenFamily) String() string {
	s, ok := familyName[f]
	if !ok {
		return fmt.Sprintf("UNKNOWN_FAMILY_%d", uint8(f))
	}
	return s
}

func (v Variant) String() string {
	s, ok := variantName[v]
	if !ok {
		return fmt.Sprintf("UNKNOWN_VARIANT_%d", uint8(v))
	}
	return s
}

// BvgGenMsg is the fixed header following nlmsghdr. Unknown families and
// variants are kept as is so that newer peers can still talk to us.
type BvgGenMsg struct {
	Family     BvgGenFamily `json:"family"`
	Variant    Variant      `json:"variant"`
	ResourceID uint16       `json:"resourceID"`
}

func (h BvgGenMsg) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderLen)
	b[0] = byte(h.Family)
	b[1] = byte(h.Variant)
	netlink.NativeEndian().PutUint16(b[2:4], h.ResourceID)
	return b, nil
}

func (h *BvgGenMsg) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderLen {
		return fmt.Errorf("%w: bvggenmsg needs %d bytes; got %d", netlink.ErrTruncatedHeader, HeaderLen, len(b))
	}
	h.Family = BvgGenFamily(b[0])
	h.Variant = Variant(b[1])
	h.ResourceID = netlink.NativeEndian().Uint16(b[2:4])
	return nil
}

// Additions go into the cup on top of the drink itself. Like Message, nil
// fields aren't encoded and repeated children end up in Extra.
type Additions struct {
	MilkML     *uint32 `json:"milkML,omitempty"`
	SugarCubes *uint32 `json:"sugarCubes,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty"`
}

// NewAdditions asks for both milk and sugar.
func NewAdditions(milkML, sugarCubes uint32) *Additions {
	return &Additions{MilkML: &milkML, SugarCubes: &sugarCubes}
}

func (a *Additions) attribute() netlink.Attribute {
	n := netlink.NewNested(BVG_A_ADDITIONS)
	if a.MilkML != nil {
		n.Children.Push(netlink.NewUint32(BVG_ADD_MILK, *a.MilkML))
	}
	if a.SugarCubes != nil {
		n.Children.Push(netlink.NewUint32(BVG_ADD_SUGAR, *a.SugarCubes))
	}
	n.Children.Push(a.Extra...)
	return n
}

func (a *Additions) decode(attrs *netlink.AttributeSet) error {
	for _, c := range attrs.Attributes() {
		switch {
		case c.Type == BVG_ADD_MILK && a.MilkML == nil:
			v, err := c.AsUint32()
			if err != nil {
				return fmt.Errorf("error decoding BVG_ADD_MILK: %w", err)
			}
			a.MilkML = &v
		case c.Type == BVG_ADD_SUGAR && a.SugarCubes == nil:
			v, err := c.AsUint32()
			if err != nil {
				return fmt.Errorf("error decoding BVG_ADD_SUGAR: %w", err)
			}
			a.SugarCubes = &v
		default:
			a.Extra = append(a.Extra, c)
		}
	}
	return nil
}

// Message is the body of a BEVERAGE message. Nil fields aren't encoded.
// Extra holds attributes we don't know about together with repeated
// occurrences of known ones.
type Message struct {
	Header BvgGenMsg `json:"header"`

	CaffeineContent *uint32    `json:"caffeineContent,omitempty"`
	Hotness         *uint32    `json:"hotness,omitempty"`
	PersonName      *string    `json:"personName,omitempty"`
	Additions       *Additions `json:"additions,omitempty"`

	Extra []netlink.Attribute `json:"extra,omitempty"`
}

// NewOrder builds a message for name's drink.
func NewOrder(variant Variant, family BvgGenFamily, name string) *Message {
	return &Message{
		Header:     BvgGenMsg{Family: family, Variant: variant},
		PersonName: &name,
	}
}

// WithCaffeine and WithHotness make building orders less verbose.
func (m *Message) WithCaffeine(mg uint32) *Message {
	m.CaffeineContent = &mg
	return m
}

func (m *Message) WithHotness(degrees uint32) *Message {
	m.Hotness = &degrees
	return m
}

func (m *Message) MessageType() uint16 { return BEVERAGE }

func (m *Message) Attributes() *netlink.AttributeSet {
	s := &netlink.AttributeSet{}
	if m.CaffeineContent != nil {
		s.Push(netlink.NewUint32(BVG_A_CAFFEINE_CONTENT, *m.CaffeineContent))
	}
	if m.Hotness != nil {
		s.Push(netlink.NewUint32(BVG_A_HOTNESS, *m.Hotness))
	}
	if m.PersonName != nil {
		s.Push(netlink.NewString(BVG_A_PERSON_NAME, *m.PersonName))
	}
	if m.Additions != nil {
		s.Push(m.Additions.attribute())
	}
	s.Push(m.Extra...)
	return s
}

func (m *Message) MarshalBody() ([]byte, error) {
	return netlink.MarshalBody(m.Header, m.Attributes())
}

// Family decodes BEVERAGE messages.
type Family struct{}

func (Family) Name() string { return "beverage" }

func (Family) HeaderLen() int { return HeaderLen }

func (Family) Flags(uint16) netlink.Vocabulary { return Flags }

func (Family) DecodeBody(h netlink.Header, famHdr []byte, attrs *netlink.AttributeSet) (netlink.Body, error) {
	m := &Message{}
	if err := m.Header.UnmarshalBinary(famHdr); err != nil {
		return nil, err
	}

	for _, a := range attrs.Attributes() {
		if err := m.decodeAttr(a); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", attrName[a.Type], err)
		}
	}

	return m, nil
}

func (m *Message) decodeAttr(a netlink.Attribute) error {
	switch {
	case a.Type == BVG_A_CAFFEINE_CONTENT && m.CaffeineContent == nil:
		v, err := a.AsUint32()
		if err != nil {
			return err
		}
		m.CaffeineContent = &v
	case a.Type == BVG_A_HOTNESS && m.Hotness == nil:
		v, err := a.AsUint32()
		if err != nil {
			return err
		}
		m.Hotness = &v
	case a.Type == BVG_A_PERSON_NAME && m.PersonName == nil:
		v, err := a.AsString()
		if err != nil {
			return err
		}
		m.PersonName = &v
	case a.Type == BVG_A_ADDITIONS && m.Additions == nil:
		children, err := a.Nest()
		if err != nil {
			return err
		}
		m.Additions = &Additions{}
		return m.Additions.decode(children)
	default:
		m.Extra = append(m.Extra, a)
	}
	return nil
}

// Register binds the family to the codec.
func Register(c *netlink.Codec) error {
	return c.Register(Family{}, BEVERAGE)
}
