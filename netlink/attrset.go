package netlink

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttributeSet is an ordered list of attributes. Several attributes may
// share a type: all of them are kept in wire order and it's up to the
// family whether the first or the last one wins. The zero value is an
// empty set ready to use.
type AttributeSet struct {
	attrs []Attribute
}

// NewAttributeSet returns a set holding attrs in order.
func NewAttributeSet(attrs ...Attribute) *AttributeSet {
	s := &AttributeSet{}
	s.Push(attrs...)
	return s
}

// Push appends attributes to the end of the set.
func (s *AttributeSet) Push(attrs ...Attribute) {
	s.attrs = append(s.attrs, attrs...)
}

// Len is nil-safe.
func (s *AttributeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.attrs)
}

// Attributes returns a copy of the attributes in wire order.
func (s *AttributeSet) Attributes() []Attribute {
	if s.Len() == 0 {
		return nil
	}
	return append([]Attribute(nil), s.attrs...)
}

// All returns every attribute of type t in wire order.
func (s *AttributeSet) All(t uint16) []Attribute {
	var out []Attribute
	for _, a := range s.Attributes() {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// First returns the first attribute of type t.
func (s *AttributeSet) First(t uint16) (Attribute, bool) {
	if s == nil {
		return Attribute{}, false
	}
	for _, a := range s.attrs {
		if a.Type == t {
			return a, true
		}
	}
	return Attribute{}, false
}

// EncodedLen returns the number of bytes Encode would produce.
func (s *AttributeSet) EncodedLen() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, a := range s.attrs {
		n += a.EncodedLen()
	}
	return n
}

// AppendTo appends every attribute, each padded to NLA_ALIGNTO, to b.
func (s *AttributeSet) AppendTo(b []byte) ([]byte, error) {
	if s == nil {
		return b, nil
	}
	var err error
	for i, a := range s.attrs {
		if b, err = a.AppendTo(b); err != nil {
			return b, fmt.Errorf("error encoding attribute %d: %w", i, err)
		}
	}
	return b, nil
}

func (s *AttributeSet) Encode() ([]byte, error) {
	return s.AppendTo(make([]byte, 0, s.EncodedLen()))
}

func (s *AttributeSet) String() string {
	parts := make([]string, 0, s.Len())
	for _, a := range s.Attributes() {
		parts = append(parts, a.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Equal reports whether both sets hold the same attributes in the same
// order. Nil and empty sets are equal. It also lets go-cmp compare sets.
func (s *AttributeSet) Equal(o *AttributeSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if !s.attrs[i].Equal(o.attrs[i]) {
			return false
		}
	}
	return true
}

func (s *AttributeSet) MarshalJSON() ([]byte, error) {
	attrs := s.Attributes()
	if attrs == nil {
		attrs = []Attribute{}
	}
	return json.Marshal(attrs)
}

func (s *AttributeSet) UnmarshalJSON(b []byte) error {
	var attrs []Attribute
	if err := json.Unmarshal(b, &attrs); err != nil {
		return err
	}
	s.attrs = attrs
	return nil
}
