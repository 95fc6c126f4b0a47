package netlink

import (
	"fmt"
	"strings"
)

// Flag names one or more bits of nlmsg_flags. Flags spanning several bits
// (NLM_F_DUMP for instance) are only considered set when all of them are.
type Flag struct {
	Name string
	Bits uint16
}

// Vocabulary is the ordered list of flags a message type understands. The
// upper byte of nlmsg_flags is reused by every family, so the same bits
// get different names depending on who reads them.
type Vocabulary []Flag

// StandardFlags are valid for every message type.
var StandardFlags = Vocabulary{
	{"REQUEST", NLM_F_REQUEST},
	{"MULTI", NLM_F_MULTI},
	{"ACK", NLM_F_ACK},
	{"ECHO", NLM_F_ECHO},
	{"DUMP_INTR", NLM_F_DUMP_INTR},
	{"DUMP_FILTERED", NLM_F_DUMP_FILTERED},
}

var (
	GetFlags = StandardFlags.With(
		Flag{"ROOT", NLM_F_ROOT},
		Flag{"MATCH", NLM_F_MATCH},
		Flag{"ATOMIC", NLM_F_ATOMIC},
		Flag{"DUMP", NLM_F_DUMP},
	)

	NewFlags = StandardFlags.With(
		Flag{"REPLACE", NLM_F_REPLACE},
		Flag{"EXCL", NLM_F_EXCL},
		Flag{"CREATE", NLM_F_CREATE},
		Flag{"APPEND", NLM_F_APPEND},
	)
)

// With returns a new vocabulary extending v. The receiver is left as is.
func (v Vocabulary) With(flags ...Flag) Vocabulary {
	out := make(Vocabulary, 0, len(v)+len(flags))
	out = append(out, v...)
	return append(out, flags...)
}

func (v Vocabulary) Lookup(name string) (Flag, bool) {
	for _, f := range v {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Flag{}, false
}

func (v Vocabulary) known() uint16 {
	var mask uint16
	for _, f := range v {
		mask |= f.Bits
	}
	return mask
}

// FlagSet interprets nlmsg_flags through a vocabulary. Bits the vocabulary
// doesn't name are carried along untouched.
type FlagSet struct {
	bits  uint16
	vocab Vocabulary
}

func FlagsFromBits(bits uint16, vocab Vocabulary) FlagSet {
	return FlagSet{bits: bits, vocab: vocab}
}

func (f FlagSet) Bits() uint16 {
	return f.bits
}

// Has reports whether every bit of the named flag is set. Unknown names
// are never set.
func (f FlagSet) Has(name string) bool {
	fl, ok := f.vocab.Lookup(name)
	if !ok || fl.Bits == 0 {
		return false
	}
	return f.bits&fl.Bits == fl.Bits
}

func (f *FlagSet) Set(name string) error {
	fl, ok := f.vocab.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown flag %q", name)
	}
	f.bits |= fl.Bits
	return nil
}

func (f *FlagSet) Clear(name string) error {
	fl, ok := f.vocab.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown flag %q", name)
	}
	f.bits &^= fl.Bits
	return nil
}

// Names lists the flags that are set in vocabulary order. Composite flags
// are listed alongside their components.
func (f FlagSet) Names() []string {
	var names []string
	for _, fl := range f.vocab {
		if fl.Bits != 0 && f.bits&fl.Bits == fl.Bits {
			names = append(names, fl.Name)
		}
	}
	return names
}

// Unknown returns the bits no flag in the vocabulary accounts for.
func (f FlagSet) Unknown() uint16 {
	return f.bits &^ f.vocab.known()
}

func (f FlagSet) String() string {
	names := f.Names()
	if u := f.Unknown(); u != 0 {
		names = append(names, fmt.Sprintf("%#x", u))
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func (f FlagSet) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
