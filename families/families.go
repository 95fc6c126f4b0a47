// Package families ties every family we ship to its name so that they can
// be picked from a configuration file.
package families

import (
	"fmt"
	"slices"
	"strings"

	"github.com/scitags/nlcodec/families/beverage"
	"github.com/scitags/nlcodec/families/conntrack"
	"github.com/scitags/nlcodec/families/pingpong"
	"github.com/scitags/nlcodec/netlink"
)

var registrars = map[string]func(*netlink.Codec) error{
	"pingpong":  pingpong.Register,
	"beverage":  beverage.Register,
	"conntrack": conntrack.Register,
}

// Names returns the available families sorted by name.
func Names() []string {
	names := make([]string, 0, len(registrars))
	for name := range registrars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register binds the named families to c. Every family is registered when
// no name is given.
func Register(c *netlink.Codec, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		register, ok := registrars[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown family %q; choose from %s", name, strings.Join(Names(), ", "))
		}
		if err := register(c); err != nil {
			return fmt.Errorf("error registering family %q: %w", name, err)
		}
	}
	return nil
}
