package agent

import (
	"fmt"
	"sort"

	"github.com/mosaicnetworks/floodnode/src/node"
)

// Registered agent names.
const (
	BroadcastName = "broadcast"
	EchoName      = "echo"
	UniqueIDsName = "unique-ids"
)

var factories = map[string]func() node.Agent{
	BroadcastName: func() node.Agent { return NewBroadcast() },
	EchoName:      func() node.Agent { return NewEcho() },
	UniqueIDsName: func() node.Agent { return NewUniqueIDs() },
}

// New returns a fresh agent registered under name.
func New(name string) (node.Agent, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q (available: %v)", name, Names())
	}
	return factory(), nil
}

// Names returns the registered agent names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
