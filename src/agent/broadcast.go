package agent

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mosaicnetworks/floodnode/src/node"
	"github.com/mosaicnetworks/floodnode/src/protocol"
	"github.com/sirupsen/logrus"
)

// Broadcast implements node.Agent with flood dissemination over the declared
// topology and receiver-side deduplication.
type Broadcast struct {
	// seen maps the canonical encoding of every value to the value. It only
	// grows.
	seen map[string]interface{}

	// neighbors is nil until a topology names this node.
	neighbors []string
}

// NewBroadcast returns a Broadcast agent that has seen nothing.
func NewBroadcast() *Broadcast {
	return &Broadcast{
		seen: make(map[string]interface{}),
	}
}

// Handle implements the node.Agent interface.
func (b *Broadcast) Handle(n *node.Node, msg protocol.Message) ([]protocol.Message, error) {
	switch body := msg.Body.(type) {
	case protocol.Topology:
		return b.handleTopology(n, msg, body), nil
	case protocol.Broadcast:
		return b.handleBroadcast(n, msg, body)
	case protocol.BroadcastOk:
		// Forwards are not tracked.
		return nil, nil
	case protocol.Read:
		return b.handleRead(msg, body), nil
	default:
		return nil, node.NotSupported(msg)
	}
}

func (b *Broadcast) handleTopology(n *node.Node, msg protocol.Message, body protocol.Topology) []protocol.Message {
	entry, ok := body.Topology[n.ID()]
	if ok {
		neighbors := make([]string, 0, len(entry))
		for _, id := range entry {
			if !n.IsMember(id) {
				n.Logger().WithField("neighbor", id).Warn("Dropping neighbor outside of cluster")
				continue
			}
			neighbors = append(neighbors, id)
		}
		b.neighbors = neighbors
	} else {
		n.Logger().Warn("Topology has no entry for this node")
	}

	n.Logger().WithField("neighbors", b.neighbors).Debug("Topology")

	return []protocol.Message{msg.Reply(protocol.TopologyOk{InReplyTo: body.MsgID})}
}

func (b *Broadcast) handleBroadcast(n *node.Node, msg protocol.Message, body protocol.Broadcast) ([]protocol.Message, error) {
	out := []protocol.Message{msg.Reply(protocol.BroadcastOk{InReplyTo: body.MsgID})}

	key, err := protocol.ValueKey(body.Message)
	if err != nil {
		return out, fmt.Errorf("encoding broadcast value: %w", err)
	}

	if _, ok := b.seen[key]; ok {
		return out, nil
	}
	b.seen[key] = body.Message

	n.Logger().WithFields(logrus.Fields{
		"value":  key,
		"from":   msg.Src,
		"fanout": len(b.neighbors),
	}).Debug("New value")

	for _, neighbor := range b.neighbors {
		out = append(out, protocol.Message{
			Src:  n.ID(),
			Dest: neighbor,
			Body: protocol.Broadcast{
				MsgID:   n.NextMsgID(),
				Message: body.Message,
			},
		})
	}

	return out, nil
}

func (b *Broadcast) handleRead(msg protocol.Message, body protocol.Read) []protocol.Message {
	return []protocol.Message{msg.Reply(protocol.ReadOk{
		InReplyTo: body.MsgID,
		Messages:  b.Values(),
	})}
}

// Values returns every value seen so far, ordered by canonical encoding.
func (b *Broadcast) Values() []interface{} {
	keys := make([]string, 0, len(b.seen))
	for k := range b.seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		values = append(values, b.seen[k])
	}
	return values
}

// Neighbors returns a copy of the neighbor list.
func (b *Broadcast) Neighbors() []string {
	return append([]string(nil), b.neighbors...)
}

// Stats implements the node.StatsReporter interface.
func (b *Broadcast) Stats() map[string]string {
	return map[string]string{
		"seen":      strconv.Itoa(len(b.seen)),
		"neighbors": strings.Join(b.neighbors, ","),
	}
}
