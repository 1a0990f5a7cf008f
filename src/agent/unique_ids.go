package agent

import (
	"fmt"
	"strconv"

	"github.com/mosaicnetworks/floodnode/src/node"
	"github.com/mosaicnetworks/floodnode/src/protocol"
)

// UniqueIDs implements node.Agent by answering generate with ids of the form
// <node_id>-<counter>. Node ids are unique in the cluster and the counter
// never repeats, so ids are unique cluster-wide.
type UniqueIDs struct {
	generated uint64
}

// NewUniqueIDs returns a UniqueIDs agent.
func NewUniqueIDs() *UniqueIDs {
	return &UniqueIDs{}
}

// Handle implements the node.Agent interface.
func (u *UniqueIDs) Handle(n *node.Node, msg protocol.Message) ([]protocol.Message, error) {
	switch body := msg.Body.(type) {
	case protocol.Generate:
		id := fmt.Sprintf("%s-%d", n.ID(), n.NextMsgID())
		u.generated++
		return []protocol.Message{msg.Reply(protocol.GenerateOk{
			InReplyTo: body.MsgID,
			ID:        id,
		})}, nil
	default:
		return nil, node.NotSupported(msg)
	}
}

// Stats implements the node.StatsReporter interface.
func (u *UniqueIDs) Stats() map[string]string {
	return map[string]string{
		"generated": strconv.FormatUint(u.generated, 10),
	}
}
