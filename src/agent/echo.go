package agent

import (
	"github.com/mosaicnetworks/floodnode/src/node"
	"github.com/mosaicnetworks/floodnode/src/protocol"
)

// Echo implements node.Agent by sending every echo payload back.
type Echo struct{}

// NewEcho returns an Echo agent.
func NewEcho() *Echo {
	return &Echo{}
}

// Handle implements the node.Agent interface.
func (e *Echo) Handle(n *node.Node, msg protocol.Message) ([]protocol.Message, error) {
	switch body := msg.Body.(type) {
	case protocol.Echo:
		return []protocol.Message{msg.Reply(protocol.EchoOk{
			InReplyTo: body.MsgID,
			Echo:      body.Echo,
		})}, nil
	default:
		return nil, node.NotSupported(msg)
	}
}
