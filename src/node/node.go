package node

import (
	"strconv"
	"strings"
	"sync"

	"github.com/mosaicnetworks/floodnode/src/protocol"
	"github.com/sirupsen/logrus"
)

// Handler turns one inbound message into an ordered list of outbound messages,
// or fails with an error (usually an *Error).
type Handler interface {
	Handle(msg protocol.Message) ([]protocol.Message, error)
}

// Agent is an algorithm running on top of a Node. Handle is only called once
// the node is initialized, and never concurrently. The default arm of every
// agent must return NotSupported(msg).
type Agent interface {
	Handle(n *Node, msg protocol.Message) ([]protocol.Message, error)
}

// StatsReporter is implemented by agents that contribute to Node.Stats.
type StatsReporter interface {
	Stats() map[string]string
}

// Node implements Handler. It owns the identity of the process and delegates
// everything but init to its Agent.
type Node struct {
	state

	// mu serializes Handle with readers of Stats.
	mu sync.Mutex

	id        string
	ids       []string
	nextMsgID protocol.MessageID
	handled   uint64

	agent  Agent
	logger *logrus.Entry
}

// NewNode is a factory method that returns an Uninitialized Node.
func NewNode(agent Agent, logger *logrus.Entry) *Node {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	node := &Node{
		agent:  agent,
		logger: logger,
	}
	node.setState(Uninitialized)

	return node
}

// Handle implements the Handler interface.
func (n *Node) Handle(msg protocol.Message) ([]protocol.Message, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handled++

	if init, ok := msg.Body.(protocol.Init); ok {
		return n.handleInit(msg, init), nil
	}

	if n.getState() != Initialized {
		return nil, NotInitialized(msg)
	}

	return n.agent.Handle(n, msg)
}

func (n *Node) handleInit(msg protocol.Message, init protocol.Init) []protocol.Message {
	if n.getState() == Initialized {
		if init.NodeID != n.id {
			n.logger.WithFields(logrus.Fields{
				"node_id":     n.id,
				"new_node_id": init.NodeID,
			}).Warn("Ignoring identity of repeated init")
		}
		return []protocol.Message{msg.Reply(protocol.InitOk{InReplyTo: init.MsgID})}
	}

	n.id = init.NodeID
	n.ids = append([]string(nil), init.NodeIDs...)
	n.logger = n.logger.WithField("node_id", n.id)
	n.setState(Initialized)

	n.logger.WithField("node_ids", n.ids).Debug("Initialized")

	return []protocol.Message{msg.Reply(protocol.InitOk{InReplyTo: init.MsgID})}
}

// ID returns the id assigned by init, or "" before init.
func (n *Node) ID() string {
	return n.id
}

// IDs returns a copy of the cluster roster.
func (n *Node) IDs() []string {
	return append([]string(nil), n.ids...)
}

// IsMember reports whether id belongs to the cluster roster.
func (n *Node) IsMember(id string) bool {
	for _, m := range n.ids {
		if m == id {
			return true
		}
	}
	return false
}

// NextMsgID returns a fresh msg_id for a request originated by this node. Ids
// start at 0 and never repeat.
func (n *Node) NextMsgID() protocol.MessageID {
	id := n.nextMsgID
	n.nextMsgID++
	return id
}

// State returns the lifecycle state of the node.
func (n *Node) State() State {
	return n.getState()
}

// Logger returns the logger of the node, tagged with its id once initialized.
func (n *Node) Logger() *logrus.Entry {
	return n.logger
}

// Stats returns a snapshot of the node and its agent. It is safe to call
// concurrently with Handle.
func (n *Node) Stats() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := map[string]string{
		"state":       n.getState().String(),
		"node_id":     n.id,
		"node_ids":    strings.Join(n.ids, ","),
		"node_count":  strconv.Itoa(len(n.ids)),
		"next_msg_id": strconv.FormatUint(uint64(n.nextMsgID), 10),
		"handled":     strconv.FormatUint(n.handled, 10),
	}

	if r, ok := n.agent.(StatsReporter); ok {
		for k, v := range r.Stats() {
			s[k] = v
		}
	}

	return s
}
