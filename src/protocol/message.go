package protocol

// MessageID correlates a request with its reply. It is unique per originating
// node.
type MessageID uint64

// Message is the envelope of every record on the wire.
type Message struct {
	Src  string
	Dest string
	Body Body
}

// Body is implemented by the closed set of payload variants declared in this
// package.
type Body interface {
	// Type returns the wire tag of the variant, e.g. "broadcast_ok".
	Type() string
	isBody()
}

// Wire tags.
const (
	TypeInit        = "init"
	TypeInitOk      = "init_ok"
	TypeTopology    = "topology"
	TypeTopologyOk  = "topology_ok"
	TypeBroadcast   = "broadcast"
	TypeBroadcastOk = "broadcast_ok"
	TypeRead        = "read"
	TypeReadOk      = "read_ok"
	TypeError       = "error"
	TypeEcho        = "echo"
	TypeEchoOk      = "echo_ok"
	TypeGenerate    = "generate"
	TypeGenerateOk  = "generate_ok"
)

// Init assigns an identity and the cluster roster to a node.
type Init struct {
	MsgID   MessageID
	NodeID  string
	NodeIDs []string
}

// InitOk acknowledges Init.
type InitOk struct {
	InReplyTo MessageID
}

// Topology declares the neighbors of every node.
type Topology struct {
	MsgID    MessageID
	Topology map[string][]string
}

// TopologyOk acknowledges Topology.
type TopologyOk struct {
	InReplyTo MessageID
}

// Broadcast asks a node to record and disseminate Message. Nodes also use it
// to forward values to their neighbors.
type Broadcast struct {
	MsgID   MessageID
	Message interface{}
}

// BroadcastOk acknowledges Broadcast.
type BroadcastOk struct {
	InReplyTo MessageID
}

// Read asks a node for every value it has seen.
type Read struct {
	MsgID MessageID
}

// ReadOk answers Read.
type ReadOk struct {
	InReplyTo MessageID
	Messages  []interface{}
}

// Error is the reply sent when a request cannot be served.
type Error struct {
	InReplyTo MessageID
	Code      ErrorCode
	Text      string
}

// Echo asks a node to send Echo back.
type Echo struct {
	MsgID MessageID
	Echo  interface{}
}

// EchoOk answers Echo.
type EchoOk struct {
	InReplyTo MessageID
	Echo      interface{}
}

// Generate asks a node for a cluster-wide unique id.
type Generate struct {
	MsgID MessageID
}

// GenerateOk answers Generate.
type GenerateOk struct {
	InReplyTo MessageID
	ID        string
}

func (Init) Type() string        { return TypeInit }
func (InitOk) Type() string      { return TypeInitOk }
func (Topology) Type() string    { return TypeTopology }
func (TopologyOk) Type() string  { return TypeTopologyOk }
func (Broadcast) Type() string   { return TypeBroadcast }
func (BroadcastOk) Type() string { return TypeBroadcastOk }
func (Read) Type() string        { return TypeRead }
func (ReadOk) Type() string      { return TypeReadOk }
func (Error) Type() string       { return TypeError }
func (Echo) Type() string        { return TypeEcho }
func (EchoOk) Type() string      { return TypeEchoOk }
func (Generate) Type() string    { return TypeGenerate }
func (GenerateOk) Type() string  { return TypeGenerateOk }

func (Init) isBody()        {}
func (InitOk) isBody()      {}
func (Topology) isBody()    {}
func (TopologyOk) isBody()  {}
func (Broadcast) isBody()   {}
func (BroadcastOk) isBody() {}
func (Read) isBody()        {}
func (ReadOk) isBody()      {}
func (Error) isBody()       {}
func (Echo) isBody()        {}
func (EchoOk) isBody()      {}
func (Generate) isBody()    {}
func (GenerateOk) isBody()  {}

// RequestID returns the msg_id of request-shaped bodies.
func (m Message) RequestID() (MessageID, bool) {
	switch b := m.Body.(type) {
	case Init:
		return b.MsgID, true
	case Topology:
		return b.MsgID, true
	case Broadcast:
		return b.MsgID, true
	case Read:
		return b.MsgID, true
	case Echo:
		return b.MsgID, true
	case Generate:
		return b.MsgID, true
	default:
		return 0, false
	}
}

// ReplyTarget returns the in_reply_to of reply-shaped bodies.
func (m Message) ReplyTarget() (MessageID, bool) {
	switch b := m.Body.(type) {
	case InitOk:
		return b.InReplyTo, true
	case TopologyOk:
		return b.InReplyTo, true
	case BroadcastOk:
		return b.InReplyTo, true
	case ReadOk:
		return b.InReplyTo, true
	case Error:
		return b.InReplyTo, true
	case EchoOk:
		return b.InReplyTo, true
	case GenerateOk:
		return b.InReplyTo, true
	default:
		return 0, false
	}
}

// Type returns the wire tag of the body, or "" for an empty message.
func (m Message) Type() string {
	if m.Body == nil {
		return ""
	}
	return m.Body.Type()
}

// Reply addresses body back to the sender of m.
func (m Message) Reply(body Body) Message {
	return Message{
		Src:  m.Dest,
		Dest: m.Src,
		Body: body,
	}
}

// String returns the wire form of m, or a placeholder if m cannot be
// serialized.
func (m Message) String() string {
	line, err := Serialize(m)
	if err != nil {
		return "<invalid message: " + err.Error() + ">"
	}
	return string(line)
}
