package net

import (
	"io"
	"sync"

	"github.com/mosaicnetworks/floodnode/src/protocol"
)

// InmemTransport implements the Transport interface, to allow nodes to be
// tested in-memory without going through stdio. Inbound lines are queued with
// Push and outbound messages are collected in order.
type InmemTransport struct {
	sync.Mutex
	inbound  [][]byte
	outbound []protocol.Message
	sendErr  error
	shutdown bool
}

// NewInmemTransport returns an InmemTransport preloaded with lines.
func NewInmemTransport(lines ...string) *InmemTransport {
	trans := &InmemTransport{}
	for _, l := range lines {
		trans.Push(l)
	}
	return trans
}

// Push queues an inbound line.
func (i *InmemTransport) Push(line string) {
	i.Lock()
	defer i.Unlock()
	i.inbound = append(i.inbound, []byte(line))
}

// FailSends makes every subsequent Send return err.
func (i *InmemTransport) FailSends(err error) {
	i.Lock()
	defer i.Unlock()
	i.sendErr = err
}

// ReadLine implements the Transport interface. It returns io.EOF once the
// queue is drained.
func (i *InmemTransport) ReadLine() ([]byte, error) {
	i.Lock()
	defer i.Unlock()

	if i.shutdown {
		return nil, ErrTransportShutdown
	}
	if len(i.inbound) == 0 {
		return nil, io.EOF
	}

	line := i.inbound[0]
	i.inbound = i.inbound[1:]
	return line, nil
}

// Send implements the Transport interface.
func (i *InmemTransport) Send(msg protocol.Message) error {
	i.Lock()
	defer i.Unlock()

	if i.shutdown {
		return ErrTransportShutdown
	}
	if i.sendErr != nil {
		return i.sendErr
	}

	// Same validation as the stream transport.
	if _, err := protocol.Serialize(msg); err != nil {
		return err
	}

	i.outbound = append(i.outbound, msg)
	return nil
}

// Sent returns a copy of the messages sent so far.
func (i *InmemTransport) Sent() []protocol.Message {
	i.Lock()
	defer i.Unlock()
	return append([]protocol.Message(nil), i.outbound...)
}

// Close implements the Transport interface.
func (i *InmemTransport) Close() error {
	i.Lock()
	defer i.Unlock()
	i.shutdown = true
	return nil
}
