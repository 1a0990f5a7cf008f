package net

import (
	"errors"
	"math"

	"github.com/mosaicnetworks/floodnode/src/protocol"
)

const (
	// Topology messages for large clusters easily exceed bufio's default
	// buffer, so start big.
	bufSize = math.MaxUint16

	// maxLineSize caps the size of a single inbound line.
	maxLineSize = 64 * 1024 * 1024
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")
)

// Transport is the line-oriented channel between a node and the harness.
type Transport interface {

	// ReadLine blocks until the next inbound line is available. The returned
	// slice excludes the line terminator and is only valid until the next
	// call. It returns io.EOF when the input is exhausted.
	ReadLine() ([]byte, error)

	// Send serializes msg as one line and flushes it.
	Send(msg protocol.Message) error

	// Close permanently closes a transport. Further calls fail with
	// ErrTransportShutdown.
	Close() error
}
