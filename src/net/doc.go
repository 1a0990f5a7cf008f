// Package net implements the transports that carry protocol messages in and
// out of a node.
//
// A Transport reads one line per inbound message and writes one line per
// outbound message. There are two implementations:
//
// - Stream: reads from an io.Reader and writes to an io.Writer. The binary
// wires it to stdin and stdout, as expected by the test harness.
//
// - Inmem: in-memory transport used only for testing
//
// Send flushes every message before returning, so the harness observes replies
// without waiting for a buffer to fill up. Lines that do not end with a newline
// at EOF are still delivered.
package net
