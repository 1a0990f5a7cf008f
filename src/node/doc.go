// Package node implements the dispatch contract shared by every algorithm.
//
// A Node owns the identity of the process (node id, cluster roster) and the
// counter used to mint msg_ids for self-originated requests. It implements a
// two-state machine:
//
//  Uninitialized --init--> Initialized
//
// While Uninitialized, only init is accepted; any other request is answered
// with a not-initialized error (code 11) and leaves the node untouched. Once
// Initialized, every message is handed to the Agent, the algorithm plugged
// into the node. Agents answer the message types they know and return
// NotSupported (code 10) for anything else.
//
// A repeated init is acknowledged again without resetting identity or agent
// state.
//
// Errors
//
// Handle reports per-message failures as *Error values. An Error bundles an
// optional reply for the peer and a detail string for the local diagnostic
// stream. Messages that carry no msg_id cannot be answered, so the errors they
// cause have no reply.
package node
