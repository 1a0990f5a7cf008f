// Package agent contains the algorithms that run on top of a node.
//
// Broadcast is the flood broadcast: every value is acknowledged, remembered
// in a seen set, and forwarded once to every neighbor declared by the
// topology. Duplicates are acknowledged but never forwarded again, which
// bounds the traffic of a value to one round of fanout per node.
//
// Forwards are fire-and-forget. The agent keeps no record of outstanding
// forwards and never retries them, so it relies on a transport that does not
// lose messages. Neighbors are taken as given: a value can travel back to the
// node it came from, which is absorbed there by deduplication.
//
// Echo and UniqueIDs are stateless responders used to check the harness and
// the node lifecycle.
//
// New builds an agent from its registered name, as found in the
// configuration.
package agent
