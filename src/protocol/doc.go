// Package protocol defines the messages exchanged between nodes and the
// controller.
//
// Every record is a single line of JSON with an envelope and a body:
//
//  {"src": "c1", "dest": "n1", "body": {"type": "broadcast", "msg_id": 3, "message": 5}}
//
// The body is a closed set of variants identified by the "type" tag. Request
// bodies carry a msg_id chosen by the sender; reply bodies carry in_reply_to,
// the msg_id of the request they answer, and never a msg_id of their own. A
// broadcast forwarded by a node is itself a fresh request.
//
// Parse turns a line into a Message and fails with a *ParseError when the line
// is not a JSON object, when the type tag is unknown, or when a required field
// is missing or has the wrong type. Serialize is the inverse; its output is
// canonical (map keys sorted) so that equal messages produce equal lines.
package protocol
