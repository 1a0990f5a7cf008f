package protocol

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"github.com/ugorji/go/codec"
)

// jsonHandle is shared by all encoders and decoders. It is configured once and
// treated as read-only afterwards.
var jsonHandle = newJSONHandle()

func newJSONHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	// Non-negative integers decode as uint64, so every MessageID survives a
	// round trip. Negative integers decode as int64.
	jh.SignedInteger = false
	jh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return jh
}

// Parse decodes a single wire record. It has no side effects.
func Parse(line []byte) (Message, error) {
	msg, err := parse(line)
	if err != nil {
		return Message{}, &ParseError{Line: line, Err: err}
	}
	return msg, nil
}

func parse(line []byte) (Message, error) {
	var raw map[string]interface{}
	dec := codec.NewDecoderBytes(line, jsonHandle)
	if err := dec.Decode(&raw); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n := dec.NumBytesRead(); n < len(line) && len(bytes.TrimSpace(line[n:])) > 0 {
		return Message{}, fmt.Errorf("%w: trailing data after record", ErrMalformed)
	}
	if raw == nil {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	envelope := fields{typ: "message", m: raw}
	src, err := envelope.str("src")
	if err != nil {
		return Message{}, err
	}
	dest, err := envelope.str("dest")
	if err != nil {
		return Message{}, err
	}
	bodyMap, err := envelope.object("body")
	if err != nil {
		return Message{}, err
	}

	typ, err := fields{typ: "body", m: bodyMap}.str("type")
	if err != nil {
		return Message{}, err
	}
	body, err := decodeBody(fields{typ: typ, m: bodyMap})
	if err != nil {
		return Message{}, err
	}

	return Message{Src: src, Dest: dest, Body: body}, nil
}

func decodeBody(f fields) (Body, error) {
	var err error
	switch f.typ {
	case TypeInit:
		var b Init
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		if b.NodeID, err = f.str("node_id"); err != nil {
			return nil, err
		}
		if b.NodeIDs, err = f.strs("node_ids"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeInitOk:
		var b InitOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeTopology:
		var b Topology
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		if b.Topology, err = f.topology("topology"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeTopologyOk:
		var b TopologyOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeBroadcast:
		var b Broadcast
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		if b.Message, err = f.value("message"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeBroadcastOk:
		var b BroadcastOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeRead:
		var b Read
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeReadOk:
		var b ReadOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		if b.Messages, err = f.values("messages"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeError:
		var b Error
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		if b.Code, err = f.code("code"); err != nil {
			return nil, err
		}
		if b.Text, err = f.str("text"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeEcho:
		var b Echo
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		if b.Echo, err = f.value("echo"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeEchoOk:
		var b EchoOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		if b.Echo, err = f.value("echo"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeGenerate:
		var b Generate
		if b.MsgID, err = f.messageID("msg_id"); err != nil {
			return nil, err
		}
		return b, nil
	case TypeGenerateOk:
		var b GenerateOk
		if b.InReplyTo, err = f.messageID("in_reply_to"); err != nil {
			return nil, err
		}
		if b.ID, err = f.str("id"); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, f.typ)
	}
}

// Serialize encodes msg as a single line of canonical JSON, without the
// trailing newline.
func Serialize(msg Message) ([]byte, error) {
	body, err := encodeBody(msg.Body)
	if err != nil {
		return nil, err
	}
	envelope := map[string]interface{}{
		"src":  msg.Src,
		"dest": msg.Dest,
		"body": body,
	}

	var out []byte
	if err := codec.NewEncoderBytes(&out, jsonHandle).Encode(envelope); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeBody(body Body) (map[string]interface{}, error) {
	if body == nil {
		return nil, MissingFieldError{Type: "message", Field: "body"}
	}

	out := map[string]interface{}{"type": body.Type()}
	switch b := body.(type) {
	case Init:
		out["msg_id"] = b.MsgID
		out["node_id"] = b.NodeID
		out["node_ids"] = nonNilStrings(b.NodeIDs)
	case InitOk:
		out["in_reply_to"] = b.InReplyTo
	case Topology:
		topology := b.Topology
		if topology == nil {
			topology = map[string][]string{}
		}
		out["msg_id"] = b.MsgID
		out["topology"] = topology
	case TopologyOk:
		out["in_reply_to"] = b.InReplyTo
	case Broadcast:
		if b.Message == nil {
			return nil, MissingFieldError{Type: TypeBroadcast, Field: "message"}
		}
		out["msg_id"] = b.MsgID
		out["message"] = b.Message
	case BroadcastOk:
		out["in_reply_to"] = b.InReplyTo
	case Read:
		out["msg_id"] = b.MsgID
	case ReadOk:
		messages := b.Messages
		if messages == nil {
			messages = []interface{}{}
		}
		out["in_reply_to"] = b.InReplyTo
		out["messages"] = messages
	case Error:
		out["in_reply_to"] = b.InReplyTo
		out["code"] = int(b.Code)
		out["text"] = b.Text
	case Echo:
		if b.Echo == nil {
			return nil, MissingFieldError{Type: TypeEcho, Field: "echo"}
		}
		out["msg_id"] = b.MsgID
		out["echo"] = b.Echo
	case EchoOk:
		if b.Echo == nil {
			return nil, MissingFieldError{Type: TypeEchoOk, Field: "echo"}
		}
		out["in_reply_to"] = b.InReplyTo
		out["echo"] = b.Echo
	case Generate:
		out["msg_id"] = b.MsgID
	case GenerateOk:
		out["in_reply_to"] = b.InReplyTo
		out["id"] = b.ID
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, body)
	}
	return out, nil
}

// ValueKey returns the canonical encoding of v. Two broadcast values are the
// same value iff their keys are equal. Integral floats are keyed as integers,
// so 5 and 5.0 are the same value.
func ValueKey(v interface{}) (string, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, jsonHandle).Encode(normalize(v)); err != nil {
		return "", err
	}
	return string(out), nil
}

// normalize returns a copy of v where integral float64 values that fit in an
// integer are replaced by that integer.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return x
		}
		if x >= 0 && x < math.Exp2(64) {
			return uint64(x)
		}
		if x < 0 && x >= -math.Exp2(63) {
			return int64(x)
		}
		return x
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, e := range x {
			m[k] = normalize(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(x))
		for i, e := range x {
			s[i] = normalize(e)
		}
		return s
	default:
		return v
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// fields extracts typed values from a decoded JSON object belonging to the
// message type typ.
type fields struct {
	typ string
	m   map[string]interface{}
}

func (f fields) get(key string) (interface{}, error) {
	v, ok := f.m[key]
	if !ok || v == nil {
		return nil, MissingFieldError{Type: f.typ, Field: key}
	}
	return v, nil
}

func (f fields) mismatch(key, want string) error {
	return FieldTypeError{Type: f.typ, Field: key, Want: want}
}

func (f fields) str(key string) (string, error) {
	v, err := f.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", f.mismatch(key, "a string")
	}
	return s, nil
}

func (f fields) object(key string) (map[string]interface{}, error) {
	v, err := f.get(key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, f.mismatch(key, "an object")
	}
	return m, nil
}

func (f fields) value(key string) (interface{}, error) {
	return f.get(key)
}

func (f fields) values(key string) ([]interface{}, error) {
	v, err := f.get(key)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]interface{})
	if !ok {
		return nil, f.mismatch(key, "an array")
	}
	return s, nil
}

func (f fields) strs(key string) ([]string, error) {
	items, err := f.values(key)
	if err != nil {
		return nil, err
	}
	return toStrings(items, func() error { return f.mismatch(key, "an array of strings") })
}

func (f fields) topology(key string) (map[string][]string, error) {
	m, err := f.object(key)
	if err != nil {
		return nil, err
	}
	mismatch := func() error { return f.mismatch(key, "a map of string arrays") }
	topology := make(map[string][]string, len(m))
	for id, v := range m {
		items, ok := v.([]interface{})
		if !ok {
			return nil, mismatch()
		}
		neighbors, err := toStrings(items, mismatch)
		if err != nil {
			return nil, err
		}
		topology[id] = neighbors
	}
	return topology, nil
}

func (f fields) messageID(key string) (MessageID, error) {
	v, err := f.get(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint64)
	if !ok {
		return 0, f.mismatch(key, "a non-negative integer")
	}
	return MessageID(n), nil
}

func (f fields) code(key string) (ErrorCode, error) {
	v, err := f.get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return ErrorCode(n), nil
	case uint64:
		return ErrorCode(n), nil
	case float64:
		if n == math.Trunc(n) {
			return ErrorCode(n), nil
		}
	}
	return 0, f.mismatch(key, "an integer")
}

func toStrings(items []interface{}, mismatch func() error) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, mismatch()
		}
		out = append(out, s)
	}
	return out, nil
}
