package protocol

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInit(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}`

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	require.Equal(t, "c1", msg.Src)
	require.Equal(t, "n1", msg.Dest)
	require.Equal(t, Init{MsgID: 1, NodeID: "n1", NodeIDs: []string{"n1", "n2"}}, msg.Body)
	require.Equal(t, TypeInit, msg.Type())
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	line := `{"id":7,"src":"c1","dest":"n1","body":{"type":"read","msg_id":5,"extra":[1,2]}}`

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	require.Equal(t, Read{MsgID: 5}, msg.Body)
}

func TestParseValues(t *testing.T) {
	cases := []struct {
		name string
		line string
		want interface{}
	}{
		{"integer", `5`, uint64(5)},
		{"large integer", `18446744073709551615`, uint64(math.MaxUint64)},
		{"negative", `-3`, int64(-3)},
		{"float", `1.5`, 1.5},
		{"string", `"hello"`, "hello"},
		{"array", `[1,"a"]`, []interface{}{uint64(1), "a"}},
		{"object", `{"k":true}`, map[string]interface{}{"k": true}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			line := `{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":3,"message":` + c.line + `}}`
			msg, err := Parse([]byte(line))
			require.NoError(t, err)
			require.Equal(t, Broadcast{MsgID: 3, Message: c.want}, msg.Body)
		})
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		target  error
		missing string
	}{
		{name: "not json", line: `hello`, target: ErrMalformed},
		{name: "array", line: `[1,2]`, target: ErrMalformed},
		{name: "null", line: `null`, target: ErrMalformed},
		{name: "trailing garbage", line: `{"src":"c1","dest":"n1","body":{"type":"read","msg_id":1}} trailing garbage`, target: ErrMalformed},
		{name: "two records", line: `{"src":"c1","dest":"n1","body":{"type":"read","msg_id":1}}{"x":1}`, target: ErrMalformed},
		{name: "missing src", line: `{"dest":"n1","body":{"type":"read","msg_id":1}}`, missing: "src"},
		{name: "missing body", line: `{"src":"c1","dest":"n1"}`, missing: "body"},
		{name: "body not object", line: `{"src":"c1","dest":"n1","body":"read"}`, target: ErrFieldType},
		{name: "missing type", line: `{"src":"c1","dest":"n1","body":{"msg_id":1}}`, missing: "type"},
		{name: "unknown type", line: `{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":1}}`, target: ErrUnknownType},
		{name: "missing msg_id", line: `{"src":"c1","dest":"n1","body":{"type":"read"}}`, missing: "msg_id"},
		{name: "string msg_id", line: `{"src":"c1","dest":"n1","body":{"type":"read","msg_id":"one"}}`, target: ErrFieldType},
		{name: "negative msg_id", line: `{"src":"c1","dest":"n1","body":{"type":"read","msg_id":-1}}`, target: ErrFieldType},
		{name: "fractional msg_id", line: `{"src":"c1","dest":"n1","body":{"type":"read","msg_id":1.5}}`, target: ErrFieldType},
		{name: "missing message", line: `{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":1}}`, missing: "message"},
		{name: "null message", line: `{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":1,"message":null}}`, missing: "message"},
		{name: "node_ids not strings", line: `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":[1]}}`, target: ErrFieldType},
		{name: "topology not map", line: `{"src":"c1","dest":"n1","body":{"type":"topology","msg_id":1,"topology":["n2"]}}`, target: ErrFieldType},
		{name: "topology entry not list", line: `{"src":"c1","dest":"n1","body":{"type":"topology","msg_id":1,"topology":{"n1":"n2"}}}`, target: ErrFieldType},
		{name: "missing in_reply_to", line: `{"src":"n2","dest":"n1","body":{"type":"broadcast_ok"}}`, missing: "in_reply_to"},
		{name: "read_ok without messages", line: `{"src":"n2","dest":"n1","body":{"type":"read_ok","in_reply_to":1}}`, missing: "messages"},
		{name: "error without code", line: `{"src":"n2","dest":"n1","body":{"type":"error","in_reply_to":1,"text":"x"}}`, missing: "code"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.line))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %T", err)
			require.Equal(t, c.line, string(perr.Line))

			if c.missing != "" {
				var missing MissingFieldError
				require.True(t, errors.As(err, &missing), "expected MissingFieldError, got %v", err)
				require.Equal(t, c.missing, missing.Field)
				return
			}
			require.True(t, errors.Is(err, c.target), "expected %v, got %v", c.target, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	bodies := []Body{
		Init{MsgID: 1, NodeID: "n1", NodeIDs: []string{"n1", "n2", "n3"}},
		InitOk{InReplyTo: 1},
		Topology{MsgID: 2, Topology: map[string][]string{
			"n1": {"n2", "n3"},
			"n2": {"n1"},
			"n3": {},
		}},
		TopologyOk{InReplyTo: 2},
		Broadcast{MsgID: 3, Message: uint64(5)},
		Broadcast{MsgID: 4, Message: map[string]interface{}{
			"k": []interface{}{"a", uint64(1), int64(-1), 2.5, false},
		}},
		BroadcastOk{InReplyTo: 3},
		Read{MsgID: 5},
		ReadOk{InReplyTo: 5, Messages: []interface{}{uint64(1), uint64(7), "x"}},
		ReadOk{InReplyTo: 6, Messages: []interface{}{}},
		Error{InReplyTo: 7, Code: CodeNotSupported, Text: "not supported"},
		Echo{MsgID: 8, Echo: "please echo 35"},
		EchoOk{InReplyTo: 8, Echo: "please echo 35"},
		Generate{MsgID: 9},
		GenerateOk{InReplyTo: 9, ID: "n1-0"},
	}

	for _, body := range bodies {
		t.Run(body.Type(), func(t *testing.T) {
			msg := Message{Src: "c1", Dest: "n1", Body: body}

			line, err := Serialize(msg)
			require.NoError(t, err)

			parsed, err := Parse(line)
			require.NoError(t, err)
			require.Equal(t, msg, parsed)
		})
	}
}

func TestRoundTripMessageIDLimits(t *testing.T) {
	for _, id := range []MessageID{0, math.MaxInt64, 1<<63 + 5, math.MaxUint64} {
		msg := Message{Src: "c1", Dest: "n1", Body: Read{MsgID: id}}

		line, err := Serialize(msg)
		require.NoError(t, err)

		parsed, err := Parse(line)
		require.NoError(t, err)
		require.Equal(t, msg, parsed, string(line))
	}
}

func TestParseAllowsTrailingWhitespace(t *testing.T) {
	msg, err := Parse([]byte("{\"src\":\"c1\",\"dest\":\"n1\",\"body\":{\"type\":\"read\",\"msg_id\":1}}  \t"))
	require.NoError(t, err)
	require.Equal(t, Read{MsgID: 1}, msg.Body)
}

func TestSerializeCanonical(t *testing.T) {
	msg := Message{Src: "n1", Dest: "n2", Body: Broadcast{MsgID: 0, Message: int64(5)}}

	line, err := Serialize(msg)
	require.NoError(t, err)
	require.Equal(t, `{"body":{"message":5,"msg_id":0,"type":"broadcast"},"dest":"n2","src":"n1"}`, string(line))
	require.Equal(t, string(line), msg.String())
}

func TestSerializeDeterministic(t *testing.T) {
	topology := map[string][]string{}
	for _, id := range []string{"n5", "n1", "n4", "n2", "n3"} {
		topology[id] = []string{"n1"}
	}
	msg := Message{Src: "c1", Dest: "n1", Body: Topology{MsgID: 1, Topology: topology}}

	first, err := Serialize(msg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Serialize(msg)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSerializeEmptyReadOk(t *testing.T) {
	line, err := Serialize(Message{Src: "n1", Dest: "c1", Body: ReadOk{InReplyTo: 5}})
	require.NoError(t, err)
	require.Contains(t, string(line), `"messages":[]`)
}

func TestSerializeRejectsInvalid(t *testing.T) {
	_, err := Serialize(Message{Src: "n1", Dest: "c1"})
	require.Error(t, err)

	_, err = Serialize(Message{Src: "n1", Dest: "c1", Body: Broadcast{MsgID: 1}})
	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "message", missing.Field)
}

func TestRequestIDAndReplyTarget(t *testing.T) {
	requests := []Body{
		Init{MsgID: 11}, Topology{MsgID: 11}, Broadcast{MsgID: 11, Message: int64(1)},
		Read{MsgID: 11}, Echo{MsgID: 11, Echo: "x"}, Generate{MsgID: 11},
	}
	for _, body := range requests {
		msg := Message{Body: body}
		id, ok := msg.RequestID()
		require.True(t, ok, body.Type())
		require.Equal(t, MessageID(11), id)
		_, ok = msg.ReplyTarget()
		require.False(t, ok, body.Type())
	}

	replies := []Body{
		InitOk{InReplyTo: 12}, TopologyOk{InReplyTo: 12}, BroadcastOk{InReplyTo: 12},
		ReadOk{InReplyTo: 12}, Error{InReplyTo: 12}, EchoOk{InReplyTo: 12}, GenerateOk{InReplyTo: 12},
	}
	for _, body := range replies {
		msg := Message{Body: body}
		id, ok := msg.ReplyTarget()
		require.True(t, ok, body.Type())
		require.Equal(t, MessageID(12), id)
		_, ok = msg.RequestID()
		require.False(t, ok, body.Type())
	}
}

func TestReply(t *testing.T) {
	req := Message{Src: "c1", Dest: "n1", Body: Read{MsgID: 4}}
	reply := req.Reply(ReadOk{InReplyTo: 4})

	require.Equal(t, "n1", reply.Src)
	require.Equal(t, "c1", reply.Dest)
	require.Equal(t, ReadOk{InReplyTo: 4}, reply.Body)
}

func TestValueKey(t *testing.T) {
	a := map[string]interface{}{"x": int64(1), "y": []interface{}{"a", "b"}}
	b := map[string]interface{}{"y": []interface{}{"a", "b"}, "x": int64(1)}

	ka, err := ValueKey(a)
	require.NoError(t, err)
	kb, err := ValueKey(b)
	require.NoError(t, err)
	require.Equal(t, ka, kb)

	k5, err := ValueKey(uint64(5))
	require.NoError(t, err)
	for _, same := range []interface{}{int64(5), 5.0} {
		k, err := ValueKey(same)
		require.NoError(t, err)
		require.Equal(t, k5, k, "%#v", same)
	}

	kf, err := ValueKey(5.5)
	require.NoError(t, err)
	require.NotEqual(t, k5, kf)

	nested, err := ValueKey(map[string]interface{}{"n": []interface{}{2.0, -3.0}})
	require.NoError(t, err)
	nestedInt, err := ValueKey(map[string]interface{}{"n": []interface{}{uint64(2), int64(-3)}})
	require.NoError(t, err)
	require.Equal(t, nestedInt, nested)

	ks, err := ValueKey("5")
	require.NoError(t, err)
	require.NotEqual(t, k5, ks)
}

func TestErrorCodeString(t *testing.T) {
	require.Equal(t, "NotSupported", CodeNotSupported.String())
	require.Equal(t, "NotInitialized", CodeNotInitialized.String())
	require.Equal(t, "Code(99)", ErrorCode(99).String())
}
