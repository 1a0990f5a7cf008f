package node

import (
	"fmt"

	"github.com/mosaicnetworks/floodnode/src/protocol"
)

// Error is a per-message failure. Reply, when set, is a ready-to-send error
// message for the peer. Detail is meant for the local logs.
type Error struct {
	Reply  *protocol.Message
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Detail
}

// Code returns the code of the attached reply, if any.
func (e *Error) Code() (protocol.ErrorCode, bool) {
	if e.Reply == nil {
		return 0, false
	}
	body, ok := e.Reply.Body.(protocol.Error)
	if !ok {
		return 0, false
	}
	return body.Code, true
}

// NotInitialized is the error for traffic received before init.
func NotInitialized(msg protocol.Message) *Error {
	return newError(msg,
		protocol.CodeNotInitialized,
		"node not initialized; expecting an init message first",
		fmt.Sprintf("dropped %s from %s: node not initialized", msg.Type(), msg.Src),
	)
}

// NotSupported is the error for message types an agent does not handle.
func NotSupported(msg protocol.Message) *Error {
	return newError(msg,
		protocol.CodeNotSupported,
		fmt.Sprintf("node does not support messages of type %q", msg.Type()),
		fmt.Sprintf("unsupported message type %q from %s", msg.Type(), msg.Src),
	)
}

// newError attaches an error reply when msg is a request. Reply-shaped
// messages have no msg_id to answer, so they only get a detail.
func newError(msg protocol.Message, code protocol.ErrorCode, text, detail string) *Error {
	err := &Error{Detail: detail}

	id, ok := msg.RequestID()
	if !ok {
		return err
	}

	reply := msg.Reply(protocol.Error{
		InReplyTo: id,
		Code:      code,
		Text:      text,
	})
	err.Reply = &reply
	return err
}
