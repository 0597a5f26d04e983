package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProtocol matches every *ProtocolError.
var ErrProtocol = errors.New("protocol error")

// ProtocolError reports a payload that does not follow the wire protocol.
type ProtocolError struct {
	Reason string
	Err    error
}

// Error implements error.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

// Unwrap returns the underlying decode error, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProtocol) match.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// envelope mirrors Message with deferred field decoding.
type envelope struct {
	MessageType *string         `json:"messageType"`
	Data        json.RawMessage `json:"data"`
}

// Encode serializes msg. A nil data map is written as an empty object.
func Encode(msg Message) ([]byte, error) {
	if msg.MessageType == "" {
		return nil, &ProtocolError{Reason: "empty messageType"}
	}
	if msg.Data == nil {
		msg.Data = map[string]any{}
	}
	out, err := json.Marshal(msg)
	if err != nil {
		return nil, &ProtocolError{Reason: "encode " + msg.MessageType, Err: err}
	}
	return out, nil
}

// Decode parses a single message. Unknown message types are accepted;
// a TouchUpdate must carry a known updateType.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, &ProtocolError{Reason: "malformed message", Err: err}
	}
	if env.MessageType == nil || *env.MessageType == "" {
		return Message{}, &ProtocolError{Reason: "missing messageType"}
	}

	msg := Message{MessageType: *env.MessageType, Data: map[string]any{}}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &msg.Data); err != nil {
			return Message{}, &ProtocolError{Reason: "data must be an object", Err: err}
		}
	}

	if msg.MessageType == TypeTouchUpdate {
		if _, ok := msg.UpdateType(); !ok {
			return Message{}, &ProtocolError{Reason: fmt.Sprintf("invalid updateType %v", msg.Data[keyUpdateType])}
		}
	}
	return msg, nil
}
