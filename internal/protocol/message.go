// Package protocol defines the touch pad wire protocol.
package protocol

import "github.com/frudas24/touchpad/internal/gesture"

const (
	// TypeTouchPadDataRequest is the handshake sent once the socket opens.
	TypeTouchPadDataRequest = "TouchPadData-Request"
	// TypeTouchUpdate carries a single gesture.
	TypeTouchUpdate = "TouchUpdate"
)

// keyUpdateType is the data key holding the gesture kind of a TouchUpdate.
const keyUpdateType = "updateType"

// Message is a websocket payload: a type tag and a data object.
type Message struct {
	MessageType string         `json:"messageType"`
	Data        map[string]any `json:"data"`
}

// NewTouchPadDataRequest returns the handshake message.
func NewTouchPadDataRequest() Message {
	return Message{MessageType: TypeTouchPadDataRequest, Data: map[string]any{}}
}

// NewTouchUpdate returns a TouchUpdate carrying kind.
func NewTouchUpdate(kind gesture.Kind) Message {
	return Message{
		MessageType: TypeTouchUpdate,
		Data:        map[string]any{keyUpdateType: string(kind)},
	}
}

// UpdateType returns the gesture kind of a TouchUpdate message.
func (m Message) UpdateType() (gesture.Kind, bool) {
	if m.MessageType != TypeTouchUpdate {
		return "", false
	}
	raw, ok := m.Data[keyUpdateType].(string)
	if !ok {
		return "", false
	}
	kind := gesture.Kind(raw)
	return kind, kind.Valid()
}
