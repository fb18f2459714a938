package domain

import (
	"encoding/json"
	"fmt"
)

// serverAssigned lists payload keys a client may never send. readDate is the
// legacy name of readAt.
var serverAssigned = []string{"id", "senderId", "sentAt", "readAt", "readDate"}

// ParseOutgoingMessage decodes a send payload. A server-assigned key is
// rejected whatever its value, including "" and null.
func ParseOutgoingMessage(data []byte) (OutgoingMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return OutgoingMessage{}, fmt.Errorf("%w: malformed payload: %v", ErrInvalidMessage, err)
	}
	for _, key := range serverAssigned {
		if _, ok := raw[key]; ok {
			return OutgoingMessage{}, fmt.Errorf("%w: %s is assigned by the server", ErrInvalidMessage, key)
		}
	}

	var out OutgoingMessage
	if text, ok := raw["text"]; ok {
		if err := json.Unmarshal(text, &out.Text); err != nil {
			return OutgoingMessage{}, fmt.Errorf("%w: text must be a string", ErrInvalidMessage)
		}
	}
	return out, nil
}
