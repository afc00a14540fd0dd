package ws

import (
	"encoding/json"
)

// Outbound message types.
const (
	TypeStatus       = "status"
	TypeNotification = "notification"
	TypeSpeech       = "speech"
	TypeError        = "error"
	TypeAck          = "ack"
)

// Inbound command types.
const (
	CommandVoice   = "voice"
	CommandSOS     = "sos"
	CommandRefresh = "refresh"
)

// Envelope wraps every message pushed to browsers.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Command is a message sent by a browser.
type Command struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Encode marshals an envelope.
func Encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: msgType, Data: data})
}
