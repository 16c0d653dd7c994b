package models

import "time"

// MessageType identifies a websocket feed message
type MessageType string

const (
	MessageTypeOpportunity MessageType = "opportunity"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeHeartbeat   MessageType = "heartbeat"
	MessageTypeError       MessageType = "error"
)

// ClientMessage is sent by feed subscribers
type ClientMessage struct {
	Type    MessageType            `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage is pushed to feed subscribers
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter narrows which opportunities a subscriber receives. Empty = all.
type SubscriptionFilter struct {
	Sports    []string `json:"sports,omitempty"`
	Events    []string `json:"events,omitempty"`
	Markets   []string `json:"markets,omitempty"`   // Compared case-insensitively
	Providers []string `json:"providers,omitempty"` // Matches if any stake uses one of them
}

// IsEmpty reports whether the filter accepts everything
func (f SubscriptionFilter) IsEmpty() bool {
	return len(f.Sports) == 0 && len(f.Events) == 0 && len(f.Markets) == 0 && len(f.Providers) == 0
}

// ErrorMessage is the payload of an error feed message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionStats describes one subscriber connection
type ConnectionStats struct {
	ClientID          string    `json:"clientId"`
	ConnectedAt       time.Time `json:"connectedAt"`
	MessagesSent      int64     `json:"messagesSent"`
	MessagesReceived  int64     `json:"messagesReceived"`
	LastMessageAt     time.Time `json:"lastMessageAt"`
	BufferSize        int       `json:"bufferSize"`
	BufferUtilization float64   `json:"bufferUtilization"`
}
