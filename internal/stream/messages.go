// Package stream pushes registry changes to WebSocket clients.
package stream

import (
	"encoding/json"
	"time"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string          `json:"type"` // "subscribe", "unsubscribe", "ping"
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribeData narrows the stream to events touching one tab.
type SubscribeData struct {
	TabID string `json:"tabId"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type      string `json:"type"` // "session", "event", "subscribed", "pong", "error"
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// SessionData is sent once after the connection is accepted.
type SessionData struct {
	ClientID string `json:"clientId"`
}

// EventData describes one registry change.
type EventData struct {
	ID         string    `json:"id"`
	EventType  string    `json:"eventType"`
	SubjectID  string    `json:"subjectId"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
