package chat

import (
	"time"

	"github.com/medibridge/patient-portal/internal/session"
)

// Role identifies which side of a conversation authored a message.
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

// Message is one chat message within an appointment's conversation.
//
// A message sent locally exists first as an optimistic copy: ClientID set,
// ID empty, timestamp taken from the local clock. The server echo carries
// the same ClientID plus the authoritative ID and timestamp, and replaces
// the optimistic copy in place.
type Message struct {
	ID            string          `json:"_id,omitempty"`
	ClientID      string          `json:"clientId,omitempty"`
	AppointmentID string          `json:"appointmentId"`
	SenderRole    Role            `json:"senderRole"`
	Sender        session.Profile `json:"sender"`
	Body          string          `json:"message"`
	SentAt        time.Time       `json:"timestamp"`
}

// Optimistic reports whether the message is still awaiting its server echo.
func (m Message) Optimistic() bool {
	return m.ID == "" && m.ClientID != ""
}

// ConversationSummary is a directory entry: one conversation per appointment,
// annotated with its latest message for list previews.
type ConversationSummary struct {
	ID              string          `json:"_id"`
	AppointmentID   string          `json:"appointmentId"`
	Counterparty    session.Profile `json:"docData"`
	Speciality      string          `json:"speciality,omitempty"`
	LastMessage     string          `json:"lastMessage"`
	LastMessageTime time.Time       `json:"lastMessageTime"`
}

// Conversation is a summary plus its full message history.
type Conversation struct {
	ConversationSummary
	Messages []Message `json:"messages"`
}
