package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibridge/patient-portal/internal/session"
	"github.com/medibridge/patient-portal/pkg/logging"
)

// State is the lifecycle of the active conversation view.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "idle"
	}
}

// HistoryFetcher loads one conversation's full message history.
type HistoryFetcher interface {
	AppointmentChat(ctx context.Context, appointmentID string) (*Conversation, error)
}

// RoomConn is the slice of the connection manager the active view needs.
type RoomConn interface {
	Join(appointmentID string) error
	Leave(appointmentID string) error
	SendMessage(appointmentID, body, clientID string) error
	Connected() bool
}

// ActiveConversation holds the message history and live status for the one
// conversation the patient has open. It merges server-confirmed messages
// with locally optimistic sends and only ever receives pushes for the
// joined appointment; everything else belongs to the Directory.
type ActiveConversation struct {
	fetcher HistoryFetcher
	conn    RoomConn
	logger  *logging.Logger
	self    func() session.Profile
	now     func() time.Time
	newID   func() string

	mu       sync.Mutex
	state    State
	gen      uint64 // open generation; stale history responses are dropped
	conv     *ConversationSummary
	messages []Message
}

// NewActiveConversation wires the store to its collaborators. self supplies
// the current profile for optimistic sender snapshots.
func NewActiveConversation(fetcher HistoryFetcher, conn RoomConn, self func() session.Profile, logger *logging.Logger) *ActiveConversation {
	if logger == nil {
		logger = logging.Default()
	}
	if self == nil {
		self = func() session.Profile { return session.Profile{} }
	}
	return &ActiveConversation{
		fetcher: fetcher,
		conn:    conn,
		logger:  logger,
		self:    self,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// State returns the current lifecycle state.
func (a *ActiveConversation) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Conversation returns the open conversation's summary, or nil when idle.
func (a *ActiveConversation) Conversation() *ConversationSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conv == nil {
		return nil
	}
	cs := *a.conv
	return &cs
}

// Messages returns a snapshot of the visible message list.
func (a *ActiveConversation) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Open selects appointmentID: clears the previous view, loads the full
// history and, only once that succeeds, joins the realtime room. When Open
// is called again before a previous load resolves, the earlier response is
// discarded at resolution time so a slow load can never clobber a newer
// selection.
func (a *ActiveConversation) Open(ctx context.Context, appointmentID string) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	if a.conv != nil {
		if err := a.conn.Leave(a.conv.AppointmentID); err != nil {
			a.logger.Warn("leave previous conversation failed", "error", err)
		}
	}
	a.state = StateLoading
	a.conv = nil
	a.messages = nil
	a.mu.Unlock()

	conv, err := a.fetcher.AppointmentChat(ctx, appointmentID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// Superseded by a newer Open or a Close while we were loading.
		return nil
	}
	if err != nil {
		a.state = StateIdle
		return err
	}
	if err := a.conn.Join(appointmentID); err != nil {
		a.state = StateIdle
		return err
	}
	summary := conv.ConversationSummary
	if summary.AppointmentID == "" {
		summary.AppointmentID = appointmentID
	}
	a.conv = &summary
	a.messages = sortedByTime(conv.Messages)
	a.state = StateReady
	return nil
}

// Close leaves the realtime room and clears the view. The directory keeps
// receiving global pushes; this only stops merging them into a dead view.
func (a *ActiveConversation) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	if a.conv != nil {
		if err := a.conn.Leave(a.conv.AppointmentID); err != nil {
			a.logger.Warn("leave conversation failed", "error", err)
		}
	}
	a.state = StateIdle
	a.conv = nil
	a.messages = nil
}

// Send appends an optimistic copy of body and emits it over the realtime
// connection. Blank bodies, a missing connection, or no open conversation
// make it a silent no-op: the composer is expected to be disabled in those
// states, not to surface errors. A failed emit discards the optimistic copy.
func (a *ActiveConversation) Send(body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateReady || a.conv == nil || !a.conn.Connected() {
		return nil
	}

	msg := Message{
		ClientID:      a.newID(),
		AppointmentID: a.conv.AppointmentID,
		SenderRole:    RolePatient,
		Sender:        a.self(),
		Body:          body,
		SentAt:        a.now(),
	}
	a.messages = append(a.messages, msg)

	if err := a.conn.SendMessage(msg.AppointmentID, msg.Body, msg.ClientID); err != nil {
		a.messages = a.messages[:len(a.messages)-1]
		return err
	}
	return nil
}

// HandleIncoming merges a pushed message into the view when it targets the
// open conversation. The server echo of a local send carries the client
// correlation ID and replaces the optimistic copy in place, so one logical
// send is never rendered twice. Anything scoped to another appointment is
// ignored here.
func (a *ActiveConversation) HandleIncoming(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateReady || a.conv == nil || a.conv.AppointmentID != msg.AppointmentID {
		return
	}

	if msg.ClientID != "" {
		for i := range a.messages {
			if a.messages[i].ClientID == msg.ClientID {
				// Keep the display position; take the authoritative copy.
				a.messages[i] = msg
				return
			}
		}
	}
	if msg.ID != "" {
		for i := range a.messages {
			if a.messages[i].ID == msg.ID {
				return
			}
		}
	}
	a.messages = insertOrdered(a.messages, msg)
}

// insertOrdered places msg keeping SentAt non-decreasing, ties broken by
// arrival order (later arrivals go after equal timestamps).
func insertOrdered(msgs []Message, msg Message) []Message {
	i := len(msgs)
	for i > 0 && msgs[i-1].SentAt.After(msg.SentAt) {
		i--
	}
	msgs = append(msgs, Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = msg
	return msgs
}

func sortedByTime(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = insertOrdered(out, m)
	}
	return out
}
