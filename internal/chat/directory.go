package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/medibridge/patient-portal/pkg/logging"
)

// ConversationLister fetches the authoritative conversation list.
type ConversationLister interface {
	MyChats(ctx context.Context) ([]ConversationSummary, error)
}

// Directory caches the signed-in patient's conversations, one per
// appointment, each annotated with its latest message. It hears every push
// regardless of which conversation is active, so list previews stay fresh
// even for conversations not currently open.
type Directory struct {
	lister ConversationLister
	logger *logging.Logger

	mu            sync.Mutex
	gen           uint64 // refresh generation; late responses for old gens are dropped
	byAppointment map[string]*ConversationSummary
}

// NewDirectory creates an empty directory backed by lister.
func NewDirectory(lister ConversationLister, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{
		lister:        lister,
		logger:        logger,
		byAppointment: make(map[string]*ConversationSummary),
	}
}

// Refresh replaces the cached list wholesale from the server. Concurrent
// refreshes are last-writer-wins by response arrival: a response is
// discarded when a newer Refresh was issued after its request went out.
// A failed fetch leaves the prior list intact.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	chats, err := d.lister.MyChats(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		// A newer refresh was issued while this one was in flight.
		return nil
	}
	d.byAppointment = make(map[string]*ConversationSummary, len(chats))
	for i := range chats {
		cs := chats[i]
		d.byAppointment[cs.AppointmentID] = &cs
	}
	return nil
}

// ApplyIncoming folds a pushed message into the directory. Known
// conversations get their preview updated in place; an unknown appointment
// means a conversation this client has never seen, so the whole list is
// refreshed rather than fabricating a partial entry.
func (d *Directory) ApplyIncoming(ctx context.Context, msg Message) error {
	d.mu.Lock()
	if cs, ok := d.byAppointment[msg.AppointmentID]; ok {
		cs.LastMessage = msg.Body
		cs.LastMessageTime = msg.SentAt
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	d.logger.Debug("unknown conversation, refreshing directory", "appointment_id", msg.AppointmentID)
	return d.Refresh(ctx)
}

// Conversations returns a snapshot sorted by last activity, newest first.
func (d *Directory) Conversations() []ConversationSummary {
	d.mu.Lock()
	out := make([]ConversationSummary, 0, len(d.byAppointment))
	for _, cs := range d.byAppointment {
		out = append(out, *cs)
	}
	d.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].LastMessageTime.After(out[j].LastMessageTime)
		}
		return out[i].AppointmentID < out[j].AppointmentID
	})
	return out
}
