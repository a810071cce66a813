package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibridge/patient-portal/internal/session"
	"github.com/medibridge/patient-portal/pkg/logging"
)

// stubLister serves canned conversation lists and can block responses so
// tests control arrival order.
type stubLister struct {
	mu    sync.Mutex
	calls int
	lists [][]ConversationSummary
	gates []chan struct{}
	err   error
}

func (s *stubLister) MyChats(context.Context) ([]ConversationSummary, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	var gate chan struct{}
	if idx < len(s.gates) && s.gates[idx] != nil {
		gate = s.gates[idx]
	}
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lists) == 0 {
		return nil, nil
	}
	if idx >= len(s.lists) {
		idx = len(s.lists) - 1
	}
	return s.lists[idx], nil
}

func (s *stubLister) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func summaryFixture(appointmentID, last string, at time.Time) ConversationSummary {
	return ConversationSummary{
		ID:              "conv-" + appointmentID,
		AppointmentID:   appointmentID,
		Counterparty:    session.Profile{ID: "doc-" + appointmentID, Name: "Dr. " + appointmentID},
		LastMessage:     last,
		LastMessageTime: at,
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	now := time.Now()
	lister := &stubLister{lists: [][]ConversationSummary{
		{summaryFixture("appt-1", "hi", now)},
		{summaryFixture("appt-2", "new", now.Add(time.Minute))},
	}}
	d := NewDirectory(lister, logging.New("error"))

	require.NoError(t, d.Refresh(context.Background()))
	require.Len(t, d.Conversations(), 1)
	assert.Equal(t, "appt-1", d.Conversations()[0].AppointmentID)

	require.NoError(t, d.Refresh(context.Background()))
	convs := d.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "appt-2", convs[0].AppointmentID, "refresh is a full reconciliation, not a merge")
}

func TestRefreshFailureKeepsPriorList(t *testing.T) {
	now := time.Now()
	lister := &stubLister{lists: [][]ConversationSummary{{summaryFixture("appt-1", "hi", now)}}}
	d := NewDirectory(lister, logging.New("error"))
	require.NoError(t, d.Refresh(context.Background()))

	lister.mu.Lock()
	lister.err = errors.New("backend down")
	lister.mu.Unlock()
	require.Error(t, d.Refresh(context.Background()))
	assert.Len(t, d.Conversations(), 1)
}

func TestConcurrentRefreshLastWriterWins(t *testing.T) {
	now := time.Now()
	gate1 := make(chan struct{})
	gate2 := make(chan struct{})
	lister := &stubLister{
		lists: [][]ConversationSummary{
			{summaryFixture("appt-old", "stale", now)},
			{summaryFixture("appt-new", "fresh", now)},
		},
		gates: []chan struct{}{gate1, gate2},
	}
	d := NewDirectory(lister, logging.New("error"))

	done := make(chan error, 2)
	go func() { done <- d.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return lister.callCount() == 1 }, time.Second, time.Millisecond)
	go func() { done <- d.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return lister.callCount() == 2 }, time.Second, time.Millisecond)

	// The newer refresh resolves first; the older response must be dropped.
	close(gate2)
	require.NoError(t, <-done)
	close(gate1)
	require.NoError(t, <-done)

	convs := d.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "appt-new", convs[0].AppointmentID)
}

func TestApplyIncomingUpdatesPreview(t *testing.T) {
	now := time.Now()
	lister := &stubLister{lists: [][]ConversationSummary{{summaryFixture("appt-1", "old", now)}}}
	d := NewDirectory(lister, logging.New("error"))
	require.NoError(t, d.Refresh(context.Background()))

	at := now.Add(time.Minute)
	require.NoError(t, d.ApplyIncoming(context.Background(), Message{
		AppointmentID: "appt-1",
		Body:          "see you at 10",
		SentAt:        at,
	}))

	convs := d.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "see you at 10", convs[0].LastMessage)
	assert.True(t, convs[0].LastMessageTime.Equal(at))
	assert.Equal(t, 1, lister.callCount(), "known appointment must not refetch")
}

func TestApplyIncomingUnknownAppointmentTriggersOneRefresh(t *testing.T) {
	now := time.Now()
	lister := &stubLister{lists: [][]ConversationSummary{
		{summaryFixture("appt-1", "hi", now)},
		{summaryFixture("appt-1", "hi", now), summaryFixture("appt-2", "hello", now.Add(time.Second))},
	}}
	d := NewDirectory(lister, logging.New("error"))
	require.NoError(t, d.Refresh(context.Background()))

	require.NoError(t, d.ApplyIncoming(context.Background(), Message{
		AppointmentID: "appt-2",
		Body:          "hello",
		SentAt:        now.Add(time.Second),
	}))

	assert.Equal(t, 2, lister.callCount(), "unknown appointment triggers exactly one refresh")
	convs := d.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "appt-2", convs[0].AppointmentID, "new conversation present after refresh resolves")
}

func TestConversationsSortedByActivity(t *testing.T) {
	now := time.Now()
	lister := &stubLister{lists: [][]ConversationSummary{{
		summaryFixture("appt-a", "older", now.Add(-time.Hour)),
		summaryFixture("appt-b", "newest", now),
		summaryFixture("appt-c", "middle", now.Add(-time.Minute)),
	}}}
	d := NewDirectory(lister, logging.New("error"))
	require.NoError(t, d.Refresh(context.Background()))

	convs := d.Conversations()
	require.Len(t, convs, 3)
	assert.Equal(t, "appt-b", convs[0].AppointmentID)
	assert.Equal(t, "appt-c", convs[1].AppointmentID)
	assert.Equal(t, "appt-a", convs[2].AppointmentID)
}
