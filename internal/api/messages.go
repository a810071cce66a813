package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/medibridge/patient-portal/internal/chat"
)

// MyChats lists the patient's conversations, one per appointment, for the
// conversation directory.
func (c *Client) MyChats(ctx context.Context) ([]chat.ConversationSummary, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/messages/my-chats", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Chats []chat.ConversationSummary `json:"chats"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// AppointmentChat fetches one conversation's full message history.
func (c *Client) AppointmentChat(ctx context.Context, appointmentID string) (*chat.Conversation, error) {
	path := "/api/messages/appointment/" + url.PathEscape(appointmentID)
	data, err := c.invoke(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Chat chat.Conversation `json:"chat"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return &resp.Chat, nil
}

// The client is the directory's lister and the active view's history source.
var (
	_ chat.ConversationLister = (*Client)(nil)
	_ chat.HistoryFetcher     = (*Client)(nil)
)
