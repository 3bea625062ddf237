// Package live is the client end of the portal's real-time channel: the
// typed event surface, the adapter that folds inbound events into the
// message store, and a websocket implementation of the channel.
package live

import (
	"context"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

// EventType names the inbound event kinds the channel can deliver.
type EventType string

const (
	EventNewMessage     EventType = "new_message"
	EventMessageEdited  EventType = "message_edited"
	EventMessageDeleted EventType = "message_deleted"
	EventMessagesRead   EventType = "messages_read"
	EventTyping         EventType = "typing"
)

// Event is one inbound frame. Which fields are set depends on Type.
type Event struct {
	Type           EventType       `json:"type"`
	ConversationID int64           `json:"conversationId"`
	Message        *models.Message `json:"message,omitempty"`
	MessageID      int64           `json:"messageId,omitempty"`
	Content        string          `json:"content,omitempty"`
	ReaderID       int64           `json:"readerId,omitempty"`
	UserID         int64           `json:"userId,omitempty"`
	Typing         bool            `json:"typing,omitempty"`
	At             time.Time       `json:"at,omitempty"`
}

// Handler receives one conversation's events. The channel may deliver
// duplicates and does not guarantee order, so every method must be
// idempotent.
type Handler interface {
	OnNewMessage(msg models.Message)
	OnMessageEdited(id int64, content string, editedAt time.Time)
	OnMessageDeleted(id int64, deletedAt time.Time)
	OnMessagesRead(readerID int64, at time.Time)
	OnTypingChange(userID int64, typing bool)
}

// Channel is the live transport, multiplexed by conversation id. One
// channel is shared per app session; Subscribe/the returned unsubscribe
// must stay symmetric so handlers never leak across conversations.
type Channel interface {
	Connected() bool
	Subscribe(conversationID int64, h Handler) (unsubscribe func())
	SendMessage(ctx context.Context, conversationID int64, content string) error
	MarkAsRead(ctx context.Context, conversationID int64) error
	StartTyping(conversationID int64) error
	StopTyping(conversationID int64) error
	EditMessage(ctx context.Context, messageID int64, content string) error
	DeleteMessage(ctx context.Context, messageID int64) error
	Close() error
}

func (e *Event) at() time.Time {
	if e.At.IsZero() {
		return time.Now()
	}
	return e.At
}

// Dispatch routes one decoded event to a handler.
func Dispatch(e *Event, h Handler) {
	switch e.Type {
	case EventNewMessage:
		if e.Message != nil {
			h.OnNewMessage(*e.Message)
		}
	case EventMessageEdited:
		h.OnMessageEdited(e.MessageID, e.Content, e.at())
	case EventMessageDeleted:
		h.OnMessageDeleted(e.MessageID, e.at())
	case EventMessagesRead:
		h.OnMessagesRead(e.ReaderID, e.at())
	case EventTyping:
		h.OnTypingChange(e.UserID, e.Typing)
	}
}
