// Package send coordinates outgoing messages: live-channel sends with a
// later echo confirmation, REST fallback when the channel is down, and
// the edit/delete flows that always go through REST first.
package send

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/czefenglim/bluecollar-chat/internal/store"
	"github.com/czefenglim/bluecollar-chat/pkg/logger"
)

// ErrEmptyMessage rejects sends whose trimmed text is empty.
var ErrEmptyMessage = errors.New("message is empty")

// ErrConfirmTimeout fails a live-channel send whose echo never arrived,
// e.g. the socket dropped right after the write.
var ErrConfirmTimeout = errors.New("send confirmation timed out")

// confirmTimeout bounds how long a send may wait for its echo.
const confirmTimeout = 10 * time.Second

// State is the per-outgoing-message machine.
type State int

const (
	StateComposing State = iota
	StateSending
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateComposing:
		return "composing"
	case StateSending:
		return "sending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outgoing tracks one send. Key is a client-side correlation id; message
// ids only ever come from the backend.
type Outgoing struct {
	Key            string
	ConversationID int64
	Text           string
	State          State
	Err            error
	Message        *models.Message // set once confirmed

	sentAt time.Time
}

// RestAPI is the slice of the REST client the coordinator needs.
type RestAPI interface {
	SendMessage(ctx context.Context, conversationID int64, content string) (models.Message, error)
	EditMessage(ctx context.Context, messageID int64, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error
}

// LiveSender is the slice of the live channel the coordinator needs.
type LiveSender interface {
	Connected() bool
	SendMessage(ctx context.Context, conversationID int64, content string) error
	EditMessage(ctx context.Context, messageID int64, content string) error
	DeleteMessage(ctx context.Context, messageID int64) error
}

type Coordinator struct {
	api            RestAPI
	live           LiveSender
	store          *store.Store
	conversationID int64

	now func() time.Time

	mu      sync.Mutex
	pending []*Outgoing
}

func NewCoordinator(api RestAPI, live LiveSender, s *store.Store, conversationID int64) *Coordinator {
	return &Coordinator{api: api, live: live, store: s, conversationID: conversationID, now: time.Now}
}

// Send submits a new text message. With the channel connected the send
// goes through it exclusively and confirmation arrives later as the live
// echo; with the channel down it falls back to REST and appends the
// returned record directly, since no echo will come. On failure the
// caller keeps the composer text; nothing was mutated locally.
func (c *Coordinator) Send(ctx context.Context, text string) (*Outgoing, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	out := &Outgoing{
		Key:            uuid.NewString(),
		ConversationID: c.conversationID,
		Text:           trimmed,
		State:          StateSending,
	}

	if c.live != nil && c.live.Connected() {
		if err := c.live.SendMessage(ctx, c.conversationID, trimmed); err != nil {
			out.State = StateFailed
			out.Err = err
			return out, err
		}
		c.mu.Lock()
		out.sentAt = c.now()
		c.pending = append(c.pending, out)
		c.mu.Unlock()
		return out, nil
	}

	msg, err := c.api.SendMessage(ctx, c.conversationID, trimmed)
	if err != nil {
		out.State = StateFailed
		out.Err = err
		return out, err
	}
	c.store.Append(msg)
	out.State = StateConfirmed
	out.Message = &msg
	return out, nil
}

// Confirm reconciles an inbound own-message echo against the oldest
// pending send with matching text. Returns the confirmed entry, or nil
// when the echo did not match anything pending (e.g. a send from another
// device).
func (c *Coordinator) Confirm(msg models.Message) *Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	for i, out := range c.pending {
		if out.Text == msg.Text() {
			out.State = StateConfirmed
			m := msg
			out.Message = &m
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return out
		}
	}
	return nil
}

// Pending returns a snapshot of sends still waiting for their echo.
func (c *Coordinator) Pending() []Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	out := make([]Outgoing, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, *p)
	}
	return out
}

// expireLocked fails pending sends whose echo is overdue, so a dropped
// socket cannot leave a row sending forever. Caller holds mu.
func (c *Coordinator) expireLocked() {
	now := c.now()
	kept := c.pending[:0]
	for _, out := range c.pending {
		if now.Sub(out.sentAt) > confirmTimeout {
			out.State = StateFailed
			out.Err = ErrConfirmTimeout
			continue
		}
		kept = append(kept, out)
	}
	c.pending = kept
}

// Edit updates a message through REST, applies the returned record
// locally, then fans the edit out over the live channel for the other
// participant. The fan-out is best effort; the REST record is already
// authoritative for the editor.
func (c *Coordinator) Edit(ctx context.Context, messageID int64, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	updated, err := c.api.EditMessage(ctx, messageID, trimmed)
	if err != nil {
		return err
	}

	c.store.Update(messageID, func(m *models.Message) {
		m.Content = updated.Content
		m.IsEdited = true
		m.EditedAt = updated.EditedAt
		m.UpdatedAt = updated.UpdatedAt
	})

	if c.live != nil && c.live.Connected() {
		if err := c.live.EditMessage(ctx, messageID, trimmed); err != nil {
			logger.Warn().Err(err).Int64("message", messageID).Msg("edit fan-out failed")
		}
	}
	return nil
}

// Delete soft-deletes through REST first; the local view only changes
// after the server acknowledged, so a failed delete never shows deleted
// state. The live fan-out then tells the other participant.
func (c *Coordinator) Delete(ctx context.Context, messageID int64) error {
	if err := c.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	now := time.Now()
	c.store.Update(messageID, func(m *models.Message) {
		if m.IsDeleted {
			return
		}
		m.IsDeleted = true
		m.Content = nil
		m.DeletedAt = &now
		m.UpdatedAt = now
	})

	if c.live != nil && c.live.Connected() {
		if err := c.live.DeleteMessage(ctx, messageID); err != nil {
			logger.Warn().Err(err).Int64("message", messageID).Msg("delete fan-out failed")
		}
	}
	return nil
}
