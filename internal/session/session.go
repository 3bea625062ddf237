// Package session composes the chat client for one open conversation:
// message store, pagination cursor, live event adapter, and send
// coordinator, with an explicit open/close lifecycle. The session is the
// Go analogue of the mobile app's conversation screen view-model.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/czefenglim/bluecollar-chat/internal/api"
	"github.com/czefenglim/bluecollar-chat/internal/live"
	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/czefenglim/bluecollar-chat/internal/paging"
	"github.com/czefenglim/bluecollar-chat/internal/send"
	"github.com/czefenglim/bluecollar-chat/internal/store"
	"github.com/czefenglim/bluecollar-chat/internal/view"
	apperrors "github.com/czefenglim/bluecollar-chat/pkg/errors"
	"github.com/czefenglim/bluecollar-chat/pkg/logger"
)

// typingNotifyInterval throttles outgoing typing frames; the production
// server throttles the same way, this just saves the frames.
const typingNotifyInterval = 3 * time.Second

type Options struct {
	ConversationID int64
	UserID         int64
	PageSize       int
	TypingTTL      time.Duration
}

type Session struct {
	opts    Options
	api     *api.Client
	channel live.Channel

	conv    models.Conversation
	store   *store.Store
	cursor  *paging.Cursor
	adapter *live.Adapter
	coord   *send.Coordinator

	typingLimiter *rate.Limiter
	unsubscribe   func()
	closeOnce     sync.Once
	closed        chan struct{}
}

// Open loads the conversation metadata and the newest history page,
// subscribes to the live channel, and tells the backend the thread was
// read. The caller must Close the session when navigating away.
func Open(ctx context.Context, restClient *api.Client, channel live.Channel, opts Options) (*Session, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	s := &Session{
		opts:          opts,
		api:           restClient,
		channel:       channel,
		store:         store.New(),
		typingLimiter: rate.NewLimiter(rate.Every(typingNotifyInterval), 1),
		closed:        make(chan struct{}),
	}
	s.adapter = live.NewAdapter(s.store, opts.UserID, opts.TypingTTL)
	s.coord = send.NewCoordinator(restClient, channel, s.store, opts.ConversationID)
	s.cursor = paging.New(func(ctx context.Context, page int) ([]models.Message, models.Pagination, error) {
		return restClient.Messages(ctx, opts.ConversationID, page, opts.PageSize)
	})

	conv, err := restClient.Conversation(ctx, opts.ConversationID)
	if err != nil {
		return nil, err
	}
	s.conv = conv

	first, err := s.cursor.LoadInitial(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range first {
		s.store.Append(m)
	}

	// Subscribe before marking read so the peer's receipt can't slip
	// between the two.
	s.unsubscribe = channel.Subscribe(opts.ConversationID, sessionHandler{s})

	if err := restClient.MarkConversationRead(ctx, opts.ConversationID); err != nil {
		// Non-fatal: unread counts lag until the next open.
		logger.Warn().Err(err).Int64("conversation", opts.ConversationID).Msg("mark read failed")
	}

	return s, nil
}

// Conversation returns the thread metadata.
func (s *Session) Conversation() models.Conversation {
	return s.conv
}

// Rows builds the render-ready list for the UI.
func (s *Session) Rows() []view.Row {
	return view.Render(s.store.Messages(), s.adapter.TypingUsers(), s.opts.UserID)
}

// Pending returns sends still waiting for their live echo, so the UI can
// show them greyed out below the confirmed rows.
func (s *Session) Pending() []send.Outgoing {
	return s.coord.Pending()
}

// HasOlder reports whether more history pages remain.
func (s *Session) HasOlder() bool {
	return s.cursor.HasMore()
}

// LoadOlder fetches the next older page and prepends it. Ignored while a
// load is in flight; results arriving after Close are discarded.
func (s *Session) LoadOlder(ctx context.Context) error {
	if s.isClosed() {
		return apperrors.ErrClosed
	}
	msgs, ran, err := s.cursor.LoadOlder(ctx)
	if err != nil {
		return err
	}
	if !ran || s.isClosed() {
		return nil
	}
	s.store.Prepend(msgs)
	return nil
}

// Send submits the composer text. On failure the caller keeps the text.
func (s *Session) Send(ctx context.Context, text string) (*send.Outgoing, error) {
	if s.isClosed() {
		return nil, apperrors.ErrClosed
	}
	out, err := s.coord.Send(ctx, text)
	if err == nil && s.channel.Connected() {
		// Sending implies the user stopped typing.
		if terr := s.channel.StopTyping(s.opts.ConversationID); terr != nil {
			logger.Debug().Err(terr).Msg("stop typing frame failed")
		}
	}
	return out, err
}

// Edit rewrites one of the user's messages.
func (s *Session) Edit(ctx context.Context, messageID int64, text string) error {
	if s.isClosed() {
		return apperrors.ErrClosed
	}
	return s.coord.Edit(ctx, messageID, text)
}

// Delete soft-deletes one of the user's messages.
func (s *Session) Delete(ctx context.Context, messageID int64) error {
	if s.isClosed() {
		return apperrors.ErrClosed
	}
	return s.coord.Delete(ctx, messageID)
}

// SendAttachment uploads a file into the conversation.
func (s *Session) SendAttachment(ctx context.Context, filename string, file io.Reader) (models.Message, error) {
	if s.isClosed() {
		return models.Message{}, apperrors.ErrClosed
	}
	msg, err := s.api.SendAttachment(ctx, s.opts.ConversationID, filename, file)
	if err != nil {
		return models.Message{}, err
	}
	s.store.Append(msg)
	return msg, nil
}

// NotifyTyping tells the peer the user is typing, rate-limited so key
// presses do not flood the channel.
func (s *Session) NotifyTyping() {
	if s.isClosed() || !s.channel.Connected() {
		return
	}
	if !s.typingLimiter.Allow() {
		return
	}
	if err := s.channel.StartTyping(s.opts.ConversationID); err != nil {
		logger.Debug().Err(err).Msg("typing frame failed")
	}
}

// Close tears the session down: the live subscription is removed (the
// symmetric unsubscribe) and any in-flight fetch results are discarded.
// The shared channel stays open for other conversations.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// sessionHandler feeds live events into the adapter, reconciling own
// echoes with pending optimistic sends first. Events after Close are
// dropped.
type sessionHandler struct {
	s *Session
}

func (h sessionHandler) OnNewMessage(msg models.Message) {
	if h.s.isClosed() {
		return
	}
	if msg.SenderID == h.s.opts.UserID {
		h.s.coord.Confirm(msg)
	}
	h.s.adapter.OnNewMessage(msg)
}

func (h sessionHandler) OnMessageEdited(id int64, content string, editedAt time.Time) {
	if h.s.isClosed() {
		return
	}
	h.s.adapter.OnMessageEdited(id, content, editedAt)
}

func (h sessionHandler) OnMessageDeleted(id int64, deletedAt time.Time) {
	if h.s.isClosed() {
		return
	}
	h.s.adapter.OnMessageDeleted(id, deletedAt)
}

func (h sessionHandler) OnMessagesRead(readerID int64, at time.Time) {
	if h.s.isClosed() {
		return
	}
	h.s.adapter.OnMessagesRead(readerID, at)
}

func (h sessionHandler) OnTypingChange(userID int64, typing bool) {
	if h.s.isClosed() {
		return
	}
	h.s.adapter.OnTypingChange(userID, typing)
}
