package live

import (
	"testing"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/czefenglim/bluecollar-chat/internal/store"
	"github.com/stretchr/testify/assert"
)

func newMsg(id, senderID int64, content string) models.Message {
	c := content
	return models.Message{ID: id, SenderID: senderID, Type: models.MessageTypeText, Content: &c}
}

func TestNewMessageEchoCollapses(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)

	a.OnNewMessage(newMsg(1, 5, "hi"))
	a.OnNewMessage(newMsg(1, 5, "hi"))

	assert.Equal(t, 1, s.Len())
}

func TestEditUnknownMessageDropped(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)

	a.OnMessageEdited(42, "later", time.Now())

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(42))
}

func TestEditKnownMessage(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)
	a.OnNewMessage(newMsg(3, 2, "helo"))

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a.OnMessageEdited(3, "hello", at)

	m, _ := s.Get(3)
	assert.Equal(t, "hello", m.Text())
	assert.True(t, m.IsEdited)
	assert.Equal(t, at, *m.EditedAt)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)
	a.OnNewMessage(newMsg(3, 2, "oops"))

	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a.OnMessageDeleted(3, first)
	a.OnMessageDeleted(3, first.Add(time.Minute))

	m, _ := s.Get(3)
	assert.True(t, m.IsDeleted)
	assert.Nil(t, m.Content)
	assert.Equal(t, first, *m.DeletedAt)
}

func TestDeleteUnknownMessageIsNoOp(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)

	a.OnMessageDeleted(999, time.Now())

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(999))
}

func TestEditAfterDeleteDoesNotResurrect(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)
	a.OnNewMessage(newMsg(3, 2, "typo"))
	a.OnMessageDeleted(3, time.Now())

	// Out-of-order edit arriving after the delete must not bring the
	// content back.
	a.OnMessageEdited(3, "fixed typo", time.Now())

	m, _ := s.Get(3)
	assert.True(t, m.IsDeleted)
	assert.Nil(t, m.Content)
}

func TestReadReceiptIgnoresOwnReader(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 0)
	a.OnNewMessage(newMsg(5, 1, "sent by me"))

	// Receipt for my own read must not touch my messages.
	a.OnMessagesRead(1, time.Now())
	m, _ := s.Get(5)
	assert.False(t, m.IsRead)

	// Receipt from the peer does.
	a.OnMessagesRead(2, time.Now())
	m, _ = s.Get(5)
	assert.True(t, m.IsRead)
}

func TestTypingExpiresWithoutStopEvent(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, 5*time.Second)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	a.OnTypingChange(2, true)
	assert.Equal(t, []int64{2}, a.TypingUsers())

	// Stop event lost; the indicator still clears after the TTL.
	now = now.Add(6 * time.Second)
	assert.Empty(t, a.TypingUsers())
}

func TestTypingStopAndOwnEventsIgnored(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, time.Minute)

	a.OnTypingChange(1, true) // own typing, ignored
	assert.Empty(t, a.TypingUsers())

	a.OnTypingChange(2, true)
	a.OnTypingChange(2, false)
	assert.Empty(t, a.TypingUsers())
}

func TestIncomingMessageClearsTyping(t *testing.T) {
	s := store.New()
	a := NewAdapter(s, 1, time.Minute)

	a.OnTypingChange(2, true)
	a.OnNewMessage(newMsg(10, 2, "done typing"))

	assert.Empty(t, a.TypingUsers())
	assert.Equal(t, 1, s.Len())
}
