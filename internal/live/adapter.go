package live

import (
	"sync"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/czefenglim/bluecollar-chat/internal/store"
)

// DefaultTypingTTL expires a typing indicator when no stop event arrives.
// The channel drops events, so the UI must never trust stop-typing to show up.
const DefaultTypingTTL = 6 * time.Second

// Adapter folds inbound live events into the message store and keeps the
// ephemeral typing set. Every handler is idempotent with respect to
// duplicate or out-of-order delivery.
type Adapter struct {
	store  *store.Store
	userID int64
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	typing map[int64]time.Time // userID -> deadline
}

func NewAdapter(s *store.Store, currentUserID int64, typingTTL time.Duration) *Adapter {
	if typingTTL <= 0 {
		typingTTL = DefaultTypingTTL
	}
	return &Adapter{
		store:  s,
		userID: currentUserID,
		ttl:    typingTTL,
		now:    time.Now,
		typing: make(map[int64]time.Time),
	}
}

func (a *Adapter) OnNewMessage(msg models.Message) {
	// Append dedups by id, so the echo of an own send collapses into the
	// existing row.
	a.store.Append(msg)
	// A message from the peer means they are no longer typing.
	a.mu.Lock()
	delete(a.typing, msg.SenderID)
	a.mu.Unlock()
}

// OnMessageEdited patches a locally known message. Unknown ids are
// dropped: the edited record will arrive with a future page load anyway.
func (a *Adapter) OnMessageEdited(id int64, content string, editedAt time.Time) {
	a.store.Update(id, func(m *models.Message) {
		if m.IsDeleted {
			return
		}
		c := content
		m.Content = &c
		m.IsEdited = true
		t := editedAt
		m.EditedAt = &t
		m.UpdatedAt = editedAt
	})
}

// OnMessageDeleted soft-deletes a locally known message; unknown ids are
// a safe no-op. Running it twice leaves the same state as once.
func (a *Adapter) OnMessageDeleted(id int64, deletedAt time.Time) {
	a.store.Update(id, func(m *models.Message) {
		if m.IsDeleted {
			return
		}
		m.IsDeleted = true
		m.Content = nil
		t := deletedAt
		m.DeletedAt = &t
		m.UpdatedAt = deletedAt
	})
}

// OnMessagesRead applies a conversation-level read receipt. Receipts for
// the current user's own reads are ignored; the server already knows.
func (a *Adapter) OnMessagesRead(readerID int64, at time.Time) {
	if readerID == a.userID {
		return
	}
	a.store.MarkReadBy(readerID, at)
}

func (a *Adapter) OnTypingChange(userID int64, typing bool) {
	if userID == a.userID {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if typing {
		a.typing[userID] = a.now().Add(a.ttl)
	} else {
		delete(a.typing, userID)
	}
}

// TypingUsers returns who is currently typing, pruning entries whose
// deadline passed without a stop event.
func (a *Adapter) TypingUsers() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	var users []int64
	for id, deadline := range a.typing {
		if now.After(deadline) {
			delete(a.typing, id)
			continue
		}
		users = append(users, id)
	}
	return users
}
