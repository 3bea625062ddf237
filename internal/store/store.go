// Package store holds the ordered, deduplicated message collection for one
// open conversation. The order is arrival order, never re-sorted by
// timestamp, so merging REST pages and live events cannot make rows jump.
package store

import (
	"sync"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

// Store maps message ids to records and keeps an explicit ordered id
// sequence. Safe for concurrent use: the socket read loop and the UI
// goroutine both feed it.
type Store struct {
	mu    sync.Mutex
	order []int64
	byID  map[int64]*models.Message
}

func New() *Store {
	return &Store{byID: make(map[int64]*models.Message)}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id int64) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return models.Message{}, false
	}
	return *m, true
}

// IndexOf returns the position of id in the ordered sequence, or -1.
func (s *Store) IndexOf(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.order {
		if existing == id {
			return i
		}
	}
	return -1
}

// Append adds msg at the end. Duplicate ids are ignored: the position of
// the first append wins, no matter whether the duplicate came from an
// optimistic insert, a REST response, or a live echo.
func (s *Store) Append(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[msg.ID]; ok {
		return false
	}
	m := msg
	s.byID[msg.ID] = &m
	s.order = append(s.order, msg.ID)
	return true
}

// Prepend inserts an older page at the front, preserving the page's
// relative order. Ids already present are skipped. Used only by
// pagination loads of page > 1.
func (s *Store) Prepend(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := make([]int64, 0, len(msgs))
	for i := range msgs {
		if _, ok := s.byID[msgs[i].ID]; ok {
			continue
		}
		m := msgs[i]
		s.byID[m.ID] = &m
		fresh = append(fresh, m.ID)
	}
	if len(fresh) == 0 {
		return
	}
	s.order = append(fresh, s.order...)
}

// Update applies an in-place mutation to the message with the given id.
// The entry's position in the ordered sequence never changes. Returns
// false when the id is unknown, which callers treat as a safe no-op.
func (s *Store) Update(id int64, apply func(*models.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return false
	}
	apply(m)
	return true
}

// MarkReadBy records that readerID has read the conversation: every
// unread message NOT authored by the reader gets IsRead/ReadAt. Messages
// the reader sent themselves are never touched. Returns how many
// messages changed.
func (s *Store) MarkReadBy(readerID int64, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, id := range s.order {
		m := s.byID[id]
		if m.SenderID == readerID || m.IsRead {
			continue
		}
		m.IsRead = true
		t := at
		m.ReadAt = &t
		changed++
	}
	return changed
}

// Messages returns an ordered copy of the collection.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}
