package store

import (
	"testing"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/stretchr/testify/assert"
)

func textMsg(id, senderID int64, content string) models.Message {
	c := content
	return models.Message{
		ID:       id,
		SenderID: senderID,
		Type:     models.MessageTypeText,
		Content:  &c,
	}
}

func TestAppendDeduplicates(t *testing.T) {
	s := New()

	// Optimistic insert followed by the live echo of the same message.
	assert.True(t, s.Append(textMsg(1, 5, "hi")))
	assert.False(t, s.Append(textMsg(1, 5, "hi")))

	assert.Equal(t, 1, s.Len())
	m, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "hi", m.Text())
}

func TestAppendFirstPositionWins(t *testing.T) {
	s := New()
	s.Append(textMsg(1, 5, "first"))
	s.Append(textMsg(2, 5, "second"))
	s.Append(textMsg(1, 5, "echo of first"))

	assert.Equal(t, 0, s.IndexOf(1))
	assert.Equal(t, 1, s.IndexOf(2))
	m, _ := s.Get(1)
	assert.Equal(t, "first", m.Text())
}

func TestPrependKeepsRelativeOrder(t *testing.T) {
	s := New()
	s.Append(textMsg(10, 1, "a"))
	s.Append(textMsg(11, 1, "b"))
	s.Append(textMsg(12, 1, "c"))

	s.Prepend([]models.Message{
		textMsg(7, 1, "older-1"),
		textMsg(8, 1, "older-2"),
		textMsg(9, 1, "older-3"),
	})

	got := s.Messages()
	ids := make([]int64, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{7, 8, 9, 10, 11, 12}, ids)
}

func TestPrependSkipsKnownIDs(t *testing.T) {
	s := New()
	s.Append(textMsg(10, 1, "a"))

	s.Prepend([]models.Message{
		textMsg(9, 1, "older"),
		textMsg(10, 1, "dup of a"),
	})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.IndexOf(9))
	m, _ := s.Get(10)
	assert.Equal(t, "a", m.Text())
}

func TestUpdateDoesNotMoveEntry(t *testing.T) {
	s := New()
	s.Append(textMsg(1, 5, "a"))
	s.Append(textMsg(2, 5, "b"))
	s.Append(textMsg(3, 5, "c"))

	now := time.Now()
	for i := 0; i < 3; i++ {
		ok := s.Update(2, func(m *models.Message) {
			edited := "b-edited"
			m.Content = &edited
			m.IsEdited = true
			m.EditedAt = &now
		})
		assert.True(t, ok)
	}

	assert.Equal(t, 1, s.IndexOf(2))
	m, _ := s.Get(2)
	assert.True(t, m.IsEdited)
	assert.Equal(t, "b-edited", m.Text())
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	s := New()
	ok := s.Update(99, func(m *models.Message) {
		m.IsDeleted = true
	})
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMarkReadByScoping(t *testing.T) {
	s := New()
	// Current user (id 1) sent message 5; the employer is id 2.
	s.Append(textMsg(5, 1, "any updates?"))

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// The other participant read the thread: my message becomes read.
	assert.Equal(t, 1, s.MarkReadBy(2, at))
	m, _ := s.Get(5)
	assert.True(t, m.IsRead)
	assert.Equal(t, at, *m.ReadAt)

	// A receipt naming the sender as reader must never touch their own
	// messages; everything is read already anyway.
	assert.Equal(t, 0, s.MarkReadBy(1, at.Add(time.Hour)))
	m, _ = s.Get(5)
	assert.Equal(t, at, *m.ReadAt)
}

func TestMarkReadBySkipsReaderOwnMessages(t *testing.T) {
	s := New()
	s.Append(textMsg(1, 7, "from them"))
	s.Append(textMsg(2, 3, "from me"))

	at := time.Now()
	assert.Equal(t, 1, s.MarkReadBy(7, at))

	theirs, _ := s.Get(1)
	mine, _ := s.Get(2)
	assert.False(t, theirs.IsRead)
	assert.True(t, mine.IsRead)
}
