package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

func msgAt(id int64, senderID int64, createdAt string) models.Message {
	ts, _ := time.Parse(time.RFC3339, createdAt)
	c := "m"
	return models.Message{ID: id, SenderID: senderID, Content: &c, CreatedAt: ts}
}

func kinds(rows []Row) []RowKind {
	out := make([]RowKind, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Kind)
	}
	return out
}

func TestSeparatorBetweenDays(t *testing.T) {
	msgs := []models.Message{
		msgAt(1, 2, "2024-01-01T10:00:00Z"),
		msgAt(2, 2, "2024-01-02T09:00:00Z"),
	}

	rows := Render(msgs, nil, 1)

	// Exactly one separator between the two days (plus the leading one).
	assert.Equal(t, []RowKind{RowDateSeparator, RowMessage, RowDateSeparator, RowMessage}, kinds(rows))
	assert.Equal(t, 2, rows[2].Day.Day())
}

func TestSameDayNoExtraSeparator(t *testing.T) {
	msgs := []models.Message{
		msgAt(1, 2, "2024-01-01T10:00:00Z"),
		msgAt(2, 2, "2024-01-01T18:30:00Z"),
		msgAt(3, 2, "2024-01-01T23:59:59Z"),
	}

	rows := Render(msgs, nil, 1)
	assert.Equal(t, []RowKind{RowDateSeparator, RowMessage, RowMessage, RowMessage}, kinds(rows))
}

func TestTypingRowAppended(t *testing.T) {
	msgs := []models.Message{msgAt(1, 2, "2024-01-01T10:00:00Z")}

	rows := Render(msgs, []int64{9, 2}, 1)

	last := rows[len(rows)-1]
	assert.Equal(t, RowTyping, last.Kind)
	assert.Equal(t, []int64{2, 9}, last.TypingUserIDs)

	rows = Render(msgs, nil, 1)
	assert.Equal(t, RowMessage, rows[len(rows)-1].Kind)
}

func TestMineFlag(t *testing.T) {
	msgs := []models.Message{
		msgAt(1, 1, "2024-01-01T10:00:00Z"),
		msgAt(2, 2, "2024-01-01T10:01:00Z"),
	}

	rows := Render(msgs, nil, 1)
	assert.True(t, rows[1].Mine)
	assert.False(t, rows[2].Mine)
}

func TestRenderIsDeterministic(t *testing.T) {
	msgs := []models.Message{
		msgAt(1, 2, "2024-01-01T10:00:00Z"),
		msgAt(2, 1, "2024-01-03T10:00:00Z"),
	}
	a := Render(msgs, []int64{4, 3}, 1)
	b := Render(msgs, []int64{3, 4}, 1)
	assert.Equal(t, kinds(a), kinds(b))
	assert.Equal(t, a[len(a)-1].TypingUserIDs, b[len(b)-1].TypingUserIDs)
}

func TestEmptyStoreRendersNothing(t *testing.T) {
	assert.Empty(t, Render(nil, nil, 1))
}

func TestClockSkewDoesNotReorder(t *testing.T) {
	// Arrival order wins even when createdAt runs backwards; the day
	// separator simply reflects each message's own day.
	msgs := []models.Message{
		msgAt(1, 2, "2024-01-02T10:00:00Z"),
		msgAt(2, 2, "2024-01-01T10:00:00Z"),
	}

	rows := Render(msgs, nil, 1)
	assert.Equal(t, []RowKind{RowDateSeparator, RowMessage, RowDateSeparator, RowMessage}, kinds(rows))
	assert.Equal(t, int64(1), rows[1].Message.ID)
	assert.Equal(t, int64(2), rows[3].Message.ID)
}
