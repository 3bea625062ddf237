// Package view turns the ordered store contents and the typing set into
// the final render list. Pure functions only, so the output is fully
// determined by the inputs.
package view

import (
	"sort"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

type RowKind int

const (
	RowMessage RowKind = iota
	RowDateSeparator
	RowTyping
)

// Row is one render-ready entry: a message, a date separator, or the
// trailing typing indicator.
type Row struct {
	Kind          RowKind
	Message       *models.Message
	Mine          bool
	Day           time.Time // midnight of the separator's day
	TypingUserIDs []int64
}

// Render builds the row list: a date separator whenever the calendar day
// changes from the previous message (including before the first one), the
// messages in store order, and a typing row when anyone is typing.
func Render(msgs []models.Message, typingUserIDs []int64, currentUserID int64) []Row {
	rows := make([]Row, 0, len(msgs)+4)

	var lastDay time.Time
	for i := range msgs {
		m := msgs[i]
		day := startOfDay(m.CreatedAt)
		if !day.Equal(lastDay) {
			rows = append(rows, Row{Kind: RowDateSeparator, Day: day})
			lastDay = day
		}
		rows = append(rows, Row{
			Kind:    RowMessage,
			Message: &msgs[i],
			Mine:    m.SenderID == currentUserID,
		})
	}

	if len(typingUserIDs) > 0 {
		ids := append([]int64(nil), typingUserIDs...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		rows = append(rows, Row{Kind: RowTyping, TypingUserIDs: ids})
	}
	return rows
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
