package devserver

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/czefenglim/bluecollar-chat/internal/live"
	"github.com/czefenglim/bluecollar-chat/internal/models"
)

func pathID(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return id
}

func (s *Server) getConversation(c *gin.Context) {
	s.mu.Lock()
	conv, exists := s.conversations[pathID(c)]
	s.mu.Unlock()

	if !exists {
		fail(c, http.StatusNotFound, "Conversation not found")
		return
	}
	ok(c, conv)
}

// listMessages pages from the end of history: page 1 is the most recent
// block, each page in chronological order, so the client can prepend
// older pages as-is.
func (s *Server) listMessages(c *gin.Context) {
	convID := pathID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	s.mu.Lock()
	all := s.messages[convID]
	total := len(all)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	end := total - (page-1)*limit
	start := end - limit
	if end < 0 {
		end = 0
	}
	if start < 0 {
		start = 0
	}

	out := make([]models.Message, 0, end-start)
	for _, m := range all[start:end] {
		out = append(out, *m)
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       out,
		"pagination": models.Pagination{Page: page, TotalPages: totalPages},
	})
}

func (s *Server) markConversationRead(c *gin.Context) {
	convID := pathID(c)
	readerID := c.MustGet("userId").(int64)
	now := time.Now()

	s.mu.Lock()
	marked := 0
	for _, m := range s.messages[convID] {
		if m.SenderID == readerID || m.IsRead {
			continue
		}
		m.IsRead = true
		t := now
		m.ReadAt = &t
		marked++
	}
	s.mu.Unlock()

	if marked > 0 {
		s.broadcast(convID, nil, live.Event{
			Type:           live.EventMessagesRead,
			ConversationID: convID,
			ReaderID:       readerID,
			At:             now,
		})
	}
	ok(c, gin.H{"markedRead": marked})
}

func (s *Server) createMessage(c *gin.Context) {
	convID := pathID(c)
	senderID := c.MustGet("userId").(int64)

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	s.mu.Lock()
	content := req.Content
	msg := *s.appendLocked(convID, senderID, models.MessageTypeText, &content, nil, time.Now())
	s.mu.Unlock()

	// REST sends happen when the sender's socket is down, so the echo
	// only matters for the other participant's open screen.
	s.broadcast(convID, nil, live.Event{Type: live.EventNewMessage, ConversationID: convID, Message: &msg})
	ok(c, msg)
}

func (s *Server) createAttachment(c *gin.Context) {
	convID := pathID(c)
	senderID := c.MustGet("userId").(int64)

	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file field required")
		return
	}

	typ := models.MessageTypeFile
	mime := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		typ = models.MessageTypeImage
		mime = "image/" + strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	case ".pdf":
		mime = "application/pdf"
	}

	s.mu.Lock()
	att := &models.Attachment{
		URL:      "/files/" + strconv.FormatInt(s.nextMessageID+1, 10),
		Name:     file.Filename,
		Size:     file.Size,
		MimeType: mime,
	}
	msg := *s.appendLocked(convID, senderID, typ, nil, att, time.Now())
	s.mu.Unlock()

	s.broadcast(convID, nil, live.Event{Type: live.EventNewMessage, ConversationID: convID, Message: &msg})
	ok(c, msg)
}

func (s *Server) editMessage(c *gin.Context) {
	msgID := pathID(c)
	userID := c.MustGet("userId").(int64)

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	s.mu.Lock()
	m := s.findMessageLocked(msgID)
	if m == nil {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "Message not found")
		return
	}
	if m.SenderID != userID {
		s.mu.Unlock()
		fail(c, http.StatusForbidden, "Not your message")
		return
	}
	now := time.Now()
	content := req.Content
	m.Content = &content
	m.IsEdited = true
	m.EditedAt = &now
	m.UpdatedAt = now
	out := *m
	s.mu.Unlock()

	ok(c, out)
}

func (s *Server) deleteMessage(c *gin.Context) {
	msgID := pathID(c)
	userID := c.MustGet("userId").(int64)

	s.mu.Lock()
	m := s.findMessageLocked(msgID)
	if m == nil {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "Message not found")
		return
	}
	if m.SenderID != userID {
		s.mu.Unlock()
		fail(c, http.StatusForbidden, "Not your message")
		return
	}
	now := time.Now()
	m.IsDeleted = true
	m.Content = nil
	m.DeletedAt = &now
	m.UpdatedAt = now
	s.mu.Unlock()

	ok(c, nil)
}
