package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/czefenglim/bluecollar-chat/internal/live"
	"github.com/czefenglim/bluecollar-chat/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	userID  int64
}

func (c *wsClient) send(e live.Event) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.conn.WriteMessage(websocket.TextMessage, data)
}

// inboundFrame mirrors the client's outbound framing.
type inboundFrame struct {
	Op             string `json:"op"`
	ConversationID int64  `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
	Content        string `json:"content"`
	Typing         bool   `json:"typing"`
}

// handleSocket upgrades the connection; the token rides as a query
// parameter on the handshake, like the production socket server.
func (s *Server) handleSocket(c *gin.Context) {
	userID, valid := s.validateToken(c.Query("token"))
	if !valid {
		c.String(http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &wsClient{conn: conn, userID: userID}
	defer s.dropClient(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f inboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		s.handleFrame(client, f)
	}
}

func (s *Server) handleFrame(client *wsClient, f inboundFrame) {
	switch f.Op {
	case "subscribe":
		s.mu.Lock()
		if s.subs[f.ConversationID] == nil {
			s.subs[f.ConversationID] = make(map[*wsClient]struct{})
		}
		s.subs[f.ConversationID][client] = struct{}{}
		s.mu.Unlock()

	case "unsubscribe":
		s.mu.Lock()
		delete(s.subs[f.ConversationID], client)
		s.mu.Unlock()

	case "send":
		s.mu.Lock()
		content := f.Content
		msg := *s.appendLocked(f.ConversationID, client.userID, models.MessageTypeText, &content, nil, time.Now())
		s.mu.Unlock()
		// Echo to everyone, sender included: the echo is the sender's
		// confirmation.
		s.broadcast(f.ConversationID, nil, live.Event{
			Type:           live.EventNewMessage,
			ConversationID: f.ConversationID,
			Message:        &msg,
		})

	case "read":
		now := time.Now()
		s.mu.Lock()
		marked := 0
		for _, m := range s.messages[f.ConversationID] {
			if m.SenderID == client.userID || m.IsRead {
				continue
			}
			m.IsRead = true
			t := now
			m.ReadAt = &t
			marked++
		}
		s.mu.Unlock()
		if marked > 0 {
			s.broadcast(f.ConversationID, client, live.Event{
				Type:           live.EventMessagesRead,
				ConversationID: f.ConversationID,
				ReaderID:       client.userID,
				At:             now,
			})
		}

	case "typing":
		s.broadcast(f.ConversationID, client, live.Event{
			Type:           live.EventTyping,
			ConversationID: f.ConversationID,
			UserID:         client.userID,
			Typing:         f.Typing,
		})

	case "edit":
		// Fan-out only: the editor already confirmed through REST.
		now := time.Now()
		s.mu.Lock()
		m := s.findMessageLocked(f.MessageID)
		var convID int64
		var content string
		if m != nil && m.SenderID == client.userID && !m.IsDeleted {
			content = f.Content
			m.Content = &content
			m.IsEdited = true
			m.EditedAt = &now
			m.UpdatedAt = now
			convID = m.ConversationID
		}
		s.mu.Unlock()
		if convID != 0 {
			s.broadcast(convID, client, live.Event{
				Type:           live.EventMessageEdited,
				ConversationID: convID,
				MessageID:      f.MessageID,
				Content:        content,
				At:             now,
			})
		}

	case "delete":
		now := time.Now()
		s.mu.Lock()
		m := s.findMessageLocked(f.MessageID)
		var convID int64
		if m != nil && m.SenderID == client.userID {
			if !m.IsDeleted {
				m.IsDeleted = true
				m.Content = nil
				m.DeletedAt = &now
				m.UpdatedAt = now
			}
			convID = m.ConversationID
		}
		s.mu.Unlock()
		if convID != 0 {
			s.broadcast(convID, client, live.Event{
				Type:           live.EventMessageDeleted,
				ConversationID: convID,
				MessageID:      f.MessageID,
				At:             now,
			})
		}
	}
}

// broadcast sends the event to every subscriber of the conversation,
// except skip (the originator) when set.
func (s *Server) broadcast(conversationID int64, skip *wsClient, e live.Event) {
	s.mu.Lock()
	targets := make([]*wsClient, 0, len(s.subs[conversationID]))
	for client := range s.subs[conversationID] {
		if client == skip {
			continue
		}
		targets = append(targets, client)
	}
	s.mu.Unlock()

	for _, client := range targets {
		client.send(e)
	}
}

func (s *Server) dropClient(client *wsClient) {
	s.mu.Lock()
	for _, subs := range s.subs {
		delete(subs, client)
	}
	s.mu.Unlock()
	client.conn.Close()
}
