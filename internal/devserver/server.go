// Package devserver is an in-memory stand-in for the portal backend's
// chat surface: the REST endpoints plus the websocket live channel. It
// exists for integration tests and offline development of the client;
// it is not a production server.
package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

type Server struct {
	secret []byte
	engine *gin.Engine

	mu            sync.Mutex
	nextMessageID int64
	conversations map[int64]models.Conversation
	messages      map[int64][]*models.Message // conversation id -> chronological
	users         map[int64]models.Sender
	subs          map[int64]map[*wsClient]struct{}
}

func New(secret string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:        []byte(secret),
		conversations: make(map[int64]models.Conversation),
		messages:      make(map[int64][]*models.Message),
		users:         make(map[int64]models.Sender),
		subs:          make(map[int64]map[*wsClient]struct{}),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/chat")
	api.Use(s.authMiddleware())
	{
		api.GET("/conversations/:id", s.getConversation)
		api.GET("/conversations/:id/messages", s.listMessages)
		api.PUT("/conversations/:id/read", s.markConversationRead)
		api.POST("/conversations/:id/messages", s.createMessage)
		api.POST("/conversations/:id/messages/attachment", s.createAttachment)
		api.PUT("/messages/:id", s.editMessage)
		api.DELETE("/messages/:id", s.deleteMessage)
	}

	r.GET("/ws", s.handleSocket)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// SeedUser registers a participant the stub can attach as sender.
func (s *Server) SeedUser(u models.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedConversation registers a conversation.
func (s *Server) SeedConversation(conv models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
}

// SeedMessage appends a historical message, assigning the next id.
func (s *Server) SeedMessage(conversationID, senderID int64, content string, createdAt time.Time) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.appendLocked(conversationID, senderID, models.MessageTypeText, &content, nil, createdAt)
}

func (s *Server) appendLocked(conversationID, senderID int64, typ models.MessageType, content *string, att *models.Attachment, at time.Time) *models.Message {
	s.nextMessageID++
	m := &models.Message{
		ID:             s.nextMessageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Sender:         s.users[senderID],
		Type:           typ,
		Content:        content,
		Attachment:     att,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	s.messages[conversationID] = append(s.messages[conversationID], m)
	return m
}

func (s *Server) findMessageLocked(id int64) *models.Message {
	for _, msgs := range s.messages {
		for _, m := range msgs {
			if m.ID == id {
				return m
			}
		}
	}
	return nil
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}
