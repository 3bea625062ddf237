package live

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	apperrors "github.com/czefenglim/bluecollar-chat/pkg/errors"
	"github.com/czefenglim/bluecollar-chat/pkg/logger"
)

// frame is one outbound client frame.
type frame struct {
	Op             string `json:"op"`
	ConversationID int64  `json:"conversationId,omitempty"`
	MessageID      int64  `json:"messageId,omitempty"`
	Content        string `json:"content,omitempty"`
	Typing         bool   `json:"typing,omitempty"`
}

// SocketChannel is the websocket implementation of Channel. One instance
// is shared per app session and multiplexed by conversation id.
type SocketChannel struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	connected atomic.Bool
	closeOnce sync.Once

	subMu sync.RWMutex
	subs  map[int64]Handler
}

// Dial connects to the live channel. The bearer token rides as a query
// parameter because websocket handshakes cannot carry custom headers from
// every client platform the backend supports.
func Dial(ctx context.Context, rawURL, token string) (*SocketChannel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.Transport("invalid socket url", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 401 {
			return nil, apperrors.Auth("socket handshake rejected", err)
		}
		return nil, apperrors.Transport("socket dial failed", err)
	}

	c := &SocketChannel{
		conn: conn,
		subs: make(map[int64]Handler),
	}
	c.connected.Store(true)
	go c.readLoop()
	return c, nil
}

func (c *SocketChannel) Connected() bool {
	return c.connected.Load()
}

func (c *SocketChannel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.connected.Store(false)
			return
		}
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			logger.Warn().Err(err).Msg("dropping undecodable live frame")
			continue
		}

		c.subMu.RLock()
		h := c.subs[e.ConversationID]
		c.subMu.RUnlock()
		if h != nil {
			Dispatch(&e, h)
		}
	}
}

// Subscribe registers the handler for one conversation and announces the
// subscription to the server. The returned func is the matching
// unsubscribe and must be called on teardown.
func (c *SocketChannel) Subscribe(conversationID int64, h Handler) func() {
	c.subMu.Lock()
	c.subs[conversationID] = h
	c.subMu.Unlock()

	if err := c.write(frame{Op: "subscribe", ConversationID: conversationID}); err != nil {
		logger.Warn().Err(err).Int64("conversation", conversationID).Msg("subscribe frame failed")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, conversationID)
			c.subMu.Unlock()
			if err := c.write(frame{Op: "unsubscribe", ConversationID: conversationID}); err != nil {
				logger.Debug().Err(err).Int64("conversation", conversationID).Msg("unsubscribe frame failed")
			}
		})
	}
}

func (c *SocketChannel) SendMessage(ctx context.Context, conversationID int64, content string) error {
	return c.write(frame{Op: "send", ConversationID: conversationID, Content: content})
}

func (c *SocketChannel) MarkAsRead(ctx context.Context, conversationID int64) error {
	return c.write(frame{Op: "read", ConversationID: conversationID})
}

func (c *SocketChannel) StartTyping(conversationID int64) error {
	return c.write(frame{Op: "typing", ConversationID: conversationID, Typing: true})
}

func (c *SocketChannel) StopTyping(conversationID int64) error {
	return c.write(frame{Op: "typing", ConversationID: conversationID, Typing: false})
}

func (c *SocketChannel) EditMessage(ctx context.Context, messageID int64, content string) error {
	return c.write(frame{Op: "edit", MessageID: messageID, Content: content})
}

func (c *SocketChannel) DeleteMessage(ctx context.Context, messageID int64) error {
	return c.write(frame{Op: "delete", MessageID: messageID})
}

func (c *SocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		err = c.conn.Close()
	})
	return err
}

func (c *SocketChannel) write(f frame) error {
	if !c.connected.Load() {
		return apperrors.ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(f); err != nil {
		c.connected.Store(false)
		return apperrors.Transport("socket write failed", err)
	}
	return nil
}
