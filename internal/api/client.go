// Package api is the REST client for the portal's chat endpoints. Every
// call attaches the bearer token, classifies failures into the client
// error taxonomy, and never retries on its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	apperrors "github.com/czefenglim/bluecollar-chat/pkg/errors"
)

type Client struct {
	base  string
	token string
	http  *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:  baseURL,
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// envelope is the response wrapper every chat endpoint uses.
type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Conversation fetches conversation metadata (participants, job).
func (c *Client) Conversation(ctx context.Context, id int64) (models.Conversation, error) {
	var conv models.Conversation
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/chat/conversations/%d", id), nil, &conv)
	return conv, err
}

// Messages fetches one history page, newest page first.
func (c *Client) Messages(ctx context.Context, conversationID int64, page, limit int) ([]models.Message, models.Pagination, error) {
	path := fmt.Sprintf("/api/chat/conversations/%d/messages?page=%d&limit=%d", conversationID, page, limit)
	var msgs []models.Message
	env, err := c.do(ctx, http.MethodGet, path, nil, &msgs)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if env.Pagination == nil {
		return nil, models.Pagination{}, apperrors.Decode("messages response missing pagination", nil)
	}
	return msgs, *env.Pagination, nil
}

// MarkConversationRead marks all unread messages in the conversation as
// read server-side.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID int64) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/chat/conversations/%d/read", conversationID), nil, nil)
	return err
}

// SendMessage posts a text message and returns the authoritative record.
// Used only when the live channel is down; otherwise sends go through the
// channel and the record arrives as a live event.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, content string) (models.Message, error) {
	var msg models.Message
	body := map[string]string{"content": content}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/conversations/%d/messages", conversationID), body, &msg)
	return msg, err
}

// EditMessage updates a message's content and returns the updated record.
func (c *Client) EditMessage(ctx context.Context, messageID int64, content string) (models.Message, error) {
	var msg models.Message
	body := map[string]string{"content": content}
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/chat/messages/%d", messageID), body, &msg)
	return msg, err
}

// DeleteMessage soft-deletes a message server-side.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/chat/messages/%d", messageID), nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Decode("encode request body", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, apperrors.Transport("build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) (*envelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Transport("request failed", err)
	}
	defer resp.Body.Close()

	// Only 401 means the session itself is bad. 403 is an ownership
	// refusal (editing someone else's message) and must not read as
	// "log in again".
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.Auth(fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return nil, apperrors.Transport(env.Error, nil)
		}
		return nil, apperrors.Transport(fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Decode("decode response envelope", err)
	}
	if !env.Success {
		return nil, apperrors.Transport("server reported failure", nil)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, apperrors.Decode("decode response data", err)
		}
	}
	return &env, nil
}
