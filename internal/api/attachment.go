package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	apperrors "github.com/czefenglim/bluecollar-chat/pkg/errors"
)

// SendAttachment uploads a file into the conversation and returns the
// created message with its attachment fields populated. The backend owns
// object storage; the client only streams the bytes.
func (c *Client) SendAttachment(ctx context.Context, conversationID int64, filename string, file io.Reader) (models.Message, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return models.Message{}, apperrors.Decode("build multipart body", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return models.Message{}, apperrors.Transport("read attachment", err)
	}
	if err := w.Close(); err != nil {
		return models.Message{}, apperrors.Decode("finish multipart body", err)
	}

	path := fmt.Sprintf("/api/chat/conversations/%d/messages/attachment", conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return models.Message{}, apperrors.Transport("build request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var msg models.Message
	if _, err := c.send(req, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}
