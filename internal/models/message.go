package models

import "time"

// MessageType tags what a message carries.
type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeFile   MessageType = "FILE"
	MessageTypeSystem MessageType = "SYSTEM"
)

// Sender is the author snapshot embedded in every message.
type Sender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Attachment describes the file payload of IMAGE/FILE messages.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Message is one chat message as the backend returns it. IDs are assigned
// by the backend and never client-generated; ID is the dedup key everywhere.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID int64       `json:"conversationId"`
	SenderID       int64       `json:"senderId"`
	Sender         Sender      `json:"sender"`
	Type           MessageType `json:"type"`
	Content        *string     `json:"content"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	IsRead         bool        `json:"isRead"`
	ReadAt         *time.Time  `json:"readAt,omitempty"`
	IsEdited       bool        `json:"isEdited"`
	EditedAt       *time.Time  `json:"editedAt,omitempty"`
	IsDeleted      bool        `json:"isDeleted"`
	DeletedAt      *time.Time  `json:"deletedAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Text returns the content or "" for deleted/attachment-only messages.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
