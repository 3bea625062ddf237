package live

import "context"

// Offline is the null channel used when the socket cannot be reached:
// always disconnected, so every send takes the REST fallback and no
// events ever arrive.
type Offline struct{}

func (Offline) Connected() bool { return false }

func (Offline) Subscribe(conversationID int64, h Handler) func() {
	return func() {}
}

func (Offline) SendMessage(ctx context.Context, conversationID int64, content string) error {
	return nil
}

func (Offline) MarkAsRead(ctx context.Context, conversationID int64) error { return nil }

func (Offline) StartTyping(conversationID int64) error { return nil }

func (Offline) StopTyping(conversationID int64) error { return nil }

func (Offline) EditMessage(ctx context.Context, messageID int64, content string) error { return nil }

func (Offline) DeleteMessage(ctx context.Context, messageID int64) error { return nil }

func (Offline) Close() error { return nil }
