package chat

import "context"

// SendRequest carries one outbound message to the portal.
type SendRequest struct {
	ConversationID int64
	TypeID         Type
	From           int64
	To             int64
	Body           string

	// AttachmentData is the base64-encoded payload, empty when no attachment.
	AttachmentData string
	AttachmentName string

	// ReplyFor is the reply-target message ID, nil for top-level messages.
	ReplyFor *int64
}

// Backend is the portal surface the sync engine depends on. The production
// implementation is portal.Client; tests substitute fakes.
type Backend interface {
	// ListConversations fetches the full conversation snapshot for the
	// session user.
	ListConversations(ctx context.Context) ([]Conversation, error)

	// CreateConversation opens a new conversation of the given type.
	CreateConversation(ctx context.Context, typeID Type, to int64, subject string) (Conversation, error)

	// Messages fetches the full message snapshot for one conversation.
	Messages(ctx context.Context, conversationID int64) ([]Message, error)

	// History fetches the full message transcript across all conversations.
	History(ctx context.Context) ([]Message, error)

	// Send submits one message and returns the server's record of it.
	Send(ctx context.Context, req SendRequest) (Message, error)

	// MarkRead acknowledges one delivered message.
	MarkRead(ctx context.Context, messageID, conversationID int64, typeID Type) error

	// CloseConversation transitions a conversation to the closed state.
	CloseConversation(ctx context.Context, conversationID int64) error

	// ResolveFileURL exchanges a stored attachment path for a short-lived
	// fetchable URL.
	ResolveFileURL(ctx context.Context, path string) (string, error)
}
