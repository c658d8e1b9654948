package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itelinc/incuchat/internal/attachment"
)

// Draft is a composed message before submission. The caller keeps the draft
// on failure so the user can retry without retyping.
type Draft struct {
	Body string

	// AttachmentName and AttachmentData carry the optional file. Data is the
	// raw bytes; encoding happens at send time.
	AttachmentName string
	AttachmentData []byte

	// ReplyFor is the reply-target message ID, nil for top-level messages.
	ReplyFor *int64
}

// placeholderTimeLayout renders the synthesized body for attachment-only
// sends. The layout is parseable so tests can pin the convention.
const placeholderTimeLayout = "2006-01-02 15:04:05"

// Send validates a draft, submits it, and folds the result into local state
// optimistically. Any failure leaves the stores exactly as they were.
func (e *Engine) Send(ctx context.Context, conversationID int64, draft Draft) (Message, error) {
	conversation, ok := e.list.Get(conversationID)
	if !ok {
		return Message{}, ErrUnknownConversation
	}

	recipient, participant := conversation.Recipient(e.session.UserID)
	if !participant {
		return Message{}, ErrNotParticipant
	}
	if conversation.Closed() {
		return Message{}, ErrConversationClosed
	}
	if !conversation.TypeID.AllowsReply() {
		// Broadcast conversations accept top-level posts from the incubator
		// side only; replies are forbidden for everyone.
		if draft.ReplyFor != nil || !e.session.Incubator() {
			return Message{}, ErrBroadcastNoReply
		}
	}

	body := draft.Body
	hasAttachment := len(draft.AttachmentData) > 0
	if body == "" && !hasAttachment {
		return Message{}, ErrEmptyMessage
	}

	var encoded string
	if hasAttachment {
		if err := attachment.ValidateFile(draft.AttachmentName, int64(len(draft.AttachmentData))); err != nil {
			return Message{}, err
		}
		encoded = attachment.Encode(draft.AttachmentData)
		if body == "" {
			body = "attachment - " + time.Now().Format(placeholderTimeLayout)
		}
	}

	req := SendRequest{
		ConversationID: conversationID,
		TypeID:         conversation.TypeID,
		From:           e.session.UserID,
		To:             recipient,
		Body:           body,
		AttachmentData: encoded,
		AttachmentName: draft.AttachmentName,
		ReplyFor:       draft.ReplyFor,
	}

	sent, err := e.backend.Send(ctx, req)
	if err != nil {
		return Message{}, fmt.Errorf("send message: %w", err)
	}

	sent.LocalTag = uuid.NewString()
	e.msgs.Append(conversationID, sent)
	e.list.PatchPreview(conversationID, sent.Body, sent.CreatedTime)
	e.notify()

	e.scheduleReconcile(ctx, conversationID)
	return sent, nil
}

// scheduleReconcile runs one extra message refresh shortly after a send so
// server-derived fields (IDs, timestamps) converge without waiting for the
// regular poll cadence.
func (e *Engine) scheduleReconcile(ctx context.Context, conversationID int64) {
	timer := time.NewTimer(e.reconcileDelay)
	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := e.refreshMessages(ctx, conversationID); err != nil {
			e.logger.Debug().Err(err).Int64("conversation_id", conversationID).Msg("post-send reconcile failed")
		}
	}()
}
