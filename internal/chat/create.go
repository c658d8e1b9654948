package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoRecipients    = errors.New("at least one recipient required")
	ErrEmptySubject    = errors.New("subject must not be empty")
	ErrTypeNotAllowed  = errors.New("chat type not allowed for this role")
	ErrInvalidChatType = errors.New("invalid chat type")
)

// CreateConversations opens conversations of the given type. One-to-one
// types take a single recipient; broadcast and group types fan out into one
// conversation per recipient. Creation stops at the first failure and
// returns the conversations created so far alongside the error.
func (e *Engine) CreateConversations(ctx context.Context, typeID Type, recipients []int64, subject string) ([]Conversation, error) {
	if !typeID.Valid() {
		return nil, ErrInvalidChatType
	}
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if err := e.session.allowsCreate(typeID); err != nil {
		return nil, err
	}
	if !typeID.FansOut() && len(recipients) > 1 {
		return nil, fmt.Errorf("%w: type %s takes a single recipient", ErrInvalidChatType, typeID)
	}

	created := make([]Conversation, 0, len(recipients))
	for _, to := range recipients {
		conversation, err := e.backend.CreateConversation(ctx, typeID, to, subject)
		if err != nil {
			return created, fmt.Errorf("create conversation with user %d: %w", to, err)
		}
		created = append(created, conversation)
	}

	// The list snapshot owns conversation ordering, so refetch rather than
	// splicing new entries in locally.
	if err := e.RefreshList(ctx); err != nil {
		e.logger.Debug().Err(err).Msg("list refresh after create failed")
	}
	return created, nil
}

// allowsCreate enforces which side of the relationship may open which chat
// type. Incubatee roles only initiate the incubatee-to-incubator type;
// broadcast and group conversations originate from the incubator side.
func (s Session) allowsCreate(typeID Type) error {
	if s.Incubator() {
		if typeID == TypeIncubateeToIncubator {
			return ErrTypeNotAllowed
		}
		return nil
	}
	if typeID != TypeIncubateeToIncubator {
		return ErrTypeNotAllowed
	}
	return nil
}
