package conversation

import "errors"

// Domain errors for conversation operations

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyTurn            = errors.New("turn content must not be empty")
	ErrInvalidRole          = errors.New("turn role must be user or system")
	ErrNotOwner             = errors.New("only the conversation owner can delete it")
)
