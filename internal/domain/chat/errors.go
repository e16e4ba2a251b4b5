package chat

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrValidation is the root of all caller-input errors; handlers map
	// it to a 400 and clients do not retry.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyText rejects messages whose text trims to nothing.
	ErrEmptyText = fmt.Errorf("%w: message text is empty", ErrValidation)

	// ErrBadTarget rejects sends with both or neither of a recipient
	// user and a group.
	ErrBadTarget = fmt.Errorf("%w: exactly one of to_user_id or group_id must be set", ErrValidation)

	// ErrNotFound covers unknown conversations, groups and users.
	ErrNotFound = errors.New("not found")
)
