package todos

import "errors"

var (
	ErrInvalidID        = errors.New("invalid todo list id")
	ErrTodoListNotFound = errors.New("todo list not found")
	ErrStoreUnavailable = errors.New("todo store unavailable")
	ErrSchemaMismatch   = errors.New("todo document schema mismatch")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyLabel       = errors.New("label is required")
)
