package todos

import (
	"context"
	"iter"
)

// Repository is the data-access contract over todo list documents.
//
// Update methods return the list as it is right after the update. A nil list
// with a nil error means no document matched. Store failures wrap
// ErrStoreUnavailable together with the driver error.
type Repository interface {
	// Transaction runs fn with a repository bound to one store transaction.
	// Repositories not obtained this way carry no transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error

	// ListTodoLists returns summaries ordered by name. The query runs each
	// time the sequence is ranged over.
	ListTodoLists(ctx context.Context) iter.Seq2[ListSummary, error]
	CreateTodoList(ctx context.Context, name string) (string, error)
	GetTodoList(ctx context.Context, listID string) (*TodoList, error)
	DeleteTodoList(ctx context.Context, listID string) (bool, error)

	CreateTodoItem(ctx context.Context, listID, label string) (*TodoList, error)
	SetTodoItemChecked(ctx context.Context, listID, itemID string, checked bool) (*TodoList, error)
	// DeleteTodoItem returns the unchanged list when the item is already gone.
	DeleteTodoItem(ctx context.Context, listID, itemID string) (*TodoList, error)
}
