package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/internal/repository/docid"
)

// TodoRepository keeps todo lists in process memory. It backs the "memory"
// store driver and the handler and CLI tests.
type TodoRepository struct {
	state *todoState
}

// listOp is one write against the lists map. It returns the stored post-image
// (nil when nothing was stored) and whether its target matched. Ops must be
// deterministic so a transaction can replay them on commit.
type listOp func(lists map[string]todosdomain.TodoList) (*todosdomain.TodoList, bool)

type todoState struct {
	mu    sync.RWMutex
	lists map[string]todosdomain.TodoList
	// tx marks a private fork owned by an open transaction; pending holds
	// the ops to replay on the shared state when it commits.
	tx      bool
	pending []listOp
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{
		state: &todoState{lists: make(map[string]todosdomain.TodoList)},
	}
}

// Transaction runs fn against a private copy of the lists. Nothing fn writes
// is visible to other callers until fn succeeds, at which point its writes
// are replayed on the shared state under one lock. A failed fn leaves the
// shared state untouched.
func (r *TodoRepository) Transaction(ctx context.Context, fn func(todosdomain.Repository) error) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if r.state.tx {
		return fn(r)
	}

	private := r.state.fork()
	if err := fn(&TodoRepository{state: private}); err != nil {
		return err
	}

	r.state.commit(private.pending)
	return nil
}

func (r *TodoRepository) ListTodoLists(ctx context.Context) iter.Seq2[todosdomain.ListSummary, error] {
	return func(yield func(todosdomain.ListSummary, error) bool) {
		if err := checkContext(ctx); err != nil {
			yield(todosdomain.ListSummary{}, err)
			return
		}

		r.state.mu.RLock()
		summaries := make([]todosdomain.ListSummary, 0, len(r.state.lists))
		for _, list := range r.state.lists {
			summaries = append(summaries, list.Summary())
		}
		r.state.mu.RUnlock()

		slices.SortFunc(summaries, func(a, b todosdomain.ListSummary) int {
			if c := cmp.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		for _, summary := range summaries {
			if !yield(summary, nil) {
				return
			}
		}
	}
}

func (r *TodoRepository) CreateTodoList(ctx context.Context, name string) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	id := docid.NewListID()
	r.state.apply(func(lists map[string]todosdomain.TodoList) (*todosdomain.TodoList, bool) {
		list := todosdomain.TodoList{ID: id, Name: name, Items: []todosdomain.TodoItem{}}
		lists[id] = list
		return cloneList(list), true
	})

	return id, nil
}

func (r *TodoRepository) GetTodoList(ctx context.Context, listID string) (*todosdomain.TodoList, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	list, ok := r.state.lists[listID]
	if !ok {
		return nil, todosdomain.ErrTodoListNotFound
	}
	return cloneList(list), nil
}

func (r *TodoRepository) DeleteTodoList(ctx context.Context, listID string) (bool, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return false, err
	}
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	_, deleted := r.state.apply(func(lists map[string]todosdomain.TodoList) (*todosdomain.TodoList, bool) {
		if _, ok := lists[listID]; !ok {
			return nil, false
		}
		delete(lists, listID)
		return nil, true
	})
	return deleted, nil
}

func (r *TodoRepository) CreateTodoItem(ctx context.Context, listID, label string) (*todosdomain.TodoList, error) {
	itemID := docid.NewItemID()
	return r.update(ctx, listID, func(list *todosdomain.TodoList) bool {
		list.Items = append(list.Items, todosdomain.TodoItem{
			ID:    itemID,
			Label: label,
		})
		return true
	})
}

func (r *TodoRepository) SetTodoItemChecked(ctx context.Context, listID, itemID string, checked bool) (*todosdomain.TodoList, error) {
	return r.update(ctx, listID, func(list *todosdomain.TodoList) bool {
		for i := range list.Items {
			if list.Items[i].ID == itemID {
				list.Items[i].Checked = checked
				return true
			}
		}
		return false
	})
}

func (r *TodoRepository) DeleteTodoItem(ctx context.Context, listID, itemID string) (*todosdomain.TodoList, error) {
	return r.update(ctx, listID, func(list *todosdomain.TodoList) bool {
		list.Items = slices.DeleteFunc(list.Items, func(item todosdomain.TodoItem) bool {
			return item.ID == itemID
		})
		return true
	})
}

// update applies fn to a copy of the list and stores it when fn reports a
// match. fn must not generate ids itself.
func (r *TodoRepository) update(ctx context.Context, listID string, fn func(*todosdomain.TodoList) bool) (*todosdomain.TodoList, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	list, _ := r.state.apply(func(lists map[string]todosdomain.TodoList) (*todosdomain.TodoList, bool) {
		stored, ok := lists[listID]
		if !ok {
			return nil, false
		}

		list := cloneList(stored)
		if !fn(list) {
			return nil, false
		}

		lists[listID] = *cloneList(*list)
		return list, true
	})
	return list, nil
}

func (s *todoState) apply(op listOp) (*todosdomain.TodoList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := op(s.lists)
	if s.tx {
		s.pending = append(s.pending, op)
	}
	return list, ok
}

func (s *todoState) fork() *todoState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]todosdomain.TodoList, len(s.lists))
	for id, list := range s.lists {
		copied[id] = *cloneList(list)
	}
	return &todoState{lists: copied, tx: true}
}

// commit replays ops in order. A list deleted by another caller since the
// fork makes the ops that target it no-ops, as they would be on a live store.
func (s *todoState) commit(ops []listOp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		op(s.lists)
	}
}

func cloneList(list todosdomain.TodoList) *todosdomain.TodoList {
	items := make([]todosdomain.TodoItem, len(list.Items))
	copy(items, list.Items)
	list.Items = items
	return &list
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", todosdomain.ErrStoreUnavailable, err)
	}
	return nil
}
