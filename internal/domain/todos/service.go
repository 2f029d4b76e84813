package todos

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListTodoLists(ctx context.Context) ([]ListSummary, error) {
	result := []ListSummary{}
	for summary, err := range s.repo.ListTodoLists(ctx) {
		if err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, nil
}

func (s *Service) CreateTodoList(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return s.repo.CreateTodoList(ctx, name)
}

// CreateTodoListWithItems creates the list and its items in one transaction.
func (s *Service) CreateTodoListWithItems(ctx context.Context, name string, labels []string) (*TodoList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	trimmed := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, ErrEmptyLabel
		}
		trimmed = append(trimmed, label)
	}

	var created *TodoList
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		id, err := tx.CreateTodoList(ctx, name)
		if err != nil {
			return err
		}

		list, err := tx.GetTodoList(ctx, id)
		if err != nil {
			return err
		}
		for _, label := range trimmed {
			list, err = tx.CreateTodoItem(ctx, id, label)
			if err != nil {
				return err
			}
			if list == nil {
				return ErrTodoListNotFound
			}
		}

		created = list
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *Service) GetTodoList(ctx context.Context, listID string) (*TodoList, error) {
	return s.repo.GetTodoList(ctx, listID)
}

func (s *Service) DeleteTodoList(ctx context.Context, listID string) (bool, error) {
	return s.repo.DeleteTodoList(ctx, listID)
}

func (s *Service) CreateTodoItem(ctx context.Context, listID, label string) (*TodoList, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	return s.repo.CreateTodoItem(ctx, listID, label)
}

func (s *Service) SetTodoItemChecked(ctx context.Context, listID, itemID string, checked bool) (*TodoList, error) {
	return s.repo.SetTodoItemChecked(ctx, listID, itemID, checked)
}

func (s *Service) DeleteTodoItem(ctx context.Context, listID, itemID string) (*TodoList, error) {
	return s.repo.DeleteTodoItem(ctx, listID, itemID)
}
