package todos

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/internal/repository/docid"
)

type listRow struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (listRow) TableName() string { return "todo_lists" }

type itemRow struct {
	Seq     int64  `gorm:"primaryKey;autoIncrement"`
	ListID  string `gorm:"type:text;not null"`
	ItemID  string `gorm:"type:text;not null"`
	Label   string `gorm:"not null"`
	Checked bool   `gorm:"not null;default:false"`
}

func (itemRow) TableName() string { return "todo_items" }

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(todosdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListTodoLists(ctx context.Context) iter.Seq2[todosdomain.ListSummary, error] {
	return func(yield func(todosdomain.ListSummary, error) bool) {
		rows, err := r.db.WithContext(ctx).
			Table("todo_lists AS l").
			Select("l.id, l.name, COUNT(i.seq) AS item_count").
			Joins("LEFT JOIN todo_items i ON i.list_id = l.id").
			Group("l.id, l.name").
			Order("l.name ASC, l.id ASC").
			Rows()
		if err != nil {
			yield(todosdomain.ListSummary{}, storeErr(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var summary todosdomain.ListSummary
			if err := rows.Scan(&summary.ID, &summary.Name, &summary.ItemCount); err != nil {
				yield(todosdomain.ListSummary{}, fmt.Errorf("%w: %w", todosdomain.ErrSchemaMismatch, err))
				return
			}
			if !yield(summary, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(todosdomain.ListSummary{}, storeErr(err))
		}
	}
}

func (r *PostgresRepository) CreateTodoList(ctx context.Context, name string) (string, error) {
	row := listRow{ID: docid.NewListID(), Name: name}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", storeErr(err)
	}
	return row.ID, nil
}

func (r *PostgresRepository) GetTodoList(ctx context.Context, listID string) (*todosdomain.TodoList, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return nil, err
	}

	var list listRow
	if err := r.db.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, todosdomain.ErrTodoListNotFound
		}
		return nil, storeErr(err)
	}

	result, err := loadList(r.db.WithContext(ctx), list)
	if err != nil {
		return nil, storeErr(err)
	}
	return result, nil
}

// DeleteTodoList relies on ON DELETE CASCADE to drop the items.
func (r *PostgresRepository) DeleteTodoList(ctx context.Context, listID string) (bool, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Delete(&listRow{}, "id = ?", listID)
	if result.Error != nil {
		return false, storeErr(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) CreateTodoItem(ctx context.Context, listID, label string) (*todosdomain.TodoList, error) {
	return r.mutate(ctx, listID, func(tx *gorm.DB) (bool, error) {
		item := itemRow{
			ListID: listID,
			ItemID: docid.NewItemID(),
			Label:  label,
		}
		if err := tx.Create(&item).Error; err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *PostgresRepository) SetTodoItemChecked(ctx context.Context, listID, itemID string, checked bool) (*todosdomain.TodoList, error) {
	return r.mutate(ctx, listID, func(tx *gorm.DB) (bool, error) {
		result := tx.Model(&itemRow{}).
			Where("list_id = ? AND item_id = ?", listID, itemID).
			Update("checked", checked)
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	})
}

func (r *PostgresRepository) DeleteTodoItem(ctx context.Context, listID, itemID string) (*todosdomain.TodoList, error) {
	return r.mutate(ctx, listID, func(tx *gorm.DB) (bool, error) {
		if err := tx.Where("list_id = ? AND item_id = ?", listID, itemID).Delete(&itemRow{}).Error; err != nil {
			return false, err
		}
		return true, nil
	})
}

// mutate locks the list row, applies fn and reads the post-image inside one
// transaction. A nil list means the list or fn's target was not found.
func (r *PostgresRepository) mutate(ctx context.Context, listID string, fn func(tx *gorm.DB) (bool, error)) (*todosdomain.TodoList, error) {
	if err := docid.ValidateListID(listID); err != nil {
		return nil, err
	}

	var result *todosdomain.TodoList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list listRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&list, "id = ?", listID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		matched, err := fn(tx)
		if err != nil || !matched {
			return err
		}

		result, err = loadList(tx, list)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return result, nil
}

func loadList(db *gorm.DB, list listRow) (*todosdomain.TodoList, error) {
	var rows []itemRow
	if err := db.Where("list_id = ?", list.ID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]todosdomain.TodoItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, todosdomain.TodoItem{
			ID:      row.ItemID,
			Label:   row.Label,
			Checked: row.Checked,
		})
	}

	return &todosdomain.TodoList{
		ID:    list.ID,
		Name:  list.Name,
		Items: items,
	}, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", todosdomain.ErrStoreUnavailable, err)
}
