package todos

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	todosdomain "todo-app-go/internal/domain/todos"
)

const (
	fieldID        = "_id"
	fieldName      = "name"
	fieldItems     = "items"
	fieldItemCount = "item_count"
	fieldItemID    = "id"
	fieldLabel     = "label"
	fieldChecked   = "checked"
)

func decodeListSummary(raw bson.Raw) (todosdomain.ListSummary, error) {
	id, err := lookupObjectID(raw, fieldID)
	if err != nil {
		return todosdomain.ListSummary{}, err
	}
	name, err := lookupString(raw, fieldName)
	if err != nil {
		return todosdomain.ListSummary{}, err
	}
	count, err := lookupInt(raw, fieldItemCount)
	if err != nil {
		return todosdomain.ListSummary{}, err
	}

	return todosdomain.ListSummary{
		ID:        id.Hex(),
		Name:      name,
		ItemCount: count,
	}, nil
}

func decodeTodoList(raw bson.Raw) (todosdomain.TodoList, error) {
	id, err := lookupObjectID(raw, fieldID)
	if err != nil {
		return todosdomain.TodoList{}, err
	}
	name, err := lookupString(raw, fieldName)
	if err != nil {
		return todosdomain.TodoList{}, err
	}

	value, err := lookup(raw, fieldItems)
	if err != nil {
		return todosdomain.TodoList{}, err
	}
	array, ok := value.ArrayOK()
	if !ok {
		return todosdomain.TodoList{}, mismatch(fieldItems, "expected array, got %s", value.Type)
	}
	values, err := array.Values()
	if err != nil {
		return todosdomain.TodoList{}, mismatch(fieldItems, "%v", err)
	}

	items := make([]todosdomain.TodoItem, 0, len(values))
	for i, value := range values {
		doc, ok := value.DocumentOK()
		if !ok {
			return todosdomain.TodoList{}, mismatch(fmt.Sprintf("%s.%d", fieldItems, i), "expected document, got %s", value.Type)
		}
		item, err := decodeTodoItem(doc)
		if err != nil {
			return todosdomain.TodoList{}, fmt.Errorf("%s.%d: %w", fieldItems, i, err)
		}
		items = append(items, item)
	}

	return todosdomain.TodoList{
		ID:    id.Hex(),
		Name:  name,
		Items: items,
	}, nil
}

func decodeTodoItem(raw bson.Raw) (todosdomain.TodoItem, error) {
	id, err := lookupString(raw, fieldItemID)
	if err != nil {
		return todosdomain.TodoItem{}, err
	}
	label, err := lookupString(raw, fieldLabel)
	if err != nil {
		return todosdomain.TodoItem{}, err
	}
	checked, err := lookupBool(raw, fieldChecked)
	if err != nil {
		return todosdomain.TodoItem{}, err
	}

	return todosdomain.TodoItem{
		ID:      id,
		Label:   label,
		Checked: checked,
	}, nil
}

func lookup(raw bson.Raw, key string) (bson.RawValue, error) {
	value, err := raw.LookupErr(key)
	if err != nil {
		return bson.RawValue{}, mismatch(key, "missing")
	}
	return value, nil
}

func lookupObjectID(raw bson.Raw, key string) (primitive.ObjectID, error) {
	value, err := lookup(raw, key)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, ok := value.ObjectIDOK()
	if !ok {
		return primitive.NilObjectID, mismatch(key, "expected objectID, got %s", value.Type)
	}
	return oid, nil
}

func lookupString(raw bson.Raw, key string) (string, error) {
	value, err := lookup(raw, key)
	if err != nil {
		return "", err
	}
	s, ok := value.StringValueOK()
	if !ok {
		return "", mismatch(key, "expected string, got %s", value.Type)
	}
	return s, nil
}

func lookupBool(raw bson.Raw, key string) (bool, error) {
	value, err := lookup(raw, key)
	if err != nil {
		return false, err
	}
	b, ok := value.BooleanOK()
	if !ok {
		return false, mismatch(key, "expected boolean, got %s", value.Type)
	}
	return b, nil
}

// lookupInt accepts int32 ($size yields it) and int64.
func lookupInt(raw bson.Raw, key string) (int, error) {
	value, err := lookup(raw, key)
	if err != nil {
		return 0, err
	}
	switch value.Type {
	case bson.TypeInt32:
		return int(value.Int32()), nil
	case bson.TypeInt64:
		return int(value.Int64()), nil
	default:
		return 0, mismatch(key, "expected integer, got %s", value.Type)
	}
}

func mismatch(key, format string, args ...any) error {
	return fmt.Errorf("%w: field %q: %s", todosdomain.ErrSchemaMismatch, key, fmt.Sprintf(format, args...))
}
