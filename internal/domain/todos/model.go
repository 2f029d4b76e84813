package todos

// ListSummary is computed at read time; item_count is never stored.
type ListSummary struct {
	ID        string
	Name      string
	ItemCount int
}

type TodoItem struct {
	ID      string
	Label   string
	Checked bool
}

type TodoList struct {
	ID    string
	Name  string
	Items []TodoItem
}

func (l *TodoList) FindItem(itemID string) (TodoItem, bool) {
	for _, item := range l.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return TodoItem{}, false
}

func (l *TodoList) Summary() ListSummary {
	return ListSummary{
		ID:        l.ID,
		Name:      l.Name,
		ItemCount: len(l.Items),
	}
}
