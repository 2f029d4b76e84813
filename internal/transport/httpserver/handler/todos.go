package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	todosdomain "todo-app-go/internal/domain/todos"
)

type createTodoListRequest struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Items []string `json:"items" validate:"omitempty,max=100,dive,required,max=500"`
}

type createTodoItemRequest struct {
	Label string `json:"label" validate:"required,max=500"`
}

type setTodoItemCheckedRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

type listSummaryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

type todoItemResponse struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type todoListResponse struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Items []todoItemResponse `json:"items"`
}

func (h *Handlers) ListTodoLists(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Todos.ListTodoLists(r.Context())
	if err != nil {
		h.writeTodoError(w, "todos.list_lists", err)
		return
	}

	response := make([]listSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, listSummaryResponse{
			ID:        summary.ID,
			Name:      summary.Name,
			ItemCount: summary.ItemCount,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateTodoList(w http.ResponseWriter, r *http.Request) {
	var req createTodoListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}

	if len(req.Items) > 0 {
		list, err := h.Todos.CreateTodoListWithItems(r.Context(), req.Name, req.Items)
		if err != nil {
			h.writeTodoError(w, "todos.create_list", err)
			return
		}
		writeJSON(w, http.StatusCreated, toTodoListResponse(list))
		return
	}

	id, err := h.Todos.CreateTodoList(r.Context(), req.Name)
	if err != nil {
		h.writeTodoError(w, "todos.create_list", err)
		return
	}

	h.log.Debug("todos.create_list: created", "list_id", id)
	writeJSON(w, http.StatusCreated, todoListResponse{
		ID:    id,
		Name:  strings.TrimSpace(req.Name),
		Items: []todoItemResponse{},
	})
}

func (h *Handlers) GetTodoList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")

	list, err := h.Todos.GetTodoList(r.Context(), listID)
	if err != nil {
		h.writeTodoError(w, "todos.get_list", err, "list_id", listID)
		return
	}

	writeJSON(w, http.StatusOK, toTodoListResponse(list))
}

func (h *Handlers) DeleteTodoList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")

	deleted, err := h.Todos.DeleteTodoList(r.Context(), listID)
	if err != nil {
		h.writeTodoError(w, "todos.delete_list", err, "list_id", listID)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "list_not_found", "todo list not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateTodoItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")

	var req createTodoItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}

	list, err := h.Todos.CreateTodoItem(r.Context(), listID, req.Label)
	if err != nil {
		h.writeTodoError(w, "todos.create_item", err, "list_id", listID)
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "list_not_found", "todo list not found")
		return
	}

	writeJSON(w, http.StatusCreated, toTodoListResponse(list))
}

func (h *Handlers) SetTodoItemChecked(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")
	itemID := chi.URLParam(r, "item_id")

	var req setTodoItemCheckedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}

	list, err := h.Todos.SetTodoItemChecked(r.Context(), listID, itemID, *req.Checked)
	if err != nil {
		h.writeTodoError(w, "todos.set_item_checked", err, "list_id", listID, "item_id", itemID)
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "item_not_found", "todo list or item not found")
		return
	}

	writeJSON(w, http.StatusOK, toTodoListResponse(list))
}

func (h *Handlers) DeleteTodoItem(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")
	itemID := chi.URLParam(r, "item_id")

	list, err := h.Todos.DeleteTodoItem(r.Context(), listID, itemID)
	if err != nil {
		h.writeTodoError(w, "todos.delete_item", err, "list_id", listID, "item_id", itemID)
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "list_not_found", "todo list not found")
		return
	}

	writeJSON(w, http.StatusOK, toTodoListResponse(list))
}

func (h *Handlers) writeTodoError(w http.ResponseWriter, op string, err error, args ...any) {
	switch {
	case errors.Is(err, todosdomain.ErrInvalidID):
		h.log.BusinessError(op+": invalid id", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid todo list id")
	case errors.Is(err, todosdomain.ErrTodoListNotFound):
		h.log.BusinessError(op+": list not found", err, args...)
		writeError(w, http.StatusNotFound, "list_not_found", "todo list not found")
	case errors.Is(err, todosdomain.ErrEmptyName), errors.Is(err, todosdomain.ErrEmptyLabel):
		h.log.BusinessError(op+": invalid request", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toTodoListResponse(list *todosdomain.TodoList) todoListResponse {
	items := make([]todoItemResponse, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, todoItemResponse{
			ID:      item.ID,
			Label:   item.Label,
			Checked: item.Checked,
		})
	}

	return todoListResponse{
		ID:    list.ID,
		Name:  list.Name,
		Items: items,
	}
}
