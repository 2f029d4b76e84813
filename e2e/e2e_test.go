//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"todo-app-go/internal/config"
	"todo-app-go/internal/db"
	todosdomain "todo-app-go/internal/domain/todos"
	mongotodos "todo-app-go/internal/repository/mongo/todos"
	postgrestodos "todo-app-go/internal/repository/postgres/todos"
	"todo-app-go/internal/transport/httpserver"
	"todo-app-go/internal/transport/httpserver/handler"
	"todo-app-go/pkg/logger"
)

type backend struct {
	name string
	repo todosdomain.Repository
	ping func(context.Context) error
	// transactions is false for a standalone mongod, which rejects sessions
	// with transactions.
	transactions bool
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// backends returns every store configured through E2E_MONGO_URI and E2E_DB_DSN.
func backends(t *testing.T) []backend {
	t.Helper()

	var out []backend
	if uri := os.Getenv("E2E_MONGO_URI"); uri != "" {
		out = append(out, mongoBackend(t, uri))
	}
	if dsn := os.Getenv("E2E_DB_DSN"); dsn != "" {
		out = append(out, postgresBackend(t, dsn))
	}
	if len(out) == 0 {
		t.Skip("E2E_MONGO_URI and E2E_DB_DSN not set; skipping e2e tests")
	}
	return out
}

func mongoBackend(t *testing.T, uri string) backend {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default().Mongo
	cfg.URI = uri
	cfg.Database = fmt.Sprintf("todo_e2e_%d", time.Now().UnixNano())
	cfg.ConnectTimeout = 5 * time.Second

	client, err := db.NewMongo(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	database := client.Database(cfg.Database)
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	coll := database.Collection(cfg.Collection)
	if err := db.EnsureMongoIndexes(ctx, coll); err != nil {
		t.Fatalf("mongo indexes: %v", err)
	}

	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		t.Fatalf("mongo hello: %v", err)
	}

	return backend{
		name:         "mongo",
		repo:         mongotodos.NewMongo(coll),
		ping:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
		transactions: hello.SetName != "" || hello.Msg == "isdbgrid",
	}
}

func postgresBackend(t *testing.T, dsn string) backend {
	t.Helper()

	cfg := config.Default().Postgres
	cfg.DSN = dsn

	dbConn, err := db.NewPostgres(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn, logger.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := dbConn.Exec("TRUNCATE TABLE todo_items, todo_lists RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("clean db: %v", err)
	}

	sqlDB, err := dbConn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return backend{
		name:         "postgres",
		repo:         postgrestodos.NewPostgres(dbConn),
		ping:         sqlDB.PingContext,
		transactions: true,
	}
}

func TestGroceriesScenario(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			svc := todosdomain.NewService(b.repo)

			listID, err := svc.CreateTodoList(ctx, "Groceries")
			if err != nil {
				t.Fatalf("create list: %v", err)
			}

			list, err := svc.CreateTodoItem(ctx, listID, "Milk")
			if err != nil || list == nil || len(list.Items) != 1 {
				t.Fatalf("create item: list=%v err=%v", list, err)
			}
			itemID := list.Items[0].ID
			if len(itemID) != 32 {
				t.Fatalf("item id %q is not 32 hex chars", itemID)
			}

			list, err = svc.SetTodoItemChecked(ctx, listID, itemID, true)
			if err != nil || list == nil || !list.Items[0].Checked {
				t.Fatalf("check item: list=%v err=%v", list, err)
			}

			list, err = svc.DeleteTodoItem(ctx, listID, itemID)
			if err != nil || list == nil || len(list.Items) != 0 {
				t.Fatalf("delete item: list=%v err=%v", list, err)
			}

			deleted, err := svc.DeleteTodoList(ctx, listID)
			if err != nil || !deleted {
				t.Fatalf("delete list: deleted=%v err=%v", deleted, err)
			}

			if _, err := svc.GetTodoList(ctx, listID); !errors.Is(err, todosdomain.ErrTodoListNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestConcurrentItemCreation(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			svc := todosdomain.NewService(b.repo)

			listID, err := svc.CreateTodoList(ctx, "Party")
			if err != nil {
				t.Fatalf("create list: %v", err)
			}

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := svc.CreateTodoItem(ctx, listID, fmt.Sprintf("item %d", i)); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("create item: %v", err)
			}

			list, err := svc.GetTodoList(ctx, listID)
			if err != nil {
				t.Fatalf("get list: %v", err)
			}
			if len(list.Items) != writers {
				t.Fatalf("expected %d items, got %d", writers, len(list.Items))
			}
			seen := map[string]bool{}
			for _, item := range list.Items {
				if seen[item.ID] {
					t.Fatalf("duplicate item id %s", item.ID)
				}
				seen[item.ID] = true
			}

			summaries, err := svc.ListTodoLists(ctx)
			if err != nil {
				t.Fatalf("list lists: %v", err)
			}
			for _, s := range summaries {
				if s.ID == listID && s.ItemCount != writers {
					t.Fatalf("expected item_count %d, got %d", writers, s.ItemCount)
				}
			}
		})
	}
}

func TestListSummariesTrackItemCount(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			svc := todosdomain.NewService(b.repo)

			summaries, err := svc.ListTodoLists(ctx)
			if err != nil {
				t.Fatalf("list empty store: %v", err)
			}
			if len(summaries) != 0 {
				t.Fatalf("expected no lists, got %+v", summaries)
			}

			ids := map[string]string{}
			for _, name := range []string{"Work", "Chores", "Groceries"} {
				id, err := svc.CreateTodoList(ctx, name)
				if err != nil {
					t.Fatalf("create %s: %v", name, err)
				}
				ids[name] = id
			}

			var milkID string
			for _, label := range []string{"Milk", "Eggs", "Bread"} {
				list, err := svc.CreateTodoItem(ctx, ids["Groceries"], label)
				if err != nil || list == nil {
					t.Fatalf("add %s: list=%v err=%v", label, list, err)
				}
				if label == "Milk" {
					milkID = list.Items[0].ID
				}
			}
			if _, err := svc.CreateTodoItem(ctx, ids["Work"], "Report"); err != nil {
				t.Fatalf("add report: %v", err)
			}
			if _, err := svc.DeleteTodoItem(ctx, ids["Groceries"], milkID); err != nil {
				t.Fatalf("delete milk: %v", err)
			}

			summaries, err = svc.ListTodoLists(ctx)
			if err != nil {
				t.Fatalf("list lists: %v", err)
			}
			want := []todosdomain.ListSummary{
				{ID: ids["Chores"], Name: "Chores", ItemCount: 0},
				{ID: ids["Groceries"], Name: "Groceries", ItemCount: 2},
				{ID: ids["Work"], Name: "Work", ItemCount: 1},
			}
			if len(summaries) != len(want) {
				t.Fatalf("expected %d summaries, got %+v", len(want), summaries)
			}
			for i := range want {
				if summaries[i] != want[i] {
					t.Fatalf("summary %d: expected %+v, got %+v", i, want[i], summaries[i])
				}
			}

			for _, s := range summaries {
				list, err := svc.GetTodoList(ctx, s.ID)
				if err != nil {
					t.Fatalf("get %s: %v", s.Name, err)
				}
				if len(list.Items) != s.ItemCount {
					t.Fatalf("%s: item_count %d, len(items) %d", s.Name, s.ItemCount, len(list.Items))
				}
			}
		})
	}
}

func TestSoftAbsenceOnExistingList(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			svc := todosdomain.NewService(b.repo)

			listID, err := svc.CreateTodoList(ctx, "Groceries")
			if err != nil {
				t.Fatalf("create list: %v", err)
			}
			list, err := svc.CreateTodoItem(ctx, listID, "Milk")
			if err != nil || list == nil {
				t.Fatalf("create item: list=%v err=%v", list, err)
			}
			itemID := list.Items[0].ID

			unknown, err := svc.SetTodoItemChecked(ctx, listID, "no-such-item", true)
			if err != nil || unknown != nil {
				t.Fatalf("check unknown item: list=%v err=%v", unknown, err)
			}

			first, err := svc.DeleteTodoItem(ctx, listID, itemID)
			if err != nil || first == nil || len(first.Items) != 0 {
				t.Fatalf("delete item: list=%v err=%v", first, err)
			}
			second, err := svc.DeleteTodoItem(ctx, listID, itemID)
			if err != nil || second == nil {
				t.Fatalf("delete item again: list=%v err=%v", second, err)
			}
			if second.ID != first.ID || second.Name != first.Name || len(second.Items) != 0 {
				t.Fatalf("second delete changed the list: %+v vs %+v", second, first)
			}

			missing := "65a1f0c2e4b0a1b2c3d4e5f6"
			if got, err := svc.CreateTodoItem(ctx, missing, "Milk"); err != nil || got != nil {
				t.Fatalf("create item on missing list: list=%v err=%v", got, err)
			}
			if deleted, err := svc.DeleteTodoList(ctx, missing); err != nil || deleted {
				t.Fatalf("delete missing list: deleted=%v err=%v", deleted, err)
			}
		})
	}
}

func TestMalformedIDs(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := b.repo.GetTodoList(ctx, "not-an-id"); !errors.Is(err, todosdomain.ErrInvalidID) {
				t.Fatalf("get: expected invalid id, got %v", err)
			}
			if _, err := b.repo.DeleteTodoList(ctx, "not-an-id"); !errors.Is(err, todosdomain.ErrInvalidID) {
				t.Fatalf("delete list: expected invalid id, got %v", err)
			}
			if _, err := b.repo.CreateTodoItem(ctx, "not-an-id", "Milk"); !errors.Is(err, todosdomain.ErrInvalidID) {
				t.Fatalf("create item: expected invalid id, got %v", err)
			}
			if _, err := b.repo.SetTodoItemChecked(ctx, "xyz", "a", true); !errors.Is(err, todosdomain.ErrInvalidID) {
				t.Fatalf("set checked: expected invalid id, got %v", err)
			}
			if _, err := b.repo.DeleteTodoItem(ctx, "xyz", "a"); !errors.Is(err, todosdomain.ErrInvalidID) {
				t.Fatalf("delete item: expected invalid id, got %v", err)
			}
		})
	}
}

func TestTransactionRollback(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			if !b.transactions {
				t.Skip("server does not support transactions")
			}
			ctx := context.Background()
			abort := errors.New("abort")

			err := b.repo.Transaction(ctx, func(tx todosdomain.Repository) error {
				listID, err := tx.CreateTodoList(ctx, "Trip")
				if err != nil {
					return err
				}
				if _, err := tx.CreateTodoItem(ctx, listID, "Passport"); err != nil {
					return err
				}
				return abort
			})
			if !errors.Is(err, abort) {
				t.Fatalf("expected abort, got %v", err)
			}

			for summary, err := range b.repo.ListTodoLists(ctx) {
				if err != nil {
					t.Fatalf("list lists: %v", err)
				}
				t.Fatalf("rolled back list is visible: %+v", summary)
			}

			list, err := todosdomain.NewService(b.repo).CreateTodoListWithItems(ctx, "Trip", []string{"Passport", "Tickets"})
			if err != nil {
				t.Fatalf("create with items: %v", err)
			}
			stored, err := b.repo.GetTodoList(ctx, list.ID)
			if err != nil || len(stored.Items) != 2 {
				t.Fatalf("committed list: list=%v err=%v", stored, err)
			}
		})
	}
}

func TestHTTPFlow(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			handlers := handler.New(todosdomain.NewService(b.repo), pingFunc(b.ping), logger.Nop())
			server := httptest.NewServer(httpserver.NewRouter(config.Default(), handlers))
			defer server.Close()
			client := server.Client()

			resp, body := requestJSON(t, client, http.MethodGet, server.URL+"/api/health", nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("health: status %d body %s", resp.StatusCode, body)
			}

			payload := map[string]any{"name": "Trip"}
			if b.transactions {
				payload["items"] = []string{"Passport", "Tickets"}
			}
			resp, body = requestJSON(t, client, http.MethodPost, server.URL+"/api/lists", payload)
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("create list: status %d body %s", resp.StatusCode, body)
			}
			var list todoListResponse
			decodeJSON(t, body, &list)
			if !b.transactions {
				for _, label := range []string{"Passport", "Tickets"} {
					resp, body = requestJSON(t, client, http.MethodPost, server.URL+"/api/lists/"+list.ID+"/items", map[string]any{"label": label})
					if resp.StatusCode != http.StatusCreated {
						t.Fatalf("add %s: status %d body %s", label, resp.StatusCode, body)
					}
					decodeJSON(t, body, &list)
				}
			}
			if len(list.Items) != 2 || list.Items[0].Label != "Passport" {
				t.Fatalf("unexpected list %+v", list)
			}

			url := fmt.Sprintf("%s/api/lists/%s/items/%s/checked", server.URL, list.ID, list.Items[1].ID)
			resp, body = requestJSON(t, client, http.MethodPatch, url, map[string]any{"checked": true})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("check item: status %d body %s", resp.StatusCode, body)
			}
			decodeJSON(t, body, &list)
			if !list.Items[1].Checked || list.Items[0].Checked {
				t.Fatalf("unexpected checked state %+v", list.Items)
			}

			resp, body = requestJSON(t, client, http.MethodGet, server.URL+"/api/lists/not-an-id", nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("invalid id: status %d body %s", resp.StatusCode, body)
			}
			var envelope errorEnvelope
			decodeJSON(t, body, &envelope)
			if envelope.Error.Code != "invalid_id" {
				t.Fatalf("invalid id: code %q", envelope.Error.Code)
			}

			resp, body = requestJSON(t, client, http.MethodDelete, server.URL+"/api/lists/"+list.ID, nil)
			if resp.StatusCode != http.StatusNoContent {
				t.Fatalf("delete list: status %d body %s", resp.StatusCode, body)
			}

			resp, body = requestJSON(t, client, http.MethodGet, server.URL+"/api/lists/"+list.ID, nil)
			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("get deleted list: status %d body %s", resp.StatusCode, body)
			}
		})
	}
}

func requestJSON(t *testing.T, client *http.Client, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

func decodeJSON(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

type todoListResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []struct {
		ID      string `json:"id"`
		Label   string `json:"label"`
		Checked bool   `json:"checked"`
	} `json:"items"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
