package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"projectboard/internal/model"
)

func strptr(s string) *string { return &s }

// taskServer is a minimal in-memory API for client tests. It serves
// GET /tasks from its task list and mutates it on PATCH.
type taskServer struct {
	mu       sync.Mutex
	tasks    []model.Task
	getCalls int32
}

func (s *taskServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.getCalls, 1)
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(s.tasks)
	})
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/status") {
			var body struct {
				Status string `json:"status"`
			}
			json.NewDecoder(r.Body).Decode(&body)

			s.mu.Lock()
			defer s.mu.Unlock()
			// taskID sits between /tasks/ and /status.
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/status")
			for i := range s.tasks {
				if strconv.Itoa(s.tasks[i].ID) == id {
					s.tasks[i].Status = &body.Status
					json.NewEncoder(w).Encode(s.tasks[i])
					return
				}
			}
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"message": "no rows in result set"})
			return
		}
		http.NotFound(w, r)
	})
	return mux
}

func TestGetTasks_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()

	server := &taskServer{tasks: []model.Task{{ID: 1, Title: "one", ProjectID: 1, AuthorUserID: 1}}}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())
	q := TaskQuery{ProjectID: 1}

	for i := 0; i < 2; i++ {
		tasks, err := c.GetTasks(context.Background(), q)
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("expected 1 task, got %d", len(tasks))
		}
	}

	if got := atomic.LoadInt32(&server.getCalls); got != 1 {
		t.Fatalf("expected one network fetch, got %d", got)
	}
}

func TestGetTasks_ShortSearchSuppressed(t *testing.T) {
	t.Parallel()

	server := &taskServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())

	_, err := c.GetTasks(context.Background(), TaskQuery{ProjectID: 1, TaskTitle: "ab"})
	if !errors.Is(err, ErrSearchTooShort) {
		t.Fatalf("expected ErrSearchTooShort, got %v", err)
	}
	if atomic.LoadInt32(&server.getCalls) != 0 {
		t.Fatalf("suppressed search must not hit the network")
	}

	// Three runes clears the bar.
	if _, err := c.GetTasks(context.Background(), TaskQuery{ProjectID: 1, TaskTitle: "abc"}); err != nil {
		t.Fatalf("three-character search must run: %v", err)
	}
}

func TestUpdateTaskStatus_InvalidatesAndRefetches(t *testing.T) {
	t.Parallel()

	server := &taskServer{tasks: []model.Task{
		{ID: 1, Title: "move me", ProjectID: 1, AuthorUserID: 1, Status: strptr(model.StatusToDo)},
	}}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())
	q := TaskQuery{ProjectID: 1}

	if _, err := c.GetTasks(context.Background(), q); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if _, err := c.UpdateTaskStatus(context.Background(), 1, model.StatusCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	tasks, err := c.GetTasks(context.Background(), q)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if atomic.LoadInt32(&server.getCalls) != 2 {
		t.Fatalf("mutation must force a refetch, got %d fetches", server.getCalls)
	}

	columns := PartitionByStatus(tasks)
	placements := 0
	for _, col := range columns {
		for _, task := range col.Tasks {
			if task.ID == 1 {
				placements++
				if col.Status != model.StatusCompleted {
					t.Fatalf("task 1 landed in %q, want %q", col.Status, model.StatusCompleted)
				}
			}
		}
	}
	if placements != 1 {
		t.Fatalf("task must appear in exactly one column, got %d", placements)
	}
}

func TestGetTasks_ConcurrentCallsShareOneFetch(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(arrived)
		}
		<-release
		json.NewEncoder(w).Encode([]model.Task{{ID: 1, ProjectID: 1, AuthorUserID: 1}})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())
	q := TaskQuery{ProjectID: 1}

	errs := make(chan error, 2)
	go func() {
		_, err := c.GetTasks(context.Background(), q)
		errs <- err
	}()
	<-arrived

	// The first fetch is parked in the server, so this call joins it.
	go func() {
		_, err := c.GetTasks(context.Background(), q)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single shared fetch, got %d", got)
	}
}

func TestDoJSON_SurfacesAPIErrorMessage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or missing projectId"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())

	_, err := c.GetTasks(context.Background(), TaskQuery{ProjectID: 1})
	if err == nil || !strings.Contains(err.Error(), "Invalid or missing projectId") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}
