package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"projectboard/internal/model"
)

func TestPartitionByStatus(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: 1, Status: strptr(model.StatusToDo)},
		{ID: 2, Status: strptr(model.StatusCompleted)},
		{ID: 3, Status: strptr(model.StatusToDo)},
		{ID: 4, Status: nil},
		{ID: 5, Status: strptr("Archived")},
	}

	columns := PartitionByStatus(tasks)

	if len(columns) != 4 {
		t.Fatalf("expected the four fixed columns, got %d", len(columns))
	}
	for i, status := range model.BoardStatuses {
		if columns[i].Status != status {
			t.Fatalf("column %d is %q, want %q", i, columns[i].Status, status)
		}
	}

	if got := len(columns[0].Tasks); got != 2 {
		t.Fatalf("expected 2 tasks in To Do, got %d", got)
	}
	if got := len(columns[3].Tasks); got != 1 {
		t.Fatalf("expected 1 task in Completed, got %d", got)
	}

	// Empty intermediate columns are present, not nil.
	if columns[1].Tasks == nil || columns[2].Tasks == nil {
		t.Fatalf("empty columns must carry empty slices")
	}

	// Tasks with no or unknown status land nowhere.
	total := 0
	for _, col := range columns {
		total += len(col.Tasks)
	}
	if total != 3 {
		t.Fatalf("expected 3 placed tasks, got %d", total)
	}
}

func TestColumnColor(t *testing.T) {
	t.Parallel()

	light := AppContext{}
	dark := AppContext{DarkMode: true}

	if got := ColumnColor(model.StatusToDo, light); got != "#2563EB" {
		t.Fatalf("To Do color = %q", got)
	}
	if got := ColumnColor(model.StatusCompleted, light); got != "#000000" {
		t.Fatalf("Completed color = %q", got)
	}
	if got := ColumnColor(model.StatusCompleted, dark); got != "#FFFFFF" {
		t.Fatalf("Completed must flip in dark mode, got %q", got)
	}
	if got := ColumnColor(model.StatusToDo, dark); got != "#2563EB" {
		t.Fatalf("non-black colors must not change in dark mode, got %q", got)
	}
	if got := ColumnColor("Archived", light); got != "#6B7280" {
		t.Fatalf("unknown status must fall back to gray, got %q", got)
	}
}

func TestMoveTask_FailureEmitsCorrection(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "Error updating task: boom"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())
	board := NewBoard(c, TaskQuery{ProjectID: 1}, zap.NewNop())

	board.MoveTask(7, model.StatusToDo, model.StatusCompleted)

	select {
	case corr := <-board.Corrections():
		if corr.TaskID != 7 {
			t.Fatalf("correction for task %d, want 7", corr.TaskID)
		}
		if corr.FromStatus != model.StatusToDo || corr.ToStatus != model.StatusCompleted {
			t.Fatalf("unexpected correction %+v", corr)
		}
		if corr.Err == nil {
			t.Fatalf("correction must carry the failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a correction for the failed move")
	}
}

func TestMoveTask_SuccessEmitsNothing(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		status := model.StatusCompleted
		json.NewEncoder(w).Encode(model.Task{ID: 7, Status: &status})
		close(done)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, zap.NewNop())
	board := NewBoard(c, TaskQuery{ProjectID: 1}, zap.NewNop())

	board.MoveTask(7, model.StatusToDo, model.StatusCompleted)

	<-done
	select {
	case corr := <-board.Corrections():
		t.Fatalf("unexpected correction %+v", corr)
	case <-time.After(50 * time.Millisecond):
	}
}
