package mqhandler

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	mqcontracts "projectboard/contracts/mq"
)

type fakeInvalidator struct {
	taskIDs []int
	all     int
}

func (f *fakeInvalidator) InvalidateTask(_ context.Context, taskID int) {
	f.taskIDs = append(f.taskIDs, taskID)
}

func (f *fakeInvalidator) InvalidateAll(_ context.Context) {
	f.all++
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestTaskMutatedHandler_UpdateInvalidatesOneTask(t *testing.T) {
	t.Parallel()

	inv := &fakeInvalidator{}
	h := NewTaskMutatedHandler(inv, zap.NewNop())

	payload := mustMarshal(t, mqcontracts.TaskMutatedPayload{TaskID: 12, ProjectID: 3, Kind: "update"})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(inv.taskIDs) != 1 || inv.taskIDs[0] != 12 {
		t.Fatalf("expected invalidation for task 12, got %v", inv.taskIDs)
	}
	if inv.all != 0 {
		t.Fatalf("an update must not flush every list")
	}
}

func TestTaskMutatedHandler_CreateAndDeleteFlushAll(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"create", "delete"} {
		inv := &fakeInvalidator{}
		h := NewTaskMutatedHandler(inv, zap.NewNop())

		payload := mustMarshal(t, mqcontracts.TaskMutatedPayload{TaskID: 5, ProjectID: 1, Kind: kind})
		if err := h.Handle(context.Background(), payload); err != nil {
			t.Fatalf("Handle(%s): %v", kind, err)
		}

		if inv.all != 1 {
			t.Fatalf("%s must flush every cached list, got %d flushes", kind, inv.all)
		}
		if len(inv.taskIDs) != 0 {
			t.Fatalf("%s must not invalidate per task, got %v", kind, inv.taskIDs)
		}
	}
}

func TestTaskMutatedHandler_MalformedPayload(t *testing.T) {
	t.Parallel()

	inv := &fakeInvalidator{}
	h := NewTaskMutatedHandler(inv, zap.NewNop())

	if err := h.Handle(context.Background(), json.RawMessage(`{"task_id":`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if inv.all != 0 || len(inv.taskIDs) != 0 {
		t.Fatalf("malformed payload must not touch the cache")
	}
}

func TestCommentCreatedHandler(t *testing.T) {
	t.Parallel()

	inv := &fakeInvalidator{}
	h := NewCommentCreatedHandler(inv, zap.NewNop())

	payload := mustMarshal(t, mqcontracts.CommentCreatedPayload{CommentID: 2, TaskID: 9})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(inv.taskIDs) != 1 || inv.taskIDs[0] != 9 {
		t.Fatalf("expected invalidation for task 9, got %v", inv.taskIDs)
	}
}
