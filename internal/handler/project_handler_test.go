package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

type fakeProjectStore struct {
	projects   map[int]model.Project
	nextID     int
	lastFields map[string]any
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[int]model.Project), nextID: 1}
}

func (s *fakeProjectStore) List(context.Context) ([]model.Project, error) {
	result := []model.Project{}
	for _, p := range s.projects {
		result = append(result, p)
	}
	return result, nil
}

func (s *fakeProjectStore) GetByID(_ context.Context, id int) (model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, errors.New("no rows in result set")
	}
	return p, nil
}

func (s *fakeProjectStore) Insert(_ context.Context, p *model.Project) (model.Project, error) {
	p.ID = s.nextID
	s.nextID++
	s.projects[p.ID] = *p
	return *p, nil
}

func (s *fakeProjectStore) UpdateFields(_ context.Context, projectID int, fields map[string]any) (model.Project, error) {
	s.lastFields = fields
	p, ok := s.projects[projectID]
	if !ok {
		return model.Project{}, errors.New("no rows in result set")
	}
	if name, ok := fields["name"].(string); ok {
		p.Name = name
	}
	s.projects[projectID] = p
	return p, nil
}

func (s *fakeProjectStore) Delete(_ context.Context, projectID int) error {
	delete(s.projects, projectID)
	return nil
}

func newProjectRouter(store ProjectStore, cache TaskCache) *gin.Engine {
	h := NewProjectHandler(store, cache, zap.NewNop())

	r := gin.New()
	r.GET("/projects", h.GetProjects)
	r.GET("/projects/:id", h.GetProject)
	r.POST("/projects", h.CreateProject)
	r.PATCH("/projects/:projectId", h.UpdateProject)
	r.DELETE("/projects/:id", h.DeleteProject)
	return r
}

func TestCreateProject_ParsesDates(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore()
	r := newProjectRouter(store, nil)

	w := doRequest(t, r, http.MethodPost, "/projects", map[string]any{
		"name":      "Launch",
		"startDate": "2025-05-01",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	created := store.projects[1]
	if created.StartDate == nil || !created.StartDate.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("startDate not parsed, got %v", created.StartDate)
	}
}

func TestCreateProject_RequiresName(t *testing.T) {
	t.Parallel()

	r := newProjectRouter(newFakeProjectStore(), nil)

	w := doRequest(t, r, http.MethodPost, "/projects", map[string]any{"description": "nameless"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", w.Code)
	}
}

func TestUpdateProject_StripsEmptyStrings(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore()
	store.projects[1] = model.Project{ID: 1, Name: "Launch"}
	store.nextID = 2
	r := newProjectRouter(store, nil)

	w := doRequest(t, r, http.MethodPatch, "/projects/1", map[string]any{
		"name":        "Relaunch",
		"description": "",
		"endDate":     "2025-12-31",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if _, ok := store.lastFields["description"]; ok {
		t.Fatalf("empty description must be stripped, got %v", store.lastFields)
	}
	if _, ok := store.lastFields["endDate"].(time.Time); !ok {
		t.Fatalf("endDate must be parsed to time.Time, got %T", store.lastFields["endDate"])
	}
	if store.projects[1].Name != "Relaunch" {
		t.Fatalf("name not updated: %q", store.projects[1].Name)
	}
}

func TestDeleteProject_FlushesTaskListCache(t *testing.T) {
	t.Parallel()

	store := newFakeProjectStore()
	store.projects[1] = model.Project{ID: 1, Name: "Launch"}
	cache := newFakeCache()
	r := newProjectRouter(store, cache)

	w := doRequest(t, r, http.MethodDelete, "/projects/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, exists := store.projects[1]; exists {
		t.Fatalf("project must be deleted")
	}
	if cache.invalidatedAll != 1 {
		t.Fatalf("deleting a project cascades to its tasks, cache must flush")
	}
}
