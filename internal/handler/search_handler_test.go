package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

type fakeSearchers struct {
	tasks    []model.Task
	projects []model.Project
	users    []model.User
}

func (f *fakeSearchers) SearchByTitle(_ context.Context, query string) ([]model.Task, error) {
	result := []model.Task{}
	for _, t := range f.tasks {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(query)) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeSearchers) SearchByName(_ context.Context, query string) ([]model.Project, error) {
	result := []model.Project{}
	for _, p := range f.projects {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeSearchers) List(context.Context) ([]model.User, error) {
	return f.users, nil
}

func (f *fakeSearchers) SearchByUsername(_ context.Context, query string) ([]model.User, error) {
	result := []model.User{}
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			result = append(result, u)
		}
	}
	return result, nil
}

func newSearchRouter(f *fakeSearchers) *gin.Engine {
	h := NewSearchHandler(f, f, f, zap.NewNop())

	r := gin.New()
	r.GET("/search", h.Search)
	return r
}

func TestSearch_MissingQuery(t *testing.T) {
	t.Parallel()

	r := newSearchRouter(&fakeSearchers{})

	w := doRequest(t, r, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid or missing query") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestSearch_GroupsResultsByType(t *testing.T) {
	t.Parallel()

	f := &fakeSearchers{
		tasks: []model.Task{
			{ID: 1, Title: "Ship release notes"},
			{ID: 2, Title: "Fix login"},
		},
		projects: []model.Project{
			{ID: 1, Name: "Release 2.0"},
		},
		users: []model.User{
			{UserID: 1, Username: "release-bot"},
			{UserID: 2, Username: "alice"},
		},
	}
	r := newSearchRouter(f)

	w := doRequest(t, r, http.MethodGet, "/search?query=release", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var results SearchResults
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results.Tasks) != 1 || results.Tasks[0].ID != 1 {
		t.Fatalf("unexpected task matches %+v", results.Tasks)
	}
	if len(results.Projects) != 1 {
		t.Fatalf("unexpected project matches %+v", results.Projects)
	}
	if len(results.Users) != 1 || results.Users[0].Username != "release-bot" {
		t.Fatalf("unexpected user matches %+v", results.Users)
	}
}

func TestSearch_NoMatchesReturnsEmptyGroups(t *testing.T) {
	t.Parallel()

	r := newSearchRouter(&fakeSearchers{})

	w := doRequest(t, r, http.MethodGet, "/search?query=nothing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var results SearchResults
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results.Tasks) != 0 || len(results.Projects) != 0 || len(results.Users) != 0 {
		t.Fatalf("expected empty groups, got %+v", results)
	}
}
