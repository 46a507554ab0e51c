package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

const projectColumns = "id, name, description, start_date, end_date"

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	r.logger.Debug("Listing projects")

	rows, err := r.db.Query(ctx, fmt.Sprintf("SELECT %s FROM projects", projectColumns))
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate); err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	r.logger.Info("Projects listed successfully", zap.Int("count", len(projects)))
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (model.Project, error) {
	r.logger.Debug("Getting project", zap.Int("project_id", id))

	var p model.Project
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns), id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate)
	if err != nil {
		r.logger.Error("Failed to get project",
			zap.Error(err),
			zap.Int("project_id", id),
		)
		return model.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (model.Project, error) {
	r.logger.Debug("Inserting project", zap.String("name", p.Name))

	query := fmt.Sprintf(`
        INSERT INTO projects (name, description, start_date, end_date)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, projectColumns)

	var created model.Project
	err := r.db.QueryRow(ctx, query, p.Name, p.Description, p.StartDate, p.EndDate).
		Scan(&created.ID, &created.Name, &created.Description, &created.StartDate, &created.EndDate)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}

	r.logger.Info("Project inserted successfully", zap.Int("project_id", created.ID))
	return created, nil
}

var projectUpdateColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"startDate":   "start_date",
	"endDate":     "end_date",
}

// UpdateFields applies a partial update; callers strip empty-string values
// first.
func (r *ProjectRepository) UpdateFields(ctx context.Context, projectID int, fields map[string]any) (model.Project, error) {
	sets := make([]string, 0, len(fields))
	args := []any{projectID}

	for field, value := range fields {
		column, ok := projectUpdateColumns[field]
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, projectID)
	}

	query := fmt.Sprintf(
		"UPDATE projects SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "),
		projectColumns,
	)

	var updated model.Project
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&updated.ID, &updated.Name, &updated.Description, &updated.StartDate, &updated.EndDate)
	if err != nil {
		r.logger.Error("Failed to update project",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}

	r.logger.Info("Project updated successfully", zap.Int("project_id", projectID))
	return updated, nil
}

// Delete removes a project; its tasks (and their comments and attachments)
// cascade through the schema.
func (r *ProjectRepository) Delete(ctx context.Context, projectID int) error {
	r.logger.Debug("Deleting project", zap.Int("project_id", projectID))

	result, err := r.db.Exec(ctx, "DELETE FROM projects WHERE id = $1", projectID)
	if err != nil {
		r.logger.Error("Failed to delete project",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return fmt.Errorf("delete project: %w", err)
	}

	r.logger.Info("Project deleted",
		zap.Int("project_id", projectID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// SearchByName is used by the cross-entity search endpoint.
func (r *ProjectRepository) SearchByName(ctx context.Context, query string) ([]model.Project, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM projects WHERE name ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%'", projectColumns),
		query,
	)
	if err != nil {
		r.logger.Error("Failed to search projects", zap.Error(err))
		return nil, fmt.Errorf("search projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}
