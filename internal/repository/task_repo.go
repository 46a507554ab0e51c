package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

const taskColumns = "id, title, description, status, priority, tags, start_date, due_date, points, project_id, author_user_id, assigned_user_id"

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// ListByProject runs the filtered search and eager-loads author, assignee,
// attachments and flattened comments for every task. Result order is
// storage-default; callers must not rely on it.
func (r *TaskRepository) ListByProject(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	where, args := filter.BuildWhere()

	r.logger.Debug("Listing tasks",
		zap.Int("project_id", filter.ProjectID),
		zap.String("title", filter.Title),
		zap.Strings("statuses", filter.Statuses),
		zap.Strings("priorities", filter.Priorities),
	)

	query := fmt.Sprintf("SELECT %s FROM tasks %s", taskColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Int("project_id", filter.ProjectID),
		)
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		r.logger.Error("Failed to scan task rows", zap.Error(err))
		return nil, err
	}

	if err := r.loadRelations(ctx, tasks); err != nil {
		return nil, err
	}

	r.logger.Info("Tasks listed successfully",
		zap.Int("project_id", filter.ProjectID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// ListByUser returns tasks the user authored or is assigned to, with author
// and assignee loaded.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for user", zap.Int("user_id", userID))

	query := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE author_user_id = $1 OR assigned_user_id = $1",
		taskColumns,
	)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query user tasks",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return nil, fmt.Errorf("query user tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		r.logger.Error("Failed to scan task rows", zap.Error(err))
		return nil, err
	}

	if err := r.attachUsers(ctx, tasks); err != nil {
		return nil, err
	}

	r.logger.Info("User tasks listed successfully",
		zap.Int("user_id", userID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (model.Task, error) {
	r.logger.Debug("Inserting task",
		zap.String("title", t.Title),
		zap.Int("project_id", t.ProjectID),
		zap.Int("author_user_id", t.AuthorUserID),
	)

	query := fmt.Sprintf(`
        INSERT INTO tasks (title, description, status, priority, tags, start_date, due_date, points, project_id, author_user_id, assigned_user_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING %s
    `, taskColumns)

	row := r.db.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.Tags,
		t.StartDate,
		t.DueDate,
		t.Points,
		t.ProjectID,
		t.AuthorUserID,
		t.AssignedUserID,
	)

	created, err := scanTask(row)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("project_id", t.ProjectID),
		)
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", created.ID),
		zap.Int("project_id", created.ProjectID),
	)
	return created, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID int, status string) (model.Task, error) {
	r.logger.Debug("Updating task status",
		zap.Int("task_id", taskID),
		zap.String("status", status),
	)

	query := fmt.Sprintf("UPDATE tasks SET status = $2 WHERE id = $1 RETURNING %s", taskColumns)

	updated, err := scanTask(r.db.QueryRow(ctx, query, taskID, status))
	if err != nil {
		r.logger.Error("Failed to update task status",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return model.Task{}, fmt.Errorf("update task status: %w", err)
	}

	r.logger.Info("Task status updated",
		zap.Int("task_id", taskID),
		zap.String("status", status),
	)
	return updated, nil
}

// taskUpdateColumns maps request field names to columns allowed in a partial
// update.
var taskUpdateColumns = map[string]string{
	"title":          "title",
	"description":    "description",
	"status":         "status",
	"priority":       "priority",
	"tags":           "tags",
	"startDate":      "start_date",
	"dueDate":        "due_date",
	"points":         "points",
	"projectId":      "project_id",
	"authorUserId":   "author_user_id",
	"assignedUserId": "assigned_user_id",
}

// UpdateFields applies a partial update. Unknown fields are ignored; callers
// strip empty-string values before calling so cleared form inputs never null
// out persisted values.
func (r *TaskRepository) UpdateFields(ctx context.Context, taskID int, fields map[string]any) (model.Task, error) {
	sets := make([]string, 0, len(fields))
	args := []any{taskID}

	for field, value := range fields {
		column, ok := taskUpdateColumns[field]
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if len(sets) == 0 {
		// Nothing to change, return the current row.
		return r.getByID(ctx, taskID)
	}

	r.logger.Debug("Updating task fields",
		zap.Int("task_id", taskID),
		zap.Int("field_count", len(sets)),
	)

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "),
		taskColumns,
	)

	updated, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}

	r.logger.Info("Task updated successfully", zap.Int("task_id", taskID))
	return updated, nil
}

// Delete removes a task. Comments and attachments go with it through the
// schema's ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, taskID int) error {
	r.logger.Debug("Deleting task", zap.Int("task_id", taskID))

	result, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", taskID)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return fmt.Errorf("delete task: %w", err)
	}

	r.logger.Info("Task deleted",
		zap.Int("task_id", taskID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// AddComment inserts a comment and returns it flattened with the author's
// display fields.
func (r *TaskRepository) AddComment(ctx context.Context, taskID, userID int, text string) (model.FlatComment, error) {
	r.logger.Debug("Adding comment",
		zap.Int("task_id", taskID),
		zap.Int("user_id", userID),
	)

	query := `
        INSERT INTO comments (text, task_id, user_id)
        VALUES ($1, $2, $3)
        RETURNING id, text, task_id, created, user_id
    `

	var c model.Comment
	err := r.db.QueryRow(ctx, query, text, taskID, userID).Scan(
		&c.ID,
		&c.Text,
		&c.TaskID,
		&c.Created,
		&c.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to insert comment",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("user_id", userID),
		)
		return model.FlatComment{}, fmt.Errorf("insert comment: %w", err)
	}

	var u model.User
	err = r.db.QueryRow(ctx,
		"SELECT user_id, cognito_id, username, email, profile_picture_url, team_id FROM users WHERE user_id = $1",
		userID,
	).Scan(&u.UserID, &u.CognitoID, &u.Username, &u.Email, &u.ProfilePictureURL, &u.TeamID)
	if err != nil {
		r.logger.Error("Failed to load comment author",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return model.FlatComment{}, fmt.Errorf("load comment author: %w", err)
	}

	r.logger.Info("Comment added",
		zap.Int("comment_id", c.ID),
		zap.Int("task_id", taskID),
	)
	return c.Flatten(u), nil
}

// SearchByTitle is used by the cross-entity search endpoint.
func (r *TaskRepository) SearchByTitle(ctx context.Context, query string) ([]model.Task, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM tasks WHERE title ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%'", taskColumns),
		query,
	)
	if err != nil {
		r.logger.Error("Failed to search tasks", zap.Error(err))
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return scanTasks(rows)
}

func (r *TaskRepository) getByID(ctx context.Context, taskID int) (model.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	t, err := scanTask(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		return model.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// loadRelations attaches author, assignee, attachments and flattened
// comments to every task in one batched fetch per relation.
func (r *TaskRepository) loadRelations(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	taskIDs := make([]int, 0, len(tasks))
	index := make(map[int]*model.Task, len(tasks))
	for i := range tasks {
		taskIDs = append(taskIDs, tasks[i].ID)
		index[tasks[i].ID] = &tasks[i]
	}

	if err := r.attachUsers(ctx, tasks); err != nil {
		return err
	}

	// Comments come back pre-joined with their author so they can be
	// flattened while scanning.
	commentQuery := `
        SELECT c.id, c.text, c.task_id, c.created, c.user_id,
               u.cognito_id, u.username, u.profile_picture_url, u.team_id
        FROM comments c
        JOIN users u ON u.user_id = c.user_id
        WHERE c.task_id = ANY($1)
    `
	rows, err := r.db.Query(ctx, commentQuery, taskIDs)
	if err != nil {
		r.logger.Error("Failed to query comments", zap.Error(err))
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fc model.FlatComment
		if err := rows.Scan(
			&fc.ID,
			&fc.Text,
			&fc.TaskID,
			&fc.Created,
			&fc.UserID,
			&fc.CognitoID,
			&fc.Username,
			&fc.ProfilePictureURL,
			&fc.TeamID,
		); err != nil {
			r.logger.Error("Failed to scan comment row", zap.Error(err))
			return fmt.Errorf("scan comment: %w", err)
		}
		if t, ok := index[fc.TaskID]; ok {
			t.Comments = append(t.Comments, fc)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments: %w", err)
	}

	attachmentQuery := `
        SELECT id, file_url, file_name, task_id, uploaded_by_id
        FROM attachments
        WHERE task_id = ANY($1)
    `
	arows, err := r.db.Query(ctx, attachmentQuery, taskIDs)
	if err != nil {
		r.logger.Error("Failed to query attachments", zap.Error(err))
		return fmt.Errorf("query attachments: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var a model.Attachment
		if err := arows.Scan(&a.ID, &a.FileURL, &a.FileName, &a.TaskID, &a.UploadedByID); err != nil {
			r.logger.Error("Failed to scan attachment row", zap.Error(err))
			return fmt.Errorf("scan attachment: %w", err)
		}
		if t, ok := index[a.TaskID]; ok {
			t.Attachments = append(t.Attachments, a)
		}
	}
	if err := arows.Err(); err != nil {
		return fmt.Errorf("iterate attachments: %w", err)
	}

	return nil
}

// attachUsers resolves author and assignee for every task.
func (r *TaskRepository) attachUsers(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	userIDSet := make(map[int]bool)
	for i := range tasks {
		userIDSet[tasks[i].AuthorUserID] = true
		if tasks[i].AssignedUserID != nil {
			userIDSet[*tasks[i].AssignedUserID] = true
		}
	}

	userIDs := make([]int, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	query := `
        SELECT user_id, cognito_id, username, email, profile_picture_url, team_id
        FROM users
        WHERE user_id = ANY($1)
    `
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		r.logger.Error("Failed to query task users", zap.Error(err))
		return fmt.Errorf("query task users: %w", err)
	}
	defer rows.Close()

	users := make(map[int]model.User, len(userIDs))
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.CognitoID, &u.Username, &u.Email, &u.ProfilePictureURL, &u.TeamID); err != nil {
			r.logger.Error("Failed to scan user row", zap.Error(err))
			return fmt.Errorf("scan user: %w", err)
		}
		users[u.UserID] = u
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate users: %w", err)
	}

	for i := range tasks {
		if u, ok := users[tasks[i].AuthorUserID]; ok {
			author := u
			tasks[i].Author = &author
		}
		if tasks[i].AssignedUserID != nil {
			if u, ok := users[*tasks[i].AssignedUserID]; ok {
				assignee := u
				tasks[i].Assignee = &assignee
			}
		}
	}

	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Tags,
		&t.StartDate,
		&t.DueDate,
		&t.Points,
		&t.ProjectID,
		&t.AuthorUserID,
		&t.AssignedUserID,
	)
	return t, err
}

func scanTasks(rows pgx.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
