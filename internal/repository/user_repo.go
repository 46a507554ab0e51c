package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

const userColumns = "user_id, cognito_id, username, email, profile_picture_url, team_id"

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	r.logger.Debug("Listing users")

	rows, err := r.db.Query(ctx, fmt.Sprintf("SELECT %s FROM users", userColumns))
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.CognitoID, &u.Username, &u.Email, &u.ProfilePictureURL, &u.TeamID); err != nil {
			r.logger.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	r.logger.Info("Users listed successfully", zap.Int("count", len(users)))
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int) (model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE user_id = $1", userColumns), userID,
	).Scan(&u.UserID, &u.CognitoID, &u.Username, &u.Email, &u.ProfilePictureURL, &u.TeamID)
	if err != nil {
		r.logger.Error("Failed to get user",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SearchByUsername is used by the cross-entity search endpoint.
func (r *UserRepository) SearchByUsername(ctx context.Context, query string) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE username ILIKE '%%' || $1 || '%%'", userColumns),
		query,
	)
	if err != nil {
		r.logger.Error("Failed to search users", zap.Error(err))
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.CognitoID, &u.Username, &u.Email, &u.ProfilePictureURL, &u.TeamID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type TeamRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTeamRepository(db *pgxpool.Pool, logger *zap.Logger) *TeamRepository {
	return &TeamRepository{db: db, logger: logger}
}

func (r *TeamRepository) List(ctx context.Context) ([]model.Team, error) {
	r.logger.Debug("Listing teams")

	rows, err := r.db.Query(ctx,
		"SELECT team_id, team_name, product_owner_user_id, project_manager_user_id FROM teams")
	if err != nil {
		r.logger.Error("Failed to query teams", zap.Error(err))
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.TeamID, &t.TeamName, &t.ProductOwnerUserID, &t.ProjectManagerUserID); err != nil {
			r.logger.Error("Failed to scan team row", zap.Error(err))
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	r.logger.Info("Teams listed successfully", zap.Int("count", len(teams)))
	return teams, nil
}
