package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/models"
)

type ListUsersParams struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	// IsActive filters on the active flag when non-nil.
	IsActive *bool `json:"is_active"`
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
}

type UsersResponse struct {
	Users []models.User `json:"users"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

type UserStore interface {
	Create(user *models.User) error
	GetByID(userID uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List(params ListUsersParams) (*UsersResponse, error)
	ListByOrganization(organization string) ([]models.User, error)
	Save(user *models.User) error
}

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil for PostgresUserStore")
	}
	return &PostgresUserStore{db: db}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.role, u.organization, u.is_active, u.created_at, u.updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Organization,
		&user.Is_Active,
		&user.Created_At,
		&user.Updated_At,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (pg *PostgresUserStore) Create(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, organization, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := pg.db.QueryRow(query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Organization,
		user.Is_Active,
	).Scan(&user.Created_At, &user.Updated_At)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (pg *PostgresUserStore) GetByID(userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(pg.db.QueryRow(query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (pg *PostgresUserStore) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`

	user, err := scanUser(pg.db.QueryRow(query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (pg *PostgresUserStore) List(params ListUsersParams) (*UsersResponse, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Organization != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("u.organization = $%d", argPos))
		args = append(args, params.Organization)
		argPos++
	}

	if params.Role != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("u.role = $%d", argPos))
		args = append(args, params.Role)
		argPos++
	}

	if params.IsActive != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("u.is_active = $%d", argPos))
		args = append(args, *params.IsActive)
		argPos++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users u %s", whereClause)

	var total int
	err := pg.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	query := fmt.Sprintf("SELECT %s FROM users u %s ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d",
		userColumns, whereClause, argPos, argPos+1)
	args = append(args, params.Limit, offset)

	rows, err := pg.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over user rows: %w", err)
	}

	return &UsersResponse{
		Users: users,
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	}, nil
}

func (pg *PostgresUserStore) ListByOrganization(organization string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.organization = $1 ORDER BY u.created_at DESC`

	rows, err := pg.db.Query(query, organization)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by organization: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over user rows: %w", err)
	}

	return users, nil
}

func (pg *PostgresUserStore) Save(user *models.User) error {
	query := `
		UPDATE users
		SET username = $2,
			email = $3,
			role = $4,
			organization = $5,
			is_active = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := pg.db.QueryRow(query,
		user.ID,
		user.Username,
		user.Email,
		user.Role,
		user.Organization,
		user.Is_Active,
	).Scan(&user.Updated_At)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
