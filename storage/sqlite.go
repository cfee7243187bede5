package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/EkkoG/rtabby-web-api2/core"

	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite/schema.sql
var sqliteSchema string

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	_, err := r.db.Exec(sqliteSchema)
	return err
}

func (r *SQLiteRepository) FindByProviderID(ctx context.Context, userID string, platform core.Platform) (*core.User, error) {
	query := `
		SELECT user_id, platform, name, token, created_at
		FROM users
		WHERE user_id = ? AND platform = ?
	`

	var user core.User
	var platformStr string
	var createdAt int64

	err := r.db.QueryRowContext(ctx, query, userID, string(platform)).Scan(
		&user.UserID,
		&platformStr,
		&user.Name,
		&user.Token,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Platform = core.Platform(platformStr)
	user.CreatedAt = time.Unix(createdAt, 0)

	return &user, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *core.User) error {
	query := `
		INSERT INTO users (user_id, platform, name, token, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.UserID,
		string(user.Platform),
		user.Name,
		user.Token,
		user.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "UNIQUE constraint failed") ||
		strings.Contains(errMsg, "UNIQUE") ||
		strings.Contains(errMsg, "unique")
}
