package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"emosante/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type UserRepository struct{}

type UserRepositoryInterface interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *User) (int, error)
	GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*User, error)
	GetByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*User, error)
}

func NewUserRepository() UserRepositoryInterface {
	return &UserRepository{}
}

// Create inserts user and returns its generated ID.
func (r *UserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *User) (int, error) {
	query := tx.Rebind(`
		INSERT INTO users (
			username, password, created_at
		)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int
	err := tx.QueryRowxContext(
		ctx,
		query,
		user.Username,
		user.Password,
		user.CreatedAt,
	).Scan(&id)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		logrus.WithError(err).Error("Failed to create user")
		return 0, fmt.Errorf("insert user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"username": user.Username,
	}).Info("User created successfully")

	return id, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*User, error) {
	query := q.Rebind(`
		SELECT id, username, password, created_at
		FROM users
		WHERE id = ?
	`)

	user := &User{}
	if err := sqlx.GetContext(ctx, q, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("user_id", id).Warn("User not found")
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).Error("Failed to get user by ID")
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	return user, nil
}

// GetByUsername retrieves the first user with username.
func (r *UserRepository) GetByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*User, error) {
	query := q.Rebind(`
		SELECT id, username, password, created_at
		FROM users
		WHERE username = ?
		ORDER BY id
		LIMIT 1
	`)

	user := &User{}
	if err := sqlx.GetContext(ctx, q, user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("username", username).Debug("User not found")
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).Error("Failed to get user by username")
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}

	return user, nil
}
