package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emosante/internal/auth"
	"emosante/internal/observability"
	"emosante/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	repo      UserRepositoryInterface
	db        *sqlx.DB
	jwtSecret string
}

type UserServiceInterface interface {
	CreateUser(ctx context.Context, username, password string) (int, error)
	LoginUser(ctx context.Context, username, password string) (*auth.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
}

func NewUserService(repo UserRepositoryInterface, db *sqlx.DB, jwtSecret string) UserServiceInterface {
	return &UserService{
		repo:      repo,
		db:        db,
		jwtSecret: jwtSecret,
	}
}

// CreateUser stores a new user with a bcrypt-hashed password. Usernames are
// unique.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (int, error) {
	existing, err := s.repo.GetByUsername(ctx, s.db, username)
	if err == nil && existing != nil {
		return 0, ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return 0, err
	}

	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:  username,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC(),
	}

	var id int
	if err := utils.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		id, err = s.repo.Create(ctx, tx, user)
		return err
	}); err != nil {
		return 0, err
	}

	observability.GlobalMetrics.UsersRegisteredTotal.Inc()
	return id, nil
}

// LoginUser checks the credentials and issues a token pair.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	user, err := s.repo.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			auth.SimulatePasswordCheck(password)
			observability.GlobalMetrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		observability.GlobalMetrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := auth.ComparePasswordHash([]byte(user.Password), password); err != nil {
		logrus.WithField("user_id", user.ID).Info("Login rejected: wrong password")
		observability.GlobalMetrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	tokens, err := auth.GenerateTokenPair(user.ID, s.jwtSecret)
	if err != nil {
		observability.GlobalMetrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	observability.GlobalMetrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return tokens, nil
}

// RefreshTokens rotates a refresh token into a new pair. The user must
// still exist.
func (s *UserService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := auth.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != auth.RefreshToken {
		return nil, auth.ErrNotRefresh
	}

	if _, err := s.repo.GetByID(ctx, s.db, claims.UserID); err != nil {
		return nil, err
	}

	return auth.GenerateTokenPair(claims.UserID, s.jwtSecret)
}

// GetUserByID retrieves user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, s.db, id)
}
