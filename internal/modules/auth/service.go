package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"bulletin/internal/domain"
	"bulletin/internal/repository"
)

type jwtService interface {
	GenerateToken(userID int64, username string) (string, error)
}

// Service contains all business logic for authentication
type Service struct {
	users      UserRepositoryInterface
	tokens     RefreshTokenRepositoryInterface
	jwt        jwtService
	refreshTTL time.Duration
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

func NewService(
	users UserRepositoryInterface,
	tokens RefreshTokenRepositoryInterface,
	jwt jwtService,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Signin(ctx context.Context, req SigninRequest) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.jwt.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token: the presented token is marked used and a
// new pair is issued. A used or expired token is rejected.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*RefreshResult, error) {
	row, err := s.tokens.GetByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := time.Now()
	if row.UsedAt != nil || now.After(row.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.tokens.MarkUsed(ctx, row.ID, now); err != nil {
		return nil, err
	}

	access, err := s.jwt.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) issueRefreshToken(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(buf)

	row := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(s.refreshTTL),
		CreatedAt: time.Now(),
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return "", err
	}
	return raw, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite reports constraint violations as plain errors
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
