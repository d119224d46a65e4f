package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/daveai/backend/internal/models"
)

// ErrDuplicateEmail is returned when registering with an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned on a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountRepo is the account access an auth service needs.
type AccountRepo interface {
	Create(ctx context.Context, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// BonusGranter grants the once-per-day login bonus.
type BonusGranter interface {
	GrantDailyBonusIfNeeded(ctx context.Context, accountID uuid.UUID, now time.Time) (bool, error)
}

type Service interface {
	Register(ctx context.Context, email, password, name string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

type service struct {
	repo   AccountRepo
	bonus  BonusGranter
	secret []byte
}

func NewService(repo AccountRepo, bonus BonusGranter) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "supersecretmvp"
	}
	return &service{repo: repo, bonus: bonus, secret: []byte(secret)}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

func (s *service) Register(ctx context.Context, email, password, name string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return acc, nil
}

// Login verifies the credentials, grants the daily bonus when due, and
// returns a signed token plus the account's current state.
func (s *service) Login(ctx context.Context, email, password string) (string, *models.Account, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if s.bonus != nil {
		if granted, err := s.bonus.GrantDailyBonusIfNeeded(ctx, acc.ID, time.Now()); err == nil && granted {
			// Re-read so the response carries the bonused balance.
			if fresh, err := s.repo.GetByID(ctx, acc.ID); err == nil {
				acc = fresh
			}
		}
	}

	token, err := s.issueToken(acc.ID)
	if err != nil {
		return "", nil, err
	}
	return token, acc, nil
}

func (s *service) issueToken(accountID uuid.UUID) (string, error) {
	c := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	c, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(c.Subject)
}
