package user

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"coinvault/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// WalletProvisioner creates the per-asset wallet rows for a new account,
// satisfied by *wallet.Repository.
type WalletProvisioner interface {
	ProvisionTx(ctx context.Context, tx *sqlx.Tx, userID int) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
}

type service struct {
	db        *sqlx.DB
	repo      *Repository
	wallets   WalletProvisioner
	jwtSecret string
}

func NewService(db *sqlx.DB, repo *Repository, wallets WalletProvisioner, jwtSecret string) Service {
	return &service{
		db:        db,
		repo:      repo,
		wallets:   wallets,
		jwtSecret: jwtSecret,
	}
}

// Register creates the account and its wallets in one transaction: a user
// either exists with a full set of zero-balance wallets or not at all.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	u, err := s.repo.CreateTx(ctx, tx, req.Name, req.Email, req.Phone, passwordHash, auth.RoleUser)
	if err != nil {
		return nil, "", err
	}

	if err := s.wallets.ProvisionTx(ctx, tx, u.ID); err != nil {
		return nil, "", err
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
