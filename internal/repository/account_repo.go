package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daveai/backend/internal/models"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, credit_balance, has_unlimited_credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.CreditBalance, a.HasUnlimitedCredits).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, has_unlimited_credits, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.HasUnlimitedCredits, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, has_unlimited_credits, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.HasUnlimitedCredits, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET name = $2, updated_at = now() WHERE id = $1
	`, id, name)
	return err
}

// SetUnlimited flips the unlimited entitlement for an account.
func (r *AccountRepo) SetUnlimited(ctx context.Context, id uuid.UUID, unlimited bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET has_unlimited_credits = $2, updated_at = now() WHERE id = $1
	`, id, unlimited)
	return err
}

// GetByIDForUpdate locks the account row for update. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := tx.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, has_unlimited_credits, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.HasUnlimitedCredits, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeductCredits atomically deducts amount from the cached balance if it is
// sufficient. Returns pgx.ErrNoRows when the balance check fails, so the
// affordability check and the deduction are one statement.
func (r *AccountRepo) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance - $1, updated_at = now()
		WHERE id = $2 AND credit_balance >= $1
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// AddCredits adds amount to the cached balance and returns the new balance.
func (r *AccountRepo) AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}
