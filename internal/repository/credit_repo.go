package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daveai/backend/internal/models"
)

type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// CreateTx appends a ledger entry inside the given transaction. Entries are
// never updated or deleted afterwards.
func (r *CreditRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_entries (id, account_id, project_id, kind, amount, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, c.ID, c.AccountID, c.ProjectID, c.Kind, c.Amount, c.BalanceAfter, c.Description).Scan(&c.CreatedAt)
}

// SumByAccountID computes the account balance from the entries themselves.
// The cached accounts.credit_balance is derived from this source of truth.
func (r *CreditRepo) SumByAccountID(ctx context.Context, accountID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM credit_entries WHERE account_id = $1
	`, accountID).Scan(&total)
	return total, err
}

// CountByAccountIDTx returns the number of entries for an account; used by
// the ledger to tell a first-ever contact from a returning one.
func (r *CreditRepo) CountByAccountIDTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM credit_entries WHERE account_id = $1
	`, accountID).Scan(&n)
	return n, err
}

// HasEntryOnDayTx reports whether an entry of the given kind exists for the
// account whose created_at falls on the same UTC calendar day as day. The
// day is passed as a preformatted UTC date so the comparison never depends
// on the session TimeZone.
func (r *CreditRepo) HasEntryOnDayTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind string, day time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM credit_entries
			WHERE account_id = $1 AND kind = $2
			  AND (created_at AT TIME ZONE 'UTC')::date = $3::date
		)
	`, accountID, kind, utcDate(day)).Scan(&exists)
	return exists, err
}

// utcDate renders a timestamp as its UTC calendar date.
func utcDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (r *CreditRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.CreditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, project_id, kind, amount, balance_after, description, created_at
		FROM credit_entries WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditEntry
	for rows.Next() {
		var c models.CreditEntry
		if err := rows.Scan(&c.ID, &c.AccountID, &c.ProjectID, &c.Kind, &c.Amount, &c.BalanceAfter, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *CreditRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.CreditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, project_id, kind, amount, balance_after, description, created_at
		FROM credit_entries WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditEntry
	for rows.Next() {
		var c models.CreditEntry
		if err := rows.Scan(&c.ID, &c.AccountID, &c.ProjectID, &c.Kind, &c.Amount, &c.BalanceAfter, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
