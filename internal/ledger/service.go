package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daveai/backend/internal/models"
)

// ErrInsufficientFunds is returned when the account balance cannot cover a
// requested debit. The caller must not have performed any side effect yet.
var ErrInsufficientFunds = errors.New("insufficient funds")

// AccountRepo is the minimal account repository interface for the ledger.
type AccountRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
}

// CreditRepo is the minimal credit entry repository interface for the ledger.
type CreditRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditEntry) error
	SumByAccountID(ctx context.Context, accountID uuid.UUID) (int, error)
	CountByAccountIDTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error)
	HasEntryOnDayTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind string, day time.Time) (bool, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns the append-only credit ledger. The balance check and the
// debit write always happen under the account's row lock, so two concurrent
// debits against the same account can never both pass on a stale balance.
type Service struct {
	DB       TxBeginner
	Accounts AccountRepo
	Entries  CreditRepo

	// Now is the clock used for the free-day check; tests override it.
	Now func() time.Time
}

func NewService(db TxBeginner, accounts AccountRepo, entries CreditRepo) *Service {
	return &Service{DB: db, Accounts: accounts, Entries: entries, Now: time.Now}
}

// Balance sums all ledger entries for the account. The cached
// accounts.credit_balance is only an optimization; this is the truth.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.Entries.SumByAccountID(ctx, accountID)
}

// GrantDailyBonusIfNeeded grants the daily bonus unless one was already
// granted on now's calendar day (UTC). Idempotent: concurrent callers
// serialize on the account row lock and at most one inserts the entry.
func (s *Service) GrantDailyBonusIfNeeded(ctx context.Context, accountID uuid.UUID, now time.Time) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return false, fmt.Errorf("lock account: %w", err)
	}
	had, err := s.Entries.HasEntryOnDayTx(ctx, tx, accountID, models.CreditEntryDailyBonus, now)
	if err != nil {
		return false, err
	}
	if had {
		return false, nil
	}

	// First-ever entry gets the welcome wording; the amount is the same.
	count, err := s.Entries.CountByAccountIDTx(ctx, tx, accountID)
	if err != nil {
		return false, err
	}
	description := "daily bonus"
	if count == 0 {
		description = "welcome bonus"
	}

	newBalance, err := s.Accounts.AddCredits(ctx, tx, accountID, models.DailyBonusAmount)
	if err != nil {
		return false, err
	}
	entry := &models.CreditEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Kind:         models.CreditEntryDailyBonus,
		Amount:       models.DailyBonusAmount,
		BalanceAfter: &newBalance,
		Description:  description,
	}
	if err := s.Entries.CreateTx(ctx, tx, entry); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// Charge debits amount from the account for a generation turn. It returns
// the amount actually charged: zero when amount is zero, when the account
// holds the unlimited entitlement, or on a free day — in those cases no
// entry is written and the operation cannot fail on funds.
func (s *Service) Charge(ctx context.Context, accountID uuid.UUID, projectID *uuid.UUID, amount int, description string) (int, error) {
	if amount <= 0 || FreeDay(s.Now()) {
		return 0, nil
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	acc, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return 0, fmt.Errorf("lock account: %w", err)
	}
	if acc.HasUnlimitedCredits {
		return 0, nil
	}

	newBalance, err := s.Accounts.DeductCredits(ctx, tx, accountID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	entry := &models.CreditEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		ProjectID:    projectID,
		Kind:         models.CreditEntryGenerationDebit,
		Amount:       -amount,
		BalanceAfter: &newBalance,
		Description:  description,
	}
	if err := s.Entries.CreateTx(ctx, tx, entry); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return amount, nil
}

// Refund compensates a debit after a failed generation: an equal and
// opposite entry, so the net ledger effect of the failed turn is zero.
func (s *Service) Refund(ctx context.Context, accountID uuid.UUID, projectID *uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return nil
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	newBalance, err := s.Accounts.AddCredits(ctx, tx, accountID, amount)
	if err != nil {
		return err
	}
	entry := &models.CreditEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		ProjectID:    projectID,
		Kind:         models.CreditEntryRefund,
		Amount:       amount,
		BalanceAfter: &newBalance,
		Description:  description,
	}
	if err := s.Entries.CreateTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
