package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daveai/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for AccountRepo and CreditRepo. These let us test the
// real ledger logic without a database.
// ---------------------------------------------------------------------------

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// ---

type mockAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newMockAccounts(accs ...*models.Account) *mockAccounts {
	m := &mockAccounts{accounts: make(map[uuid.UUID]*models.Account)}
	for _, a := range accs {
		cp := *a
		m.accounts[a.ID] = &cp
	}
	return m
}

func (m *mockAccounts) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccounts) DeductCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, fmt.Errorf("account %s not found", id)
	}
	if a.CreditBalance < amount {
		// The conditional UPDATE matches no row in this case.
		return 0, pgx.ErrNoRows
	}
	a.CreditBalance -= amount
	return a.CreditBalance, nil
}

func (m *mockAccounts) AddCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, fmt.Errorf("account %s not found", id)
	}
	a.CreditBalance += amount
	return a.CreditBalance, nil
}

func (m *mockAccounts) balance(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].CreditBalance
}

// ---

type mockEntries struct {
	mu      sync.Mutex
	entries []*models.CreditEntry
}

func (m *mockEntries) CreateTx(_ context.Context, _ pgx.Tx, c *models.CreditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockEntries) SumByAccountID(_ context.Context, accountID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (m *mockEntries) CountByAccountIDTx(_ context.Context, _ pgx.Tx, accountID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *mockEntries) HasEntryOnDayTx(_ context.Context, _ pgx.Tx, accountID uuid.UUID, kind string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := day.UTC().Format("2006-01-02")
	for _, e := range m.entries {
		if e.AccountID == accountID && e.Kind == kind && e.CreatedAt.UTC().Format("2006-01-02") == want {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEntries) byKind(kind string) []*models.CreditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditEntry
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockEntries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func acct(id uuid.UUID, balance int) *models.Account {
	return &models.Account{ID: id, CreditBalance: balance}
}

func newTestService(accounts *mockAccounts, entries *mockEntries) *Service {
	svc := NewService(mockPool{}, accounts, entries)
	// Pin the clock to an ordinary day so free-day logic stays out of the way.
	svc.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

// ---------------------------------------------------------------------------
// Charge
// ---------------------------------------------------------------------------

func TestCharge(t *testing.T) {
	account := uuid.New()
	project := uuid.New()

	accounts := newMockAccounts(acct(account, 10))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	ctx := context.Background()
	charged, err := svc.Charge(ctx, account, &project, 5, "image generation")
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if charged != 5 {
		t.Errorf("charged: got %d, want 5", charged)
	}
	if got := accounts.balance(account); got != 5 {
		t.Errorf("balance after charge: got %d, want 5", got)
	}

	debits := entries.byKind(models.CreditEntryGenerationDebit)
	if len(debits) != 1 {
		t.Fatalf("debit entries: got %d, want 1", len(debits))
	}
	if debits[0].Amount != -5 {
		t.Errorf("debit amount: got %d, want -5", debits[0].Amount)
	}
	if debits[0].ProjectID == nil || *debits[0].ProjectID != project {
		t.Error("debit entry should reference the project")
	}
	if debits[0].BalanceAfter == nil || *debits[0].BalanceAfter != 5 {
		t.Error("debit entry should carry the post-charge balance")
	}
}

func TestChargeInsufficientFundsLeavesNoTrace(t *testing.T) {
	account := uuid.New()
	project := uuid.New()

	accounts := newMockAccounts(acct(account, 3))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	_, err := svc.Charge(context.Background(), account, &project, 10, "video generation")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}
	if got := accounts.balance(account); got != 3 {
		t.Errorf("balance must be unchanged: got %d, want 3", got)
	}
	if n := entries.count(); n != 0 {
		t.Errorf("expected 0 ledger entries, got %d", n)
	}
}

func TestChargeZeroAmount(t *testing.T) {
	account := uuid.New()
	accounts := newMockAccounts(acct(account, 3))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	charged, err := svc.Charge(context.Background(), account, nil, 0, "discussion")
	if err != nil || charged != 0 {
		t.Fatalf("Charge(0): charged=%d err=%v, want 0, nil", charged, err)
	}
	if n := entries.count(); n != 0 {
		t.Errorf("expected 0 ledger entries, got %d", n)
	}
}

func TestChargeFreeDay(t *testing.T) {
	account := uuid.New()
	accounts := newMockAccounts(acct(account, 3))
	entries := &mockEntries{}
	svc := NewService(mockPool{}, accounts, entries)
	svc.Now = func() time.Time { return time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC) }

	charged, err := svc.Charge(context.Background(), account, nil, 10, "video generation")
	if err != nil {
		t.Fatalf("Charge on free day: %v", err)
	}
	if charged != 0 {
		t.Errorf("charged on free day: got %d, want 0", charged)
	}
	if got := accounts.balance(account); got != 3 {
		t.Errorf("balance must be unchanged: got %d, want 3", got)
	}
}

func TestChargeUnlimitedAccount(t *testing.T) {
	account := uuid.New()
	a := acct(account, 2)
	a.HasUnlimitedCredits = true
	accounts := newMockAccounts(a)
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	charged, err := svc.Charge(context.Background(), account, nil, 10, "video generation")
	if err != nil {
		t.Fatalf("Charge on unlimited account: %v", err)
	}
	if charged != 0 {
		t.Errorf("charged: got %d, want 0", charged)
	}
	if got := accounts.balance(account); got != 2 {
		t.Errorf("balance must be unchanged: got %d, want 2", got)
	}
	if n := entries.count(); n != 0 {
		t.Errorf("expected 0 ledger entries, got %d", n)
	}
}

func TestConcurrentChargesNoDoubleSpend(t *testing.T) {
	account := uuid.New()
	accounts := newMockAccounts(acct(account, 10))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	const workers = 20
	var wg sync.WaitGroup
	var successes int
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if charged, err := svc.Charge(context.Background(), account, nil, 5, "image generation"); err == nil && charged == 5 {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 2 {
		t.Errorf("successful charges: got %d, want 2", successes)
	}
	if got := accounts.balance(account); got != 0 {
		t.Errorf("final balance: got %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Refund
// ---------------------------------------------------------------------------

func TestRefundRestoresChargedAmount(t *testing.T) {
	account := uuid.New()
	project := uuid.New()
	accounts := newMockAccounts(acct(account, 10))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	ctx := context.Background()
	charged, err := svc.Charge(ctx, account, &project, 10, "video generation")
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if err := svc.Refund(ctx, account, &project, charged, "refund: video generation failed"); err != nil {
		t.Fatalf("Refund: %v", err)
	}

	if got := accounts.balance(account); got != 10 {
		t.Errorf("balance after refund: got %d, want 10", got)
	}
	sum, _ := entries.SumByAccountID(ctx, account)
	if sum != 0 {
		t.Errorf("net ledger sum: got %d, want 0", sum)
	}
	refunds := entries.byKind(models.CreditEntryRefund)
	if len(refunds) != 1 || refunds[0].Amount != 10 {
		t.Errorf("refund entry: got %+v, want single +10 entry", refunds)
	}
}

// ---------------------------------------------------------------------------
// Daily bonus
// ---------------------------------------------------------------------------

func TestGrantDailyBonusIdempotentPerDay(t *testing.T) {
	account := uuid.New()
	accounts := newMockAccounts(acct(account, 0))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	granted, err := svc.GrantDailyBonusIfNeeded(ctx, account, now)
	if err != nil || !granted {
		t.Fatalf("first grant: granted=%v err=%v", granted, err)
	}
	// Same day, later hour: must be a no-op.
	granted, err = svc.GrantDailyBonusIfNeeded(ctx, account, now.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if granted {
		t.Error("second grant on the same day must not happen")
	}
	if got := accounts.balance(account); got != models.DailyBonusAmount {
		t.Errorf("balance: got %d, want %d", got, models.DailyBonusAmount)
	}

	bonuses := entries.byKind(models.CreditEntryDailyBonus)
	if len(bonuses) != 1 {
		t.Fatalf("bonus entries: got %d, want 1", len(bonuses))
	}
	if bonuses[0].Description != "welcome bonus" {
		t.Errorf("first-ever bonus description: got %q, want %q", bonuses[0].Description, "welcome bonus")
	}
}

func TestGrantDailyBonusNextDay(t *testing.T) {
	account := uuid.New()
	accounts := newMockAccounts(acct(account, 0))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	ctx := context.Background()
	day1 := time.Date(2026, 3, 10, 23, 50, 0, 0, time.UTC)

	if granted, err := svc.GrantDailyBonusIfNeeded(ctx, account, day1); err != nil || !granted {
		t.Fatalf("day1 grant: granted=%v err=%v", granted, err)
	}

	// HasEntryOnDayTx compares against the recorded timestamp, so shift the
	// stored entry back a day to simulate the next calendar day.
	entries.mu.Lock()
	entries.entries[0].CreatedAt = entries.entries[0].CreatedAt.Add(-24 * time.Hour)
	entries.mu.Unlock()

	granted, err := svc.GrantDailyBonusIfNeeded(ctx, account, day1)
	if err != nil || !granted {
		t.Fatalf("next-day grant: granted=%v err=%v", granted, err)
	}
	if got := accounts.balance(account); got != 2*models.DailyBonusAmount {
		t.Errorf("balance after two days: got %d, want %d", got, 2*models.DailyBonusAmount)
	}

	bonuses := entries.byKind(models.CreditEntryDailyBonus)
	if len(bonuses) != 2 {
		t.Fatalf("bonus entries: got %d, want 2", len(bonuses))
	}
	if bonuses[1].Description != "daily bonus" {
		t.Errorf("subsequent bonus description: got %q, want %q", bonuses[1].Description, "daily bonus")
	}
}

// ---------------------------------------------------------------------------
// Balance
// ---------------------------------------------------------------------------

func TestBalanceIsLedgerSum(t *testing.T) {
	account := uuid.New()
	project := uuid.New()
	accounts := newMockAccounts(acct(account, 0))
	entries := &mockEntries{}
	svc := newTestService(accounts, entries)

	ctx := context.Background()
	if _, err := svc.GrantDailyBonusIfNeeded(ctx, account, svc.Now()); err != nil {
		t.Fatalf("bonus: %v", err)
	}
	if _, err := svc.Charge(ctx, account, &project, 1, "code generation"); err != nil {
		t.Fatalf("charge: %v", err)
	}

	balance, err := svc.Balance(ctx, account)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	want := models.DailyBonusAmount - 1
	if balance != want {
		t.Errorf("balance: got %d, want %d", balance, want)
	}
	if cached := accounts.balance(account); cached != balance {
		t.Errorf("cached balance %d diverges from ledger sum %d", cached, balance)
	}
}

func TestFreeDay(t *testing.T) {
	if !FreeDay(time.Date(2025, 12, 25, 0, 0, 1, 0, time.UTC)) {
		t.Error("2025-12-25 should be a free day")
	}
	if FreeDay(time.Date(2025, 12, 26, 12, 0, 0, 0, time.UTC)) {
		t.Error("2025-12-26 should not be a free day")
	}
	// Local-time callers on a different calendar day still hit the UTC date.
	loc := time.FixedZone("UTC+5", 5*3600)
	if !FreeDay(time.Date(2025, 12, 26, 2, 0, 0, 0, loc)) {
		t.Error("free-day check should compare the UTC date, not the local one")
	}
}
