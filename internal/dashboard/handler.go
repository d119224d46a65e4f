package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/daveai/backend/internal/middleware"
	"github.com/daveai/backend/internal/models"
)

// AccountRepo is the account access the dashboard needs.
type AccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	SetUnlimited(ctx context.Context, id uuid.UUID, unlimited bool) error
}

// CreditRepo lists ledger entries for the account view.
type CreditRepo interface {
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.CreditEntry, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.CreditEntry, error)
}

// Ledger computes the authoritative balance.
type Ledger interface {
	Balance(ctx context.Context, accountID uuid.UUID) (int, error)
}

type Handler struct {
	accountR AccountRepo
	creditR  CreditRepo
	ledger   Ledger
	log      *slog.Logger
}

func NewHandler(accountR AccountRepo, creditR CreditRepo, ledger Ledger, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{accountR: accountR, creditR: creditR, ledger: ledger, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/account/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	balance, err := h.ledger.Balance(r.Context(), acc.ID)
	if err != nil {
		h.log.Error("compute balance failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                    acc.ID,
		"email":                 acc.Email,
		"name":                  acc.Name,
		"credit_balance":        balance,
		"has_unlimited_credits": acc.HasUnlimitedCredits,
		"created_at":            acc.CreatedAt,
	})
}

// PATCH /api/v1/account/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		Name *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Name != nil && *body.Name != "" {
		if err := h.accountR.UpdateName(r.Context(), acc.ID, *body.Name); err != nil {
			h.log.Error("update settings failed", "error", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/credit-ledger?project_id=...
// Without a project_id the full account ledger is returned; with one, only
// the spend attributed to that project. Entries of other accounts on the
// same project are never exposed.
func (h *Handler) ListCreditLedger(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var entries []*models.CreditEntry
	var err error
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		projectID, perr := uuid.Parse(raw)
		if perr != nil {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}
		entries, err = h.creditR.ListByProjectID(r.Context(), projectID)
		if err == nil {
			own := entries[:0]
			for _, e := range entries {
				if e.AccountID == acc.ID {
					own = append(own, e)
				}
			}
			entries = own
		}
	} else {
		entries, err = h.creditR.ListByAccountID(r.Context(), acc.ID)
	}
	if err != nil {
		h.log.Error("list credit ledger failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.CreditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/v1/promo
func (h *Handler) RedeemPromo(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if body.Code != models.UnlimitedPromoCode {
		http.Error(w, "invalid promo code", http.StatusNotFound)
		return
	}
	if err := h.accountR.SetUnlimited(r.Context(), acc.ID, true); err != nil {
		h.log.Error("redeem promo failed", "error", err)
		http.Error(w, "redeem failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"has_unlimited_credits": true,
	})
}
