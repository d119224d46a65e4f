package models

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedPromoCode grants the unlimited entitlement when redeemed.
const UnlimitedPromoCode = "TIMOFEY"

type Account struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	PasswordHash        string    `json:"-"`
	CreditBalance       int       `json:"credit_balance"`
	HasUnlimitedCredits bool      `json:"has_unlimited_credits"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
