package router

import (
	"net/http"

	"github.com/daveai/backend/internal/auth"
	"github.com/daveai/backend/internal/dashboard"
)

// New returns an http.Handler serving the account API under /api/v1.
// authed is the bearer-token middleware guarding everything except the
// auth endpoints themselves.
func New(authHandler *auth.Handler, dashHandler *dashboard.Handler, authed func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.Handle("GET "+base+"/account/me", authed(http.HandlerFunc(dashHandler.GetMe)))
	mux.Handle("PATCH "+base+"/account/settings", authed(http.HandlerFunc(dashHandler.UpdateSettings)))
	mux.Handle("GET "+base+"/credit-ledger", authed(http.HandlerFunc(dashHandler.ListCreditLedger)))
	mux.Handle("POST "+base+"/promo", authed(http.HandlerFunc(dashHandler.RedeemPromo)))

	return mux
}
