package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/snapkartapp/snapkart/internal/services"
)

type contextKey string

const claimsContextKey contextKey = "auth.claims"

func claimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*services.Claims)
	return claims, ok
}

// RequireCustomer authenticates the request via a Bearer token and stores
// the verified claims in the request context.
func (h *Handlers) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is RequireCustomer plus an admin check.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request) (*services.Claims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	claims, err := h.authService.ParseToken(strings.TrimSpace(token))
	if err != nil {
		h.loggerFromContext(r.Context()).Debug("token rejected", "error", err)
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	return claims, true
}
