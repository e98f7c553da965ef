package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/pkg/httputil"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const identityKey contextKey = "identity"

// HeaderUserID carries the authenticated user id, injected by the API
// gateway after JWT validation.
const HeaderUserID = "X-User-ID"

// HeaderGuestID carries the anonymous shopper's cart id. The server mints
// one when the client arrives without a usable value and echoes it back so
// the client can persist it.
const HeaderGuestID = "X-Guest-ID"

// Identity resolves the caller's identity for every request. An X-User-ID
// header wins; otherwise the request proceeds as a guest, keyed by a valid
// X-Guest-ID UUID or a freshly minted one.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var identity domain.Identity

		if userID := r.Header.Get(HeaderUserID); userID != "" {
			identity = domain.UserIdentity(userID)
		} else {
			guestID := r.Header.Get(HeaderGuestID)
			if _, err := uuid.Parse(guestID); err != nil {
				guestID = uuid.New().String()
			}
			w.Header().Set(HeaderGuestID, guestID)
			identity = domain.GuestIdentity(guestID)
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromContext extracts the caller identity stored by Identity.
func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// RequireUser rejects guest callers. Checkout, payment history and merge
// only make sense for authenticated users.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromContext(r.Context())
		if !ok || identity.IsGuest() {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORS adds permissive Cross-Origin Resource Sharing headers for development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID, X-User-ID, X-Guest-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
