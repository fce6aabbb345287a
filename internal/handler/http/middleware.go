package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/session"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/httputil"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/logger"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/middleware"
)

// SessionIDHeader names the guest session in both directions.
const SessionIDHeader = "X-Session-ID"

type contextKey string

const sessionKey contextKey = "session_key"

// Session resolves the cart session of a request. An authenticated user gets
// the user session; anyone else gets the guest session named by the
// X-Session-ID header, or a fresh one when it is missing or malformed. The
// guest id is echoed back so the client can keep using it.
// Mount it after authentication.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var key string
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			key = session.UserKey(userID)
		} else {
			id, err := uuid.Parse(r.Header.Get(SessionIDHeader))
			if err != nil {
				id = uuid.New()
			}
			w.Header().Set(SessionIDHeader, id.String())
			key = session.GuestKey(id.String())
		}

		ctx := context.WithValue(r.Context(), sessionKey, key)
		ctx = logger.WithSession(ctx, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionKeyFromContext returns the session key resolved by Session.
func sessionKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(sessionKey).(string)
	return key
}

// RequireUser rejects requests that carry no authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.UserIDFromContext(r.Context()) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
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
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
