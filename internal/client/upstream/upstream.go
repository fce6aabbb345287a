// Package upstream holds what the storefront API clients share.
package upstream

import (
	"context"
	"net/http"

	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/logger"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/middleware"
)

// Doer performs a JSON round trip. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	JSON(ctx context.Context, method, url string, header http.Header, in, out any) error
}

// Header returns the headers forwarded to the storefront API: the caller's
// bearer token and the correlation id of the current request.
func Header(ctx context.Context) http.Header {
	h := http.Header{}
	if claims, ok := middleware.ClaimsFromContext(ctx); ok && claims.Token != "" {
		h.Set("Authorization", "Bearer "+claims.Token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		h.Set(middleware.CorrelationIDHeader, id)
	}
	return h
}
