package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

const traceIDHeader = "X-Request-ID"

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(traceIDHeader); id != "" {
			ctx = tracing.WithTraceID(ctx, id)
		} else {
			ctx = tracing.InjectTraceID(ctx)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// route pattern keeps path params out of the label values
		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHttpRequestDuration(time.Since(startTime), r.Method+" "+endpoint, status)
	})
}

// relayerAuthMiddleware rejects requests that do not carry the relayer bearer
// token. An empty token disables the check.
func relayerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				writeError(w, r, types.NewErrorWithMsg(http.StatusUnauthorized, types.Unauthorized, "missing or invalid relayer token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
