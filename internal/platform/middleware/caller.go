package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// CallerHeader carries the caller's wallet address, set by the
// fronting wallet/identity provider. The ledger trusts this layer the
// way a contract trusts its sender field.
const CallerHeader = "X-Caller-Address"

type contextKeyCaller struct{}

// CallerAddress validates the caller header and stores the parsed
// address in the context. Requests without a well-formed address are
// rejected before they reach a handler.
func CallerAddress(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(CallerHeader)
			if !common.IsHexAddress(raw) {
				logger.WarnContext(r.Context(), "missing or malformed caller address",
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_argument","error_description":"caller address required"}`))
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyCaller{}, common.HexToAddress(raw))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCaller retrieves the caller address from the context. The zero
// address means no CallerAddress middleware ran.
func GetCaller(ctx context.Context) common.Address {
	addr, ok := ctx.Value(contextKeyCaller{}).(common.Address)
	if !ok {
		return common.Address{}
	}
	return addr
}
