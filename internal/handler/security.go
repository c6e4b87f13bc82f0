package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/auth"
	"github.com/xenking/hotel-delivery/pkg/httpmiddleware"
)

// APIKeyHeader carries the back-office API key.
const APIKeyHeader = "api_key"

// APIKeyAuth authenticates back-office requests by the HMAC-SHA256 of the
// api_key header. The key must exist and carry the admin scope.
func APIKeyAuth(keys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			hexHash := auth.HashKey(pepper, key)
			info, err := keys.FindByHash(r.Context(), hexHash)
			switch {
			case errors.Is(err, auth.ErrNotFound):
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			case err != nil:
				zctx.From(r.Context()).Error("API key lookup failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			// The stored hash could differ from ours if the repository
			// returned a wrong row.
			computed, _ := hex.DecodeString(hexHash)
			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !info.HasScope(auth.ScopeAdmin) {
				writeError(w, http.StatusForbidden, "api key lacks admin scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
