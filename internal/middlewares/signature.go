package middlewares

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// SignatureMiddleware returns a middleware that verifies webhook signatures
// against the shared signing secret. An empty secret disables verification
// and the middleware passes every request through unchanged.
//
// The body is read in full for the comparison and restored for the handler;
// webhook payloads are small, so buffering is fine here.
func SignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Log.Errorw("failed to read webhook body for verification", "error", err)
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))

			got := r.Header.Get(SignatureHeader)
			if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
				logger.Log.Warnw("webhook signature verification failed", "uri", r.RequestURI)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid signature"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
