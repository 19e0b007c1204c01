package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const HeaderUserID = "X-User-Id"

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// RequireIdentity enforces X-User-Id and keeps it, together with the
// Authorization header, in the request context. The bearer token is never
// inspected here; the storefront API owns authentication.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			WriteError(w, r, http.StatusBadRequest, "missing required header: X-User-Id")
			return
		}
		ctx := WithIdentity(r.Context(), uid, r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithIdentity(ctx context.Context, userID, authorization string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxAuthorization, authorization)
}

func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func GetAuthorization(ctx context.Context) string {
	if v, ok := ctx.Value(ctxAuthorization).(string); ok {
		return v
	}
	return ""
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:         msg,
		CorrelationID: GetCorrelationID(r.Context()),
	})
}
