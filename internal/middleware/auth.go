package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/assurtech/autocover/pkg/problem"
)

type contextKey string

const tenantKey contextKey = "tenant_id"

// TenantID returns the tenant resolved by TenantAuth, or "" outside an
// authenticated request.
func TenantID(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey).(string)
	return tenant
}

// WithTenant is exported for tests that call handlers directly.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantAuth authenticates requests with an API key and resolves the key
// to a tenant. Every key belongs to exactly one tenant, so the key is
// both credential and tenant selector.
func TenantAuth(keyToTenant map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health probes are unauthenticated
			if strings.HasPrefix(r.URL.Path, "/health") ||
				strings.HasPrefix(r.URL.Path, "/readyz") {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			tenant := resolveTenant(keyToTenant, key)
			if tenant == "" {
				problem.Write(w, http.StatusUnauthorized, "Unauthorized", "Invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

// resolveTenant compares the presented key against every configured key
// in constant time to prevent timing attacks.
func resolveTenant(keyToTenant map[string]string, presented string) string {
	presentedBytes := []byte(presented)
	match := ""
	for key, tenant := range keyToTenant {
		if subtle.ConstantTimeCompare([]byte(key), presentedBytes) == 1 {
			match = tenant
		}
	}
	return match
}
