package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/xenking/eshop-api/internal/domain/auth"
	"github.com/xenking/eshop-api/pkg/httpmiddleware"
)

type claimsKey struct{}

// ClaimsFromContext returns the verified credential claims for a request that
// passed the gateway without an exemption, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// ExemptionRule bypasses credential validation for matching requests. An
// empty method set matches any method.
type ExemptionRule struct {
	Pattern *regexp.Regexp
	Methods []string
}

func (e ExemptionRule) matches(method, path string) bool {
	if !e.Pattern.MatchString(path) {
		return false
	}
	if len(e.Methods) == 0 {
		return true
	}
	for _, m := range e.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// GatewayConfig holds the gateway's signing secret and exemption rule list,
// injected at construction.
type GatewayConfig struct {
	Secret     []byte
	Exemptions []ExemptionRule
}

// DefaultExemptions reproduces the stock exemption set: catalog and order
// reads, everything under the users path, and public upload retrieval.
func DefaultExemptions(apiPrefix string) []ExemptionRule {
	prefix := regexp.QuoteMeta(apiPrefix)
	readOnly := []string{http.MethodGet, http.MethodOptions}
	return []ExemptionRule{
		{Pattern: regexp.MustCompile(`/public/upload(.*)`), Methods: readOnly},
		{Pattern: regexp.MustCompile(prefix + `/orders(.*)`), Methods: readOnly},
		{Pattern: regexp.MustCompile(prefix + `/products(.*)`), Methods: readOnly},
		{Pattern: regexp.MustCompile(prefix + `/categories(.*)`), Methods: readOnly},
		{Pattern: regexp.MustCompile(prefix + `/users(.*)`)},
	}
}

// Gateway returns the authorization middleware. Requests matching an
// exemption rule pass through untouched. Everything else must carry a valid
// HS256 bearer token whose claims include isAdmin=true; a token without the
// admin flag is treated as revoked.
func Gateway(cfg GatewayConfig) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rule := range cfg.Exemptions {
				if rule.matches(r.Method, r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				unauthorized(w)
				return
			}

			claims, err := auth.Verify(cfg.Secret, token)
			if err != nil {
				unauthorized(w)
				return
			}
			if !claims.IsAdmin {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "unauthorized")
}
