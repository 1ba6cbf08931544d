package middleware

import (
	"net/http"
	"strings"

	"marketplace-service/internal/identity"
	"marketplace-service/internal/service"
	"marketplace-service/internal/tenant"
	"marketplace-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
)

const (
	HeaderTenant = "X-Tenant-ID"
	QueryTenant  = "tenant"

	CtxAccessToken = "access_token"
)

// Identity определяет пользователя по Bearer-токену. Без токена или с
// невалидным токеном запрос продолжается анонимно.
func Identity(resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractBearerToken(c.GetHeader("Authorization"))
		if !ok || token == "" {
			c.Next()
			return
		}
		c.Set(CtxAccessToken, token)

		if u, ok := resolver.Resolve(c.Request.Context(), token); ok {
			c.Request = c.Request.WithContext(service.WithPrincipal(c.Request.Context(), u))
		}
		c.Next()
	}
}

// TenantContext выставляет область магазина; должен идти после Identity.
func TenantContext(resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		scope := resolver.ScopeFor(ctx, service.PrincipalFromContext(ctx), c.GetHeader(HeaderTenant), c.Query(QueryTenant))
		c.Request = c.Request.WithContext(tenant.WithScope(ctx, scope))
		c.Next()
	}
}

// RequireAuth отсекает анонимные запросы на защищённых маршрутах.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if service.PrincipalFromContext(c.Request.Context()) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("authentication required"))
			return
		}
		c.Next()
	}
}

// ExtractBearerToken извлекает токен из заголовка Authorization, устойчиво к лишним символам
// Примеры допустимых значений:
// - "Bearer abc.def.ghi"
// - "Bearer \"abc.def.ghi\""
// - "Bearer abc.def.ghi, extra"
func ExtractBearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(strings.TrimSpace(authz), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	if i := strings.IndexRune(t, ','); i >= 0 {
		t = t[:i]
	}
	if i := strings.IndexByte(strings.TrimSpace(t), ' '); i >= 0 {
		t = strings.TrimSpace(t)[:i]
	}
	return strings.Trim(strings.TrimSpace(t), " \"'"), true
}
