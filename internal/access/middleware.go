package access

import (
	"strings"

	"github.com/gin-gonic/gin"

	"notifstore/pkg/logging"
)

const contextUserKey = "acting_user"

// Middleware resolves the acting user from request headers set by the
// authenticating proxy. Requests without user headers are treated as
// trusted internal calls and bypass access control.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.GetHeader("X-User-Name")
		if name == "" {
			c.Next()
			return
		}

		user := &User{
			Name:   name,
			Tenant: c.GetHeader("X-Tenant"),
			Access: splitHeaderList(c.GetHeader("X-User-Access")),
		}
		c.Set(contextUserKey, user)

		ctx := logging.WithUserName(c.Request.Context(), user.Name)
		ctx = logging.WithTenant(ctx, user.Tenant)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserFromContext returns the acting user, or nil for internal callers.
func UserFromContext(c *gin.Context) *User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*User)
	return user
}

func splitHeaderList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
