package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-backend/internal/domain"
)

const (
	principalKey = "todo-backend/principal"
	bearerPrefix = "Bearer "
)

func principalFrom(c *gin.Context) *domain.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := value.(*domain.Principal)
	return principal
}

// authenticate is best-effort: a missing header, invalid token or
// unresolvable subject leaves the request anonymous and processing
// continues. Rejection is deferred to requirePrivilege.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		if !h.tokens.IsValid(token) {
			c.Next()
			return
		}

		email, err := h.tokens.Subject(token)
		if err != nil || email == "" {
			c.Next()
			return
		}

		// the user may have been deleted after the token was issued
		principal, err := h.auth.Resolve(c.Request.Context(), email)
		if err != nil {
			c.Next()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// requirePrivilege denies with 401 when no principal is bound and 403 when
// the principal lacks the privilege. An anonymous request uniformly has no
// privileges.
func (h *Handler) requirePrivilege(privilege domain.UserPrivilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := principalFrom(c)
		if principal == nil {
			writeError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !principal.HasPrivilege(privilege) {
			writeError(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
