package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// CompanyContextKey is the key used to store the authenticated company in Gin context
const CompanyContextKey = "company"

// CompanyContext represents the authenticated company
type CompanyContext struct {
	CompanyID int64    `json:"company_id"`
	Roles     []string `json:"roles"`
}

// AuthMiddleware validates the bearer access token and stores the company context
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(fields).Warn("Auth failed: missing authorization header")
			abortUnauthorized(c, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			logger.WithFields(fields).Warn("Auth failed: invalid authorization format")
			abortUnauthorized(c, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if expiry, expErr := jwtService.GetTokenExpiry(tokenString); expErr == nil && expiry.Before(time.Now()) {
				logger.WithFields(fields).WithError(err).Warn("Auth failed: token expired")
				abortUnauthorized(c, "token_expired", "Access token has expired", "TOKEN_EXPIRED")
				return
			}
			logger.WithFields(fields).WithError(err).Warn("Auth failed: invalid token")
			abortUnauthorized(c, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			return
		}

		c.Set(CompanyContextKey, CompanyContext{
			CompanyID: claims.CompanyID,
			Roles:     claims.Roles,
		})
		c.Set("company_id", claims.CompanyID)

		c.Next()
	}
}

// RequireRole checks that the authenticated company holds one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyCtx, exists := GetCompanyContext(c)
		if !exists {
			abortUnauthorized(c, "unauthorized", "Company context not found. Auth middleware may not be applied.", "MISSING_COMPANY_CONTEXT")
			return
		}

		for _, required := range roles {
			for _, role := range companyCtx.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// GetCompanyContext retrieves the company context from Gin context
func GetCompanyContext(c *gin.Context) (CompanyContext, bool) {
	value, exists := c.Get(CompanyContextKey)
	if !exists {
		return CompanyContext{}, false
	}

	companyCtx, ok := value.(CompanyContext)
	if !ok {
		return CompanyContext{}, false
	}

	return companyCtx, true
}

func abortUnauthorized(c *gin.Context, errorCode, message, code string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   errorCode,
		"message": message,
		"code":    code,
	})
	c.Abort()
}
