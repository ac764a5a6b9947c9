package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/lesson-progress-service/internal/config"
	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
)

const (
	userIDKey    = "user_id"
	userRolesKey = "user_roles"
	requestIDKey = "request_id"

	// UserIDHeader and UserRolesHeader carry the caller identity when token auth is disabled.
	// Roles are comma separated.
	UserIDHeader    = "X-User-ID"
	UserRolesHeader = "X-User-Roles"
	RequestIDHeader = "X-Request-ID"
)

// Roles allowed to read other learners' progress
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Identity is the resolved caller of a request
type Identity struct {
	UserID string
	Roles  []string
}

// TokenParser resolves a bearer token to the caller's identity
type TokenParser func(token string) (Identity, error)

var casdoorInit sync.Once

// NewCasdoorTokenParser validates tokens issued by the configured casdoor application.
// Casdoor admins get the admin role in addition to their assigned roles.
func NewCasdoorTokenParser(cfg config.AuthConfig) TokenParser {
	casdoorInit.Do(func() {
		casdoorsdk.InitConfig(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.OrganizationName, cfg.ApplicationName)
	})

	return func(token string) (Identity, error) {
		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			return Identity{}, fmt.Errorf("failed to parse token: %w", err)
		}

		identity := Identity{UserID: claims.User.Id}
		if identity.UserID == "" && claims.User.Name != "" {
			identity.UserID = claims.User.Owner + "/" + claims.User.Name
		}
		if identity.UserID == "" {
			return Identity{}, fmt.Errorf("token carries no user id")
		}

		for _, role := range claims.User.Roles {
			if role != nil && role.Name != "" {
				identity.Roles = append(identity.Roles, strings.ToLower(role.Name))
			}
		}
		if claims.User.IsAdmin {
			identity.Roles = append(identity.Roles, RoleAdmin)
		}
		return identity, nil
	}
}

// AuthMiddleware stores the caller identity under "user_id" and "user_roles". With a nil
// parser the identity is taken from the X-User-ID and X-User-Roles headers.
func AuthMiddleware(parser TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parser == nil {
			userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
			if userID == "" {
				abortUnauthorized(c, "Missing "+UserIDHeader+" header")
				return
			}
			setIdentity(c, Identity{UserID: userID, Roles: parseRoles(c.GetHeader(UserRolesHeader))})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		identity, err := parser(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected access token", "error", err, "path", c.Request.URL.Path)
			abortUnauthorized(c, "Invalid access token")
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles
func RequireRole(logger utils.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := c.GetStringSlice(userRolesKey)
		for _, role := range roles {
			if slices.Contains(held, role) {
				c.Next()
				return
			}
		}

		logger.Warn("Role check failed",
			"user_id", c.GetString(userIDKey),
			"roles", held,
			"required", roles,
			"path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
			Code:    CodeForbidden,
		})
	}
}

func setIdentity(c *gin.Context, identity Identity) {
	c.Set(userIDKey, identity.UserID)
	c.Set(userRolesKey, identity.Roles)
}

func parseRoles(header string) []string {
	var roles []string
	for _, role := range strings.Split(header, ",") {
		if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: message,
		Code:    CodeUnauthorized,
	})
}

// RequestIDMiddleware propagates X-Request-ID, generating one when absent
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// CORSMiddleware configures gin-contrib/cors from the service config
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", UserIDHeader, UserRolesHeader, RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", RequestIDHeader},
		MaxAge:        cfg.MaxAge,
	}
	if corsConfig.MaxAge == 0 {
		corsConfig.MaxAge = 12 * time.Hour
	}

	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}
