package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

// sessionKey is the gin context key holding the *models.Session of an authenticated request.
const sessionKey = "session"

// ErrorResponse mirrors api.ErrorResponse; it is redeclared here to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware authenticates requests with auth provider ID tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	admins   map[string]bool
	logger   *zap.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. adminEmails are granted the admin role in
// addition to tokens carrying an "admin" claim.
func NewAuthMiddleware(verifier TokenVerifier, adminEmails []string, logger *zap.Logger) *AuthMiddleware {
	// Admin emails are matched against the normalized user key.
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[models.UserKey(e)] = true
	}
	return &AuthMiddleware{verifier: verifier, admins: admins, logger: logger}
}

// OptionalToken authenticates the request when it carries an Authorization header and lets
// anonymous requests through with no session.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	verify := m.VerifyToken()
	return func(c *gin.Context) {
		// Anonymous request: continue without a session.
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		// A header was sent, so it must be valid.
		verify(c)
	}
}

// VerifyToken requires a valid "Authorization: Bearer <token>" header and stores the
// resulting session in the gin context. Requests are rejected before any handler runs.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") { // Case-insensitive "bearer"
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		// Verify with the request context so a dropped client stops the lookup.
		token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			// Details stay in the server log; the client gets a generic message.
			m.logger.Warn("Rejected ID token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		// Users are keyed by email, so a token without one cannot be mapped to a profile.
		email, _ := token.Claims["email"].(string)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Token carries no email address"})
			return
		}
		// Optional profile claims populated by the identity provider.
		name, _ := token.Claims["name"].(string)
		picture, _ := token.Claims["picture"].(string)
		adminClaim, _ := token.Claims["admin"].(bool)

		// Token is valid. Store the session for downstream handlers.
		session := models.NewSession(token.UID, email, name, picture, adminClaim || m.admins[models.UserKey(email)])
		c.Set(sessionKey, session)
		c.Next() // Proceed to the next handler in the chain.
	}
}

// RequireAdmin rejects sessions without the admin role. It must run after VerifyToken.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if !session.SignedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		if !session.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}

// GetSession returns the session VerifyToken stored, or nil.
func GetSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil // Anonymous request
	}
	session, _ := v.(*models.Session)
	return session
}

// SetSession stores session in the gin context.
func SetSession(c *gin.Context, session *models.Session) {
	c.Set(sessionKey, session)
}
