package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the storefront client origins. clientURL may list several origins
// separated by commas; when it is empty every origin is allowed without credentials.
func CORSMiddleware(clientURL string) gin.HandlerFunc {
	cfg := cors.Config{
		// Methods used by the storefront API.
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},

		// "Authorization" carries the ID token.
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},

		ExposeHeaders: []string{"Content-Length"},

		// How long browsers may cache a preflight response.
		MaxAge: 12 * time.Hour,
	}

	// Parse the comma-separated origin list, dropping blanks and trailing slashes.
	var origins []string
	for _, o := range strings.Split(clientURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		// Browsers reject credentials with a wildcard origin.
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
