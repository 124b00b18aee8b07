package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the embedded admin origins. A "*" entry allows any origin.
// storefrontPaths are called by widget scripts on shop domains and use StorefrontCORSMiddleware instead.
func CORSMiddleware(allowedOrigins []string, storefrontPaths ...string) gin.HandlerFunc {
	admin := adminCORS(allowedOrigins)
	if len(storefrontPaths) == 0 {
		return admin
	}

	storefront := StorefrontCORSMiddleware()
	public := make(map[string]bool, len(storefrontPaths))
	for _, path := range storefrontPaths {
		public[path] = true
	}

	return func(c *gin.Context) {
		if public[c.Request.URL.Path] {
			storefront(c)
			return
		}
		admin(c)
	}
}

// StorefrontCORSMiddleware accepts any origin without credentials
func StorefrontCORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{RequestIDHeader},
		MaxAge:          12 * time.Hour,
	})
}

func adminCORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(cfg)
}
