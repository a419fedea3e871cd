package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"fundsledger/internal/gateway/identity"
	"fundsledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RouterDeps collects what the router needs beyond the handler itself.
type RouterDeps struct {
	Handler        *Handler
	Verifier       identity.Verifier
	Limiter        RateLimiter // nil disables rate limiting
	Logger         *slog.Logger
	AllowedOrigins []string
	TrustedProxies []string // peers allowed to set X-Forwarded-For
	StaticDir      string
}

func SetupRouter(deps RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	// ClientIP keys the rate limiter, so forwarded headers count only from
	// configured proxies.
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(deps.Logger))
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(deps.AllowedOrigins))

	h := deps.Handler
	auth := AuthMiddleware(deps.Verifier, deps.Logger)

	limited := []gin.HandlerFunc{}
	if deps.Limiter != nil {
		limited = append(limited, RateLimitMiddleware(deps.Limiter, deps.Logger))
	}

	api := r.Group("/api")
	{
		api.POST("/register", append(limited, h.Register)...)
		api.POST("/forgot-password", append(limited, h.ForgotPassword)...)
		api.POST("/login", h.Login)

		api.GET("/user", auth, h.GetUser)

		funds := api.Group("/funds", auth)
		{
			funds.GET("", h.GetFunds)
			funds.POST("/deduct", h.DeductFunds)
		}

		api.POST("/payments/create-checkout-session", auth, h.CreateCheckoutSession)

		// authenticated by the notification signature, not a bearer token
		api.POST("/stripe-webhook", h.StripeWebhook)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.StaticDir != "" {
		serveStatic(r, deps.StaticDir)
	}

	return r, nil
}

// serveStatic serves files from dir and falls back to index.html for
// unknown non-API paths.
func serveStatic(r *gin.Engine, dir string) {
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
			return
		}

		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
}
